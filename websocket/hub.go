package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/anjiri1684/edirpay/services"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub fans submission events out to every connected dashboard.
type Hub struct {
	register   chan Conn
	unregister chan Conn
	broadcast  chan services.SubmissionEvent
	done       chan struct{}

	mu      sync.RWMutex
	clients map[Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan Conn),
		unregister: make(chan Conn),
		broadcast:  make(chan services.SubmissionEvent, 64),
		done:       make(chan struct{}),
		clients:    make(map[Conn]bool),
	}
}

// Emit queues an event for broadcast. It never blocks the caller; when the
// queue is full the event is dropped.
func (h *Hub) Emit(e services.SubmissionEvent) {
	select {
	case h.broadcast <- e:
	default:
		log.Printf("⚠️ dashboard feed full, dropped %s %s", e.Code, e.Status)
	}
}

// Join adds conn to the feed. It reports false once the hub has stopped.
func (h *Hub) Join(conn Conn) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes conn from the feed. After shutdown it returns at once, the
// hub has already closed every client.
func (h *Hub) Leave(conn Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			log.Printf("Dashboard client connected (%d online)", h.Clients())
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending event to dashboard client: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}
