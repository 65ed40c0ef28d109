package services

import (
	"context"
	"time"
)

// MessageRef points at a message already delivered to the platform.
type MessageRef struct {
	ChatID    int64
	MessageID int
	HasPhoto  bool
}

// Action is an inline button: label shown to the approver, data sent back.
type Action struct {
	Label string
	Data  string
}

// Notifier is the outbound side of the chat platform.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
	NotifyWithImage(ctx context.Context, chatID int64, evidenceRef, text string, actions []Action) (MessageRef, error)
	Publish(ctx context.Context, chatID int64, text string) (MessageRef, error)
	UpdateMessage(ctx context.Context, ref MessageRef, text string) error
	SendDocument(ctx context.Context, chatID int64, name string, data []byte, caption string) error
}

// SubmissionEvent is emitted on every status change for live dashboards.
type SubmissionEvent struct {
	ID      uint      `json:"id"`
	Code    string    `json:"code"`
	Kind    string    `json:"kind"`
	OwnerID int64     `json:"owner_id"`
	Status  string    `json:"status"`
	Total   float64   `json:"total"`
	ActorID int64     `json:"actor_id,omitempty"`
	At      time.Time `json:"at"`
}

type EventSink interface {
	Emit(SubmissionEvent)
}
