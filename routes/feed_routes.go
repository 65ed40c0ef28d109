package routes

import (
	"github.com/anjiri1684/edirpay/handlers"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// FeedRoutes exposes the live submission feed for dashboards.
func FeedRoutes(app *fiber.App, d *handlers.Dashboard) {
	api := app.Group("/api/v1")

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(d.ServeWs))
}
