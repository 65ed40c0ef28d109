package routes

import (
	"github.com/anjiri1684/edirpay/handlers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App, d *handlers.Dashboard) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", d.Login)
}
