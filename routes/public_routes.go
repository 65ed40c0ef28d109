package routes

import (
	"github.com/anjiri1684/edirpay/handlers"
	"github.com/anjiri1684/edirpay/middleware"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, d *handlers.Dashboard, botToken string) {
	app.Get("/health", d.Health)

	api := app.Group("/api/v1")
	webapp := api.Group("/webapp", middleware.WebAppAuth(botToken))
	webapp.Post("/submit", d.WebAppSubmit)
}

// Setup registers every route of the service.
func Setup(app *fiber.App, d *handlers.Dashboard, jwtSecret, botToken string) {
	PublicRoutes(app, d, botToken)
	AuthRoutes(app, d)
	AdminRoutes(app, d, jwtSecret)
	FeedRoutes(app, d)
}
