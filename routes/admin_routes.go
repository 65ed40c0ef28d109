package routes

import (
	"github.com/anjiri1684/edirpay/handlers"
	"github.com/anjiri1684/edirpay/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App, d *handlers.Dashboard, jwtSecret string) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(jwtSecret), middleware.AdminRequired())

	admin.Get("/summary", d.Summary)
	admin.Get("/submissions", d.Submissions)
	admin.Get("/members", d.Members)

	reports := admin.Group("/reports")
	reports.Get("/submissions.csv", d.SubmissionsCSV)
}
