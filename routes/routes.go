package routes

import (
	"github.com/gofiber/fiber/v2"

	"kitaverwaltung-backend/controllers"
	"kitaverwaltung-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard for retried mutations
	protected.Use(middlewares.Idempotency())

	// Reads are open to any authenticated staff account
	protected.Get("/fees", controllers.GetFees)
	protected.Get("/fees/:id", controllers.GetFee)
	protected.Get("/fees/:id/classes/:assignmentId/payments", controllers.GetClassPayments)
	protected.Get("/classes", controllers.GetClasses)
	protected.Get("/classes/:id/enrollments", controllers.GetEnrollments)
	protected.Get("/invoices/:id/payments", controllers.ListPayments)

	// Mutations require an administrator
	admin := protected.Group("", middlewares.RequireAdmin())

	// Fee catalog + class assignments
	admin.Post("/fees", controllers.CreateFee)
	admin.Put("/fees/:id", controllers.UpdateFee)
	admin.Delete("/fees/:id", controllers.DeleteFee)

	// Invoices & payments
	admin.Put("/invoices/:id", controllers.UpdateInvoice)
	admin.Post("/invoices/:id/payments", controllers.CreatePayment)

	// Roster
	admin.Post("/classes", controllers.CreateClass)
	admin.Post("/students", controllers.CreateStudent)
	admin.Post("/enrollments", controllers.CreateEnrollment)
}
