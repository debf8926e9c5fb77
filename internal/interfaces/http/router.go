package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jvillacis/tallerpro-api/internal/application/billing"
	"github.com/jvillacis/tallerpro-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	IssueInvoice *billing.IssueInvoiceUseCase
	JWTSecret    string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	billingHandler := NewBillingHandler(deps.IssueInvoice, deps.Log)
	protected.Post("/sales/:id/invoice", billingHandler.IssueInvoice)
	protected.Get("/invoices/:id", billingHandler.GetInvoice)
	protected.Get("/invoices/:id/status", billingHandler.RefreshStatus)
	protected.Get("/invoices/:id/xml", billingHandler.DownloadXML)
}
