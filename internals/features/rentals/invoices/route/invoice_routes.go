// file: internals/features/rentals/invoices/route/invoice_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	invoiceController "rumahsewa_backend/internals/features/rentals/invoices/controller"
)

// InvoiceUserRoutes: tagihan milik penyewa login (group /api/u).
func InvoiceUserRoutes(router fiber.Router, db *gorm.DB) {
	ctl := invoiceController.NewRentInvoiceController(db)

	invoices := router.Group("/invoices")
	invoices.Get("/", ctl.ListMyInvoices)
	invoices.Get("/:id", ctl.GetMyInvoiceByID)
}

// InvoiceAdminRoutes: kelola tagihan (group /api/a).
func InvoiceAdminRoutes(router fiber.Router, db *gorm.DB) {
	ctl := invoiceController.NewRentInvoiceController(db)

	invoices := router.Group("/invoices")
	invoices.Post("/", ctl.CreateInvoice)
	invoices.Get("/", ctl.ListInvoices)
}
