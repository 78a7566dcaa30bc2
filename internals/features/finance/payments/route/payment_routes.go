// file: internals/features/finance/payments/route/payment_routes.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"rumahsewa_backend/internals/configs"
	paymentController "rumahsewa_backend/internals/features/finance/payments/controller"
	"rumahsewa_backend/internals/features/finance/payments/gateway"
	svc "rumahsewa_backend/internals/features/finance/payments/service"
	"rumahsewa_backend/internals/middlewares"
)

// PaymentWebhookRoutes: publik, tanpa JWT; autentikasi per provider
// dilakukan di controller atas raw body.
func PaymentWebhookRoutes(router fiber.Router, db *gorm.DB) {
	reg := gateway.NewRegistry()
	reconciler := svc.NewSettlementReconciler(db, svc.NewDBNotifier(db))
	ctl := paymentController.NewWebhookController(db, reg, reconciler)

	router.Post("/payments/:provider", ctl.HandleProviderWebhook)
}

// PaymentUserRoutes: endpoint penyewa (group sudah dibungkus AuthJWT).
func PaymentUserRoutes(router fiber.Router, db *gorm.DB) {
	reg := gateway.NewRegistry()
	initiator := svc.NewPaymentInitiator(db, reg, configs.AppBaseURL)
	ctl := paymentController.NewPaymentController(db, initiator)

	payments := router.Group("/payments")
	payments.Post("/initiate", middlewares.InitiateRateLimiter(), ctl.InitiatePayment)
	payments.Get("/my", ctl.ListMyPayments)
	payments.Get("/:id", ctl.GetPaymentByID)
}

// PaymentAdminRoutes: audit log webhook (group admin).
func PaymentAdminRoutes(router fiber.Router, db *gorm.DB) {
	ctl := paymentController.NewGatewayEventController(db)

	events := router.Group("/payment-gateway-events")
	events.Get("/", ctl.ListGatewayEvents)
	events.Get("/:id", ctl.GetGatewayEventByID)
}
