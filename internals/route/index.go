// file: internals/route/index.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"rumahsewa_backend/internals/configs"
	paymentRoute "rumahsewa_backend/internals/features/finance/payments/route"
	invoiceRoute "rumahsewa_backend/internals/features/rentals/invoices/route"
	authmw "rumahsewa_backend/internals/middlewares/auth"
)

/* =======================================================================
   Route map:

     /webhooks/...   publik; autentikasi per provider di controller
     /api/u/...      penyewa login (JWT)
     /api/a/...      admin/owner (JWT + role)
======================================================================= */

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// ---------- Webhook (tanpa JWT) ----------
	webhooks := app.Group("/webhooks")
	paymentRoute.PaymentWebhookRoutes(webhooks, db)

	jwt := authmw.AuthJWT(authmw.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	})

	// ---------- Penyewa ----------
	user := app.Group("/api/u", jwt)
	paymentRoute.PaymentUserRoutes(user, db)
	invoiceRoute.InvoiceUserRoutes(user, db)

	// ---------- Admin / pemilik ----------
	admin := app.Group("/api/a", jwt, authmw.RequireRolesGlobal("admin", "owner"))
	paymentRoute.PaymentAdminRoutes(admin, db)
	invoiceRoute.InvoiceAdminRoutes(admin, db)
}
