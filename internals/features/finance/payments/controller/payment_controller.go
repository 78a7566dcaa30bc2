// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "rumahsewa_backend/internals/features/finance/payments/dto"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	svc "rumahsewa_backend/internals/features/finance/payments/service"
	helper "rumahsewa_backend/internals/helpers"
	authmw "rumahsewa_backend/internals/middlewares/auth"
)

/* =======================================================================
   Controller: inisiasi pembayaran + riwayat payment penyewa
======================================================================= */

type PaymentController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Initiator *svc.PaymentInitiator
}

func NewPaymentController(db *gorm.DB, initiator *svc.PaymentInitiator) *PaymentController {
	return &PaymentController{
		DB:        db,
		Validator: validator.New(),
		Initiator: initiator,
	}
}

// POST /payments/initiate
func (h *PaymentController) InitiatePayment(c *fiber.Ctx) error {
	var req dto.InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid invoice_id")
	}
	provider, ok := model.KnownProvider(req.Provider)
	if !ok {
		return helper.Error(c, fiber.StatusBadRequest, "unknown provider")
	}

	in := svc.InitiateInput{
		InvoiceID: invoiceID,
		AmountIDR: req.AmountIDR,
		Provider:  provider,
	}
	// snapshot nama/email dari claims (best-effort, buat checkout page)
	if claims, ok := c.Locals("jwt_claims").(jwt.MapClaims); ok {
		if v, ok := claims["name"].(string); ok {
			in.CustomerName = v
		}
		if v, ok := claims["email"].(string); ok {
			in.CustomerEmail = v
		}
	}

	res, err := h.Initiator.Initiate(c.UserContext(), in)
	if err != nil {
		return mapInitiateError(c, err)
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Checkout dibuat", dto.InitiatePaymentResponse{
		RedirectURL:    res.RedirectURL,
		TransactionRef: res.TransactionRef,
	})
}

func mapInitiateError(c *fiber.Ctx, err error) error {
	var gwErr *svc.GatewayError
	switch {
	case errors.Is(err, svc.ErrInvoiceNotFound):
		return helper.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, svc.ErrInvoiceAlreadyPaid),
		errors.Is(err, svc.ErrAmountMismatch),
		errors.Is(err, svc.ErrUnknownProvider),
		errors.Is(err, svc.ErrGatewayNotConfigured),
		errors.Is(err, svc.ErrGatewayDisabled):
		return helper.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &gwErr):
		return helper.Error(c, fiber.StatusBadGateway, gwErr.Error())
	}
	return helper.Error(c, fiber.StatusInternalServerError, err.Error())
}

// GET /payments/my: riwayat pembayaran milik penyewa login
func (h *PaymentController) ListMyPayments(c *fiber.Ctx) error {
	userID := authmw.UserID(c)
	if userID == uuid.Nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var rows []model.RentPayment
	if err := h.DB.WithContext(c.UserContext()).
		Joins("JOIN leases ON leases.lease_id = rent_payments.rent_payment_lease_id").
		Where("leases.lease_tenant_user_id = ?", userID).
		Order("rent_payments.rent_payment_paid_at DESC").
		Limit(100).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]*dto.RentPaymentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromPaymentModel(&rows[i]))
	}
	return helper.Success(c, "OK", out)
}

// GET /payments/:id
func (h *PaymentController) GetPaymentByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	var m model.RentPayment
	if err := h.DB.WithContext(c.UserContext()).
		First(&m, "rent_payment_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "payment not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", dto.FromPaymentModel(&m))
}
