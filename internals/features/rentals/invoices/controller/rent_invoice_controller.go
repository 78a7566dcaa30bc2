// file: internals/features/rentals/invoices/controller/rent_invoice_controller.go
package controller

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "rumahsewa_backend/internals/features/rentals/invoices/dto"
	model "rumahsewa_backend/internals/features/rentals/invoices/model"
	leaseModel "rumahsewa_backend/internals/features/rentals/leases/model"
	helper "rumahsewa_backend/internals/helpers"
	authmw "rumahsewa_backend/internals/middlewares/auth"
)

type RentInvoiceController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewRentInvoiceController(db *gorm.DB) *RentInvoiceController {
	return &RentInvoiceController{DB: db, Validator: validator.New()}
}

/* =======================================================================
   ADMIN
======================================================================= */

// POST /invoices: buat tagihan bulanan manual (generator otomatis
// memakai jalur service yang sama).
func (h *RentInvoiceController) CreateInvoice(c *fiber.Ctx) error {
	var req dto.CreateRentInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid json: "+err.Error())
	}
	if err := h.Validator.Struct(req); err != nil {
		return helper.ValidationError(c, err)
	}

	leaseID, err := uuid.Parse(req.LeaseID)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid lease_id")
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "period harus format YYYY-MM")
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "due_date harus format YYYY-MM-DD")
	}

	var lease leaseModel.Lease
	if err := h.DB.WithContext(c.UserContext()).
		First(&lease, "lease_id = ? AND lease_deleted_at IS NULL", leaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "lease not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	if !lease.LeaseIsActive {
		return helper.Error(c, fiber.StatusBadRequest, "lease sudah tidak aktif")
	}

	// Satu tagihan per lease per periode.
	var dupe int64
	if err := h.DB.WithContext(c.UserContext()).
		Model(&model.RentInvoice{}).
		Where("rent_invoice_lease_id = ? AND rent_invoice_period = ? AND rent_invoice_deleted_at IS NULL", leaseID, req.Period).
		Count(&dupe).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	if dupe > 0 {
		return helper.Error(c, fiber.StatusConflict, "tagihan periode ini sudah ada")
	}

	inv := model.RentInvoice{
		RentInvoiceLeaseID:   leaseID,
		RentInvoiceAmountIDR: req.AmountIDR,
		RentInvoicePeriod:    req.Period,
		RentInvoiceDueDate:   dueDate,
		RentInvoiceStatus:    model.RentInvoiceStatusDue,
	}
	if err := h.DB.WithContext(c.UserContext()).Create(&inv).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Tagihan dibuat", dto.FromInvoiceModel(&inv))
}

// GET /invoices?status=&lease_id=&page=&limit=
func (h *RentInvoiceController) ListInvoices(c *fiber.Ctx) error {
	page := clampInt(queryInt(c, "page", 1), 1, 100000)
	limit := clampInt(queryInt(c, "limit", 20), 1, 100)

	q := h.DB.WithContext(c.UserContext()).
		Model(&model.RentInvoice{}).
		Where("rent_invoice_deleted_at IS NULL")

	if s := c.Query("status"); s != "" {
		q = q.Where("rent_invoice_status = ?", s)
	}
	if l := c.Query("lease_id"); l != "" {
		id, err := uuid.Parse(l)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "invalid lease_id")
		}
		q = q.Where("rent_invoice_lease_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	var rows []model.RentInvoice
	if err := q.
		Order("rent_invoice_due_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]*dto.RentInvoiceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromInvoiceModel(&rows[i]))
	}

	return helper.Success(c, "OK", fiber.Map{
		"invoices": out,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

/* =======================================================================
   PENYEWA
======================================================================= */

// GET /invoices: tagihan milik penyewa login.
func (h *RentInvoiceController) ListMyInvoices(c *fiber.Ctx) error {
	userID := authmw.UserID(c)
	if userID == uuid.Nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	q := h.DB.WithContext(c.UserContext()).
		Model(&model.RentInvoice{}).
		Joins("JOIN leases ON leases.lease_id = rent_invoices.rent_invoice_lease_id").
		Where("leases.lease_tenant_user_id = ?", userID).
		Where("rent_invoices.rent_invoice_deleted_at IS NULL")

	if s := c.Query("status"); s != "" {
		q = q.Where("rent_invoices.rent_invoice_status = ?", s)
	}

	var rows []model.RentInvoice
	if err := q.
		Order("rent_invoices.rent_invoice_due_date DESC").
		Limit(100).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]*dto.RentInvoiceResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromInvoiceModel(&rows[i]))
	}
	return helper.Success(c, "OK", out)
}

// GET /invoices/:id: detail, hanya kalau invoice memang milik penyewa.
func (h *RentInvoiceController) GetMyInvoiceByID(c *fiber.Ctx) error {
	userID := authmw.UserID(c)
	if userID == uuid.Nil {
		return helper.Error(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	var m model.RentInvoice
	if err := h.DB.WithContext(c.UserContext()).
		Joins("JOIN leases ON leases.lease_id = rent_invoices.rent_invoice_lease_id").
		Where("leases.lease_tenant_user_id = ?", userID).
		First(&m, "rent_invoices.rent_invoice_id = ? AND rent_invoices.rent_invoice_deleted_at IS NULL", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "invoice not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", dto.FromInvoiceModel(&m))
}

/* ===================== util kecil ===================== */

func queryInt(c *fiber.Ctx, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
