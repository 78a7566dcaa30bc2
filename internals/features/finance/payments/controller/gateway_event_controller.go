// file: internals/features/finance/payments/controller/gateway_event_controller.go
package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	dto "rumahsewa_backend/internals/features/finance/payments/dto"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	helper "rumahsewa_backend/internals/helpers"
)

// GatewayEventController: baca log webhook buat audit/debug admin.
// Read-only; event ditulis oleh jalur webhook, bukan dari sini.
type GatewayEventController struct {
	DB *gorm.DB
}

func NewGatewayEventController(db *gorm.DB) *GatewayEventController {
	return &GatewayEventController{DB: db}
}

// GET /payment-gateway-events?provider=&status=&invoice_id=&page=&limit=
func (h *GatewayEventController) ListGatewayEvents(c *fiber.Ctx) error {
	page := clampInt(queryInt(c, "page", 1), 1, 100000)
	limit := clampInt(queryInt(c, "limit", 20), 1, 100)

	q := h.DB.WithContext(c.UserContext()).Model(&model.PaymentGatewayEvent{})

	if p := c.Query("provider"); p != "" {
		provider, ok := model.KnownProvider(p)
		if !ok {
			return helper.Error(c, fiber.StatusBadRequest, "unknown provider")
		}
		q = q.Where("gateway_event_provider = ?", provider)
	}
	if s := c.Query("status"); s != "" {
		q = q.Where("gateway_event_status = ?", s)
	}
	if inv := c.Query("invoice_id"); inv != "" {
		id, err := uuid.Parse(inv)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "invalid invoice_id")
		}
		q = q.Where("gateway_event_invoice_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	var rows []model.PaymentGatewayEvent
	if err := q.
		Order("gateway_event_received_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}

	out := make([]*dto.PaymentGatewayEventResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.FromGatewayEventModel(&rows[i]))
	}

	return helper.Success(c, "OK", fiber.Map{
		"events": out,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GET /payment-gateway-events/:id
func (h *GatewayEventController) GetGatewayEventByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "invalid id")
	}

	var m model.PaymentGatewayEvent
	if err := h.DB.WithContext(c.UserContext()).
		First(&m, "gateway_event_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "event not found")
		}
		return helper.Error(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.Success(c, "OK", dto.FromGatewayEventModel(&m))
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
