// file: internals/features/finance/payments/controller/webhook_controller.go
package controller

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rumahsewa_backend/internals/features/finance/payments/gateway"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	svc "rumahsewa_backend/internals/features/finance/payments/service"
	helper "rumahsewa_backend/internals/helpers"
)

/* =======================================================================
   WebhookController: pintu masuk callback payment gateway.

   Urutan per delivery (tidak boleh dibalik):
     1) resolve driver + config
     2) Authenticate atas RAW body (belum ada decode)
     3) ExtractOutcome
     4) konfirmasi server-to-server kalau driver mewajibkan
     5) Reconcile (idempotent)
     6) ack sesuai kontrak provider

   Tiap delivery dicatat ke payment_gateway_events, termasuk yang
   ditolak; log audit, bukan jalur processing.
======================================================================= */

type WebhookController struct {
	DB         *gorm.DB
	Registry   *gateway.Registry
	Reconciler *svc.SettlementReconciler
}

func NewWebhookController(db *gorm.DB, reg *gateway.Registry, rec *svc.SettlementReconciler) *WebhookController {
	return &WebhookController{DB: db, Registry: reg, Reconciler: rec}
}

// POST /webhooks/payments/:provider
func (h *WebhookController) HandleProviderWebhook(c *fiber.Ctx) error {
	provider, ok := model.KnownProvider(c.Params("provider"))
	if !ok {
		return helper.Error(c, fiber.StatusNotFound, "unknown provider")
	}
	driver, ok := h.Registry.ForProvider(provider)
	if !ok {
		return helper.Error(c, fiber.StatusNotFound, "unknown provider")
	}

	raw := c.Body()

	cfg, err := svc.GetGatewayConfig(c.UserContext(), h.DB, provider)
	if err != nil {
		if errors.Is(err, svc.ErrGatewayNotConfigured) || errors.Is(err, svc.ErrGatewayDisabled) {
			// Provider mati/tidak dikonfigurasi: tolak tanpa bocorin alasan.
			h.logEvent(c, provider, raw, nil, model.GatewayEventStatusRejected, err.Error())
			return helper.Error(c, fiber.StatusNotFound, "unknown provider")
		}
		// Store bermasalah: biarkan gateway redeliver.
		log.Printf("[ERROR] webhook %s: load config: %v", provider, err)
		return helper.Error(c, fiber.StatusInternalServerError, "temporary failure")
	}

	// ---- 1. Autentikasi raw body. Gagal = hard reject, nol mutasi. ----
	headerGet := func(k string) string { return c.Get(k) }
	if err := driver.Authenticate(cfg, headerGet, raw); err != nil {
		log.Printf("[WARN] webhook %s: auth failed: %v", provider, err)
		h.logEvent(c, provider, raw, nil, model.GatewayEventStatusRejected, err.Error())
		return helper.Error(c, fiber.StatusUnauthorized, "invalid signature")
	}

	// ---- 2. Baru boleh parse. ----
	n, err := driver.ExtractOutcome(raw)
	if err != nil {
		log.Printf("[WARN] webhook %s: malformed payload: %v", provider, err)
		h.logEvent(c, provider, raw, nil, model.GatewayEventStatusRejected, err.Error())
		return helper.Error(c, fiber.StatusBadRequest, "malformed payload")
	}

	// ---- 3. Konfirmasi untuk provider tanpa bukti kriptografis. ----
	if confirmer, ok := driver.(gateway.OutcomeConfirmer); ok {
		if err := confirmer.ConfirmOutcome(c.UserContext(), cfg, n); err != nil {
			log.Printf("[WARN] webhook %s: outcome confirmation failed ref=%s: %v", provider, n.TransactionRef, err)
			h.logEvent(c, provider, raw, &n, model.GatewayEventStatusRejected, err.Error())
			return helper.Error(c, fiber.StatusUnauthorized, "unconfirmed notification")
		}
	}

	// ---- 4. Rekonsiliasi. ----
	applied, err := h.Reconciler.Reconcile(c.UserContext(), svc.ReconcileInput{
		TransactionRef: n.TransactionRef,
		Outcome:        n.Outcome,
		AmountIDR:      n.AmountIDR,
		Method:         n.Method,
		Provider:       provider,
		ProviderTxID:   n.ProviderTxID,
	})
	if err != nil {
		// Store down: non-2xx supaya gateway redeliver nanti.
		log.Printf("[ERROR] webhook %s: reconcile ref=%s: %v", provider, n.TransactionRef, err)
		h.logEvent(c, provider, raw, &n, model.GatewayEventStatusFailed, err.Error())
		return helper.Error(c, fiber.StatusInternalServerError, "temporary failure")
	}

	status := model.GatewayEventStatusIgnored
	if applied {
		status = model.GatewayEventStatusProcessed
	}
	h.logEvent(c, provider, raw, &n, status, "")

	return h.ack(c, provider, n)
}

// ack: kontrak respons beda-beda per provider. Midtrans mengharapkan
// echo terstruktur; sisanya cukup 200 generik.
func (h *WebhookController) ack(c *fiber.Ctx, provider model.PaymentGatewayProvider, n gateway.Notification) error {
	switch provider {
	case model.GatewayProviderMidtrans:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":             "ok",
			"order_id":           n.TransactionRef,
			"transaction_status": n.RawStatus,
		})
	default:
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}

/* =======================================================================
   Event log (audit trail)
======================================================================= */

func (h *WebhookController) logEvent(
	c *fiber.Ctx,
	provider model.PaymentGatewayProvider,
	raw []byte,
	n *gateway.Notification,
	status model.GatewayEventStatus,
	errMsg string,
) {
	row := model.PaymentGatewayEvent{
		GatewayEventProvider: provider,
		GatewayEventHeaders:  headersJSON(c),
		GatewayEventPayload:  payloadJSON(raw),
		GatewayEventStatus:   status,
	}

	if sig := signatureOf(provider, c); sig != "" {
		row.GatewayEventSignature = &sig
	}
	if errMsg != "" {
		row.GatewayEventError = &errMsg
	}
	if n != nil {
		if n.RawStatus != "" {
			t := n.RawStatus
			row.GatewayEventType = &t
		}
		if n.ProviderTxID != "" {
			ref := n.ProviderTxID
			row.GatewayEventExternalRef = &ref
		}
		if id := h.invoiceIDByRef(c, n.TransactionRef); id != nil {
			row.GatewayEventInvoiceID = id
		}
	}
	if status == model.GatewayEventStatusProcessed || status == model.GatewayEventStatusIgnored {
		now := time.Now().UTC()
		row.GatewayEventProcessedAt = &now
	}

	if err := h.DB.WithContext(c.UserContext()).Create(&row).Error; err != nil {
		// Audit best-effort: jangan sampai ngegagalin ack settlement.
		log.Printf("[WARN] webhook %s: event log insert failed: %v", provider, err)
	}
}

func (h *WebhookController) invoiceIDByRef(c *fiber.Ctx, ref string) *uuid.UUID {
	if ref == "" {
		return nil
	}
	var id uuid.UUID
	err := h.DB.WithContext(c.UserContext()).
		Table("rent_invoices").
		Select("rent_invoice_id").
		Where("rent_invoice_transaction_ref = ?", ref).
		Scan(&id).Error
	if err != nil || id == uuid.Nil {
		return nil
	}
	return &id
}

// signatureOf menyalin signature dari header sesuai skema provider;
// midtrans & faspay taruh bukti di payload, bukan header. Token xendit
// adalah shared secret, jadi yang disimpan cuma digest-nya.
func signatureOf(provider model.PaymentGatewayProvider, c *fiber.Ctx) string {
	switch provider {
	case model.GatewayProviderXendit:
		if tok := c.Get("x-callback-token"); tok != "" {
			sum := sha256.Sum256([]byte(tok))
			return "sha256:" + hex.EncodeToString(sum[:])
		}
	case model.GatewayProviderNicepay:
		return c.Get("X-Signature")
	}
	return ""
}

// Header yang membawa kredensial tidak boleh ikut ke log audit.
var redactedHeaders = map[string]struct{}{
	"x-callback-token": {},
	"authorization":    {},
	"cookie":           {},
}

func headersJSON(c *fiber.Ctx) datatypes.JSON {
	flat := make(map[string]string)
	for k, vs := range c.GetReqHeaders() {
		if _, ok := redactedHeaders[strings.ToLower(k)]; ok {
			flat[k] = "[REDACTED]"
			continue
		}
		flat[k] = strings.Join(vs, ", ")
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}

// payloadJSON: kolom payload bertipe jsonb, jadi body non-JSON (XML
// faspay) dibungkus {"raw": "..."}.
func payloadJSON(raw []byte) datatypes.JSON {
	if json.Valid(raw) {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return datatypes.JSON(cp)
	}
	b, err := json.Marshal(fiber.Map{"raw": string(raw)})
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}
