package controller

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rumahsewa_backend/internals/features/finance/payments/gateway"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	svc "rumahsewa_backend/internals/features/finance/payments/service"
	invoiceModel "rumahsewa_backend/internals/features/rentals/invoices/model"
	leaseModel "rumahsewa_backend/internals/features/rentals/leases/model"
)

/* ===================== fixture ===================== */

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&leaseModel.Lease{},
		&invoiceModel.RentInvoice{},
		&model.RentPayment{},
		&model.PaymentGatewayConfig{},
		&model.PaymentGatewayEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newWebhookApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	ctl := NewWebhookController(db, gateway.NewRegistry(), svc.NewSettlementReconciler(db, nil))
	app.Post("/webhooks/payments/:provider", ctl.HandleProviderWebhook)
	return app
}

func seedInvoice(t *testing.T, db *gorm.DB, amount int, ref string) *invoiceModel.RentInvoice {
	t.Helper()
	lease := leaseModel.Lease{
		LeasePropertyName:   "Kost Melati",
		LeaseTenantUserID:   uuid.New(),
		LeaseMonthlyRentIDR: amount,
		LeaseIsActive:       true,
	}
	if err := db.Create(&lease).Error; err != nil {
		t.Fatal(err)
	}
	inv := invoiceModel.RentInvoice{
		RentInvoiceLeaseID:   lease.LeaseID,
		RentInvoiceAmountIDR: amount,
		RentInvoicePeriod:    "2026-08",
		RentInvoiceDueDate:   time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		RentInvoiceStatus:    invoiceModel.RentInvoiceStatusDue,
	}
	if ref != "" {
		inv.RentInvoiceTransactionRef = &ref
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatal(err)
	}
	return &inv
}

func seedConfig(t *testing.T, db *gorm.DB, provider model.PaymentGatewayProvider, apiKey, apiSecret string, vendor *string, meta gateway.ConfigMeta) {
	t.Helper()
	mb, _ := json.Marshal(meta)
	cfg := model.PaymentGatewayConfig{
		GatewayConfigProvider:  provider,
		GatewayConfigAPIKey:    apiKey,
		GatewayConfigAPISecret: apiSecret,
		GatewayConfigVendor:    vendor,
		GatewayConfigIsEnabled: true,
		GatewayConfigMeta:      datatypes.JSON(mb),
	}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatal(err)
	}
}

func postWebhook(t *testing.T, app *fiber.App, provider string, body []byte, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments/"+provider, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func invoiceStatus(t *testing.T, db *gorm.DB, id uuid.UUID) invoiceModel.RentInvoiceStatus {
	t.Helper()
	var inv invoiceModel.RentInvoice
	if err := db.First(&inv, "rent_invoice_id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return inv.RentInvoiceStatus
}

func lastEventStatus(t *testing.T, db *gorm.DB) model.GatewayEventStatus {
	t.Helper()
	var ev model.PaymentGatewayEvent
	if err := db.Order("gateway_event_received_at DESC").First(&ev).Error; err != nil {
		t.Fatal(err)
	}
	return ev.GatewayEventStatus
}

/* ===================== tests ===================== */

func TestWebhookInvalidTokenRejectedNoStateChange(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 500000, "RENT-W1")
	seedConfig(t, db, model.GatewayProviderXendit, "key", "token-benar", nil, gateway.ConfigMeta{})

	body := []byte(`{"id":"x1","external_id":"RENT-W1","status":"PAID","paid_amount":500000}`)
	resp := postWebhook(t, app, "xendit", body, map[string]string{"x-callback-token": "token-salah"})

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusDue {
		t.Errorf("invoice berubah jadi %s padahal webhook ditolak", got)
	}

	var nPay int64
	_ = db.Model(&model.RentPayment{}).Count(&nPay).Error
	if nPay != 0 {
		t.Errorf("payment rows = %d, want 0", nPay)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusRejected {
		t.Errorf("event status = %s, want rejected", got)
	}
}

func TestWebhookSettlesThenAbsorbsDuplicate(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 500000, "RENT-W2")
	seedConfig(t, db, model.GatewayProviderXendit, "key", "token-benar", nil, gateway.ConfigMeta{})

	body := []byte(`{"id":"x2","external_id":"RENT-W2","status":"PAID","paid_amount":500000,"payment_method":"QRIS"}`)
	hdr := map[string]string{"x-callback-token": "token-benar"}

	resp := postWebhook(t, app, "xendit", body, hdr)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("delivery pertama: status = %d", resp.StatusCode)
	}
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusPaid {
		t.Fatalf("invoice status = %s, want paid", got)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusProcessed {
		t.Errorf("event status = %s, want processed", got)
	}

	// Retry dari provider: tetap 200, tanpa payment kedua.
	resp = postWebhook(t, app, "xendit", body, hdr)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("delivery duplikat: status = %d", resp.StatusCode)
	}
	var nPay int64
	_ = db.Model(&model.RentPayment{}).Where("rent_payment_invoice_id = ?", inv.RentInvoiceID).Count(&nPay).Error
	if nPay != 1 {
		t.Errorf("payment rows = %d, want 1", nPay)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusIgnored {
		t.Errorf("event duplikat status = %s, want ignored", got)
	}
}

func TestWebhookMidtransEchoAck(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 750000, "RENT-W3")
	seedConfig(t, db, model.GatewayProviderMidtrans, "client", "server-key", nil, gateway.ConfigMeta{})

	sum := sha512.Sum512([]byte("RENT-W3" + "200" + "750000.00" + "server-key"))
	body := []byte(fmt.Sprintf(`{
		"order_id": "RENT-W3",
		"status_code": "200",
		"gross_amount": "750000.00",
		"transaction_status": "settlement",
		"payment_type": "bank_transfer",
		"transaction_id": "mid-w3",
		"signature_key": "%s"
	}`, hex.EncodeToString(sum[:])))

	resp := postWebhook(t, app, "midtrans", body, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var echo map[string]any
	if err := json.Unmarshal(raw, &echo); err != nil {
		t.Fatalf("ack bukan JSON: %v", err)
	}
	if echo["order_id"] != "RENT-W3" || echo["transaction_status"] != "settlement" {
		t.Errorf("echo ack salah: %s", raw)
	}
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusPaid {
		t.Errorf("invoice status = %s, want paid", got)
	}
}

func TestWebhookFaspayConfirmedBeforeTrusted(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 750000, "RENT-W4")

	inquiryStatus := "2"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response_code":       "00",
			"payment_status_code": inquiryStatus,
		})
	}))
	defer srv.Close()

	vendor := "34999"
	seedConfig(t, db, model.GatewayProviderFaspay, "bot34999", "p@ssw0rd", &vendor, gateway.ConfigMeta{Endpoint: srv.URL})

	body := []byte(`<?xml version="1.0"?>
<faspay>
  <request>Payment Notification</request>
  <trx_id>349990001</trx_id>
  <merchant_id>34999</merchant_id>
  <bill_no>RENT-W4</bill_no>
  <payment_status_code>2</payment_status_code>
  <payment_total>75000000</payment_total>
</faspay>`)

	resp := postWebhook(t, app, "faspay", body, map[string]string{"Content-Type": "text/xml"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusPaid {
		t.Fatalf("invoice status = %s, want paid", got)
	}
}

func TestWebhookFaspayInquiryMismatchRejected(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 750000, "RENT-W5")

	// Inquiry bilang transaksi masih unprocessed: callback "sukses" bohong.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response_code":       "00",
			"payment_status_code": "0",
		})
	}))
	defer srv.Close()

	vendor := "34999"
	seedConfig(t, db, model.GatewayProviderFaspay, "bot34999", "p@ssw0rd", &vendor, gateway.ConfigMeta{Endpoint: srv.URL})

	body := []byte(`<?xml version="1.0"?>
<faspay>
  <trx_id>349990002</trx_id>
  <merchant_id>34999</merchant_id>
  <bill_no>RENT-W5</bill_no>
  <payment_status_code>2</payment_status_code>
  <payment_total>75000000</payment_total>
</faspay>`)

	resp := postWebhook(t, app, "faspay", body, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusDue {
		t.Errorf("invoice berubah jadi %s padahal konfirmasi gagal", got)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusRejected {
		t.Errorf("event status = %s, want rejected", got)
	}
}

func TestWebhookUnknownProvider(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	resp := postWebhook(t, app, "dompetku", []byte(`{}`), nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWebhookStoreFailureTriggersRedelivery(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	inv := seedInvoice(t, db, 500000, "RENT-W6")
	seedConfig(t, db, model.GatewayProviderXendit, "key", "token-benar", nil, gateway.ConfigMeta{})

	// Simulasi store rusak di tengah reconcile: insert payment pasti gagal.
	if err := db.Migrator().DropTable(&model.RentPayment{}); err != nil {
		t.Fatal(err)
	}

	body := []byte(`{"id":"x6","external_id":"RENT-W6","status":"PAID","paid_amount":500000}`)
	resp := postWebhook(t, app, "xendit", body, map[string]string{"x-callback-token": "token-benar"})

	// Non-2xx supaya gateway redeliver setelah store pulih.
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	// Klaim harus di-rollback: invoice tetap payable untuk delivery ulang.
	if got := invoiceStatus(t, db, inv.RentInvoiceID); got != invoiceModel.RentInvoiceStatusDue {
		t.Errorf("invoice status = %s, want due (rollback)", got)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusFailed {
		t.Errorf("event status = %s, want failed", got)
	}
}

func TestWebhookAuditNeverStoresSharedSecret(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	seedInvoice(t, db, 500000, "RENT-W7")
	seedConfig(t, db, model.GatewayProviderXendit, "key", "token-rahasia-sekali", nil, gateway.ConfigMeta{})

	body := []byte(`{"id":"x7","external_id":"RENT-W7","status":"PAID","paid_amount":500000}`)
	resp := postWebhook(t, app, "xendit", body, map[string]string{"x-callback-token": "token-rahasia-sekali"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var ev model.PaymentGatewayEvent
	if err := db.Order("gateway_event_received_at DESC").First(&ev).Error; err != nil {
		t.Fatal(err)
	}
	if ev.GatewayEventSignature == nil || !strings.HasPrefix(*ev.GatewayEventSignature, "sha256:") {
		t.Errorf("signature harus digest, bukan token: %v", ev.GatewayEventSignature)
	}
	if ev.GatewayEventSignature != nil && strings.Contains(*ev.GatewayEventSignature, "token-rahasia-sekali") {
		t.Error("token cleartext bocor ke kolom signature")
	}
	if strings.Contains(string(ev.GatewayEventHeaders), "token-rahasia-sekali") {
		t.Error("token cleartext bocor ke headers audit")
	}
}

func TestWebhookUnknownRefStillAcked(t *testing.T) {
	db := openTestDB(t)
	app := newWebhookApp(db)

	seedConfig(t, db, model.GatewayProviderXendit, "key", "token-benar", nil, gateway.ConfigMeta{})

	// Ref yang tidak pernah kami mint: jawab 200 (bukan error server),
	// supaya provider tidak retry selamanya; dicatat sebagai ignored.
	body := []byte(`{"id":"x9","external_id":"RENT-FORGED","status":"PAID","paid_amount":1}`)
	resp := postWebhook(t, app, "xendit", body, map[string]string{"x-callback-token": "token-benar"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := lastEventStatus(t, db); got != model.GatewayEventStatusIgnored {
		t.Errorf("event status = %s, want ignored", got)
	}

	var nPay int64
	_ = db.Model(&model.RentPayment{}).Count(&nPay).Error
	if nPay != 0 {
		t.Errorf("payment rows = %d, want 0", nPay)
	}
}
