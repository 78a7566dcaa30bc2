package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rumahsewa_backend/internals/features/finance/payments/gateway"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	invoiceModel "rumahsewa_backend/internals/features/rentals/invoices/model"
	leaseModel "rumahsewa_backend/internals/features/rentals/leases/model"
)

/* ===================== test fixture ===================== */

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

func seedLeaseInvoice(t *testing.T, db *gorm.DB, amount int, ref string) *invoiceModel.RentInvoice {
	t.Helper()

	lease := leaseModel.Lease{
		LeasePropertyName:   "Kost Melati",
		LeaseRoomLabel:      "A-12",
		LeaseTenantUserID:   uuid.New(),
		LeaseMonthlyRentIDR: amount,
		LeaseIsActive:       true,
	}
	if err := db.Create(&lease).Error; err != nil {
		t.Fatalf("seed lease: %v", err)
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
		t.Fatalf("seed invoice: %v", err)
	}
	return &inv
}

// stubNotifier mencatat panggilan notifikasi untuk diverifikasi test.
type stubNotifier struct {
	calls []uuid.UUID
}

func (s *stubNotifier) Notify(userID uuid.UUID, title, message, linkHint string) {
	s.calls = append(s.calls, userID)
}

func reloadInvoice(t *testing.T, db *gorm.DB, id uuid.UUID) *invoiceModel.RentInvoice {
	t.Helper()
	var inv invoiceModel.RentInvoice
	if err := db.First(&inv, "rent_invoice_id = ?", id).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	return &inv
}

func countPayments(t *testing.T, db *gorm.DB, invoiceID uuid.UUID) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.RentPayment{}).
		Where("rent_payment_invoice_id = ?", invoiceID).
		Count(&n).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	return n
}

/* ===================== tests ===================== */

func TestReconcileAppliesSettlementOnce(t *testing.T) {
	db := openTestDB(t)
	notifier := &stubNotifier{}
	r := NewSettlementReconciler(db, notifier)

	inv := seedLeaseInvoice(t, db, 500000, "RENT-A")

	in := ReconcileInput{
		TransactionRef: "RENT-A",
		Outcome:        gateway.OutcomeSuccess,
		AmountIDR:      500000,
		Method:         model.PaymentMethodQRIS,
		Provider:       model.GatewayProviderMidtrans,
		ProviderTxID:   "mid-1",
	}

	applied, err := r.Reconcile(context.Background(), in)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !applied {
		t.Fatal("settlement pertama harus applied")
	}

	got := reloadInvoice(t, db, inv.RentInvoiceID)
	if got.RentInvoiceStatus != invoiceModel.RentInvoiceStatusPaid {
		t.Errorf("status = %s, want paid", got.RentInvoiceStatus)
	}
	if got.RentInvoicePaymentID == nil {
		t.Error("payment_id tidak terisi")
	}
	if n := countPayments(t, db, inv.RentInvoiceID); n != 1 {
		t.Errorf("payment rows = %d, want 1", n)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("notifikasi terkirim %d kali, want 1", len(notifier.calls))
	}

	// Delivery duplikat (retry provider): diserap tanpa error, tanpa row baru.
	applied, err = r.Reconcile(context.Background(), in)
	if err != nil {
		t.Fatalf("reconcile duplikat: %v", err)
	}
	if applied {
		t.Error("duplikat tidak boleh applied")
	}
	if n := countPayments(t, db, inv.RentInvoiceID); n != 1 {
		t.Errorf("payment rows setelah duplikat = %d, want 1", n)
	}
	if len(notifier.calls) != 1 {
		t.Errorf("duplikat memicu notifikasi lagi: %d", len(notifier.calls))
	}
}

func TestReconcileOrderIndependent(t *testing.T) {
	db := openTestDB(t)
	r := NewSettlementReconciler(db, nil)

	inv := seedLeaseInvoice(t, db, 750000, "RENT-B")

	// failed datang SETELAH success (reorder jaringan): hasil akhir tetap paid.
	success := ReconcileInput{
		TransactionRef: "RENT-B",
		Outcome:        gateway.OutcomeSuccess,
		AmountIDR:      750000,
		Provider:       model.GatewayProviderXendit,
		ProviderTxID:   "xnd-1",
	}
	failed := success
	failed.Outcome = gateway.OutcomeFailed

	if applied, err := r.Reconcile(context.Background(), success); err != nil || !applied {
		t.Fatalf("success: applied=%v err=%v", applied, err)
	}
	if applied, err := r.Reconcile(context.Background(), failed); err != nil || applied {
		t.Fatalf("failed setelah paid: applied=%v err=%v", applied, err)
	}

	got := reloadInvoice(t, db, inv.RentInvoiceID)
	if got.RentInvoiceStatus != invoiceModel.RentInvoiceStatusPaid {
		t.Errorf("paid harus final, status = %s", got.RentInvoiceStatus)
	}
}

func TestReconcileNonSuccessKeepsInvoicePayable(t *testing.T) {
	db := openTestDB(t)
	r := NewSettlementReconciler(db, nil)

	inv := seedLeaseInvoice(t, db, 600000, "RENT-C")

	for _, outcome := range []gateway.Outcome{gateway.OutcomePending, gateway.OutcomeFailed} {
		applied, err := r.Reconcile(context.Background(), ReconcileInput{
			TransactionRef: "RENT-C",
			Outcome:        outcome,
			Provider:       model.GatewayProviderNicepay,
		})
		if err != nil {
			t.Fatalf("%s: %v", outcome, err)
		}
		if applied {
			t.Errorf("%s tidak boleh applied", outcome)
		}
	}

	got := reloadInvoice(t, db, inv.RentInvoiceID)
	if got.RentInvoiceStatus != invoiceModel.RentInvoiceStatusDue {
		t.Errorf("invoice harus tetap due, status = %s", got.RentInvoiceStatus)
	}

	// Success susulan tetap bisa settle.
	applied, err := r.Reconcile(context.Background(), ReconcileInput{
		TransactionRef: "RENT-C",
		Outcome:        gateway.OutcomeSuccess,
		AmountIDR:      600000,
		Provider:       model.GatewayProviderNicepay,
	})
	if err != nil || !applied {
		t.Fatalf("success susulan: applied=%v err=%v", applied, err)
	}
}

func TestReconcileUnknownRefIsNoop(t *testing.T) {
	db := openTestDB(t)
	r := NewSettlementReconciler(db, nil)

	seedLeaseInvoice(t, db, 500000, "RENT-D")

	applied, err := r.Reconcile(context.Background(), ReconcileInput{
		TransactionRef: "RENT-FORGED",
		Outcome:        gateway.OutcomeSuccess,
		AmountIDR:      500000,
		Provider:       model.GatewayProviderMidtrans,
	})
	if err != nil {
		t.Fatalf("ref tak dikenal harus no-op tanpa error: %v", err)
	}
	if applied {
		t.Error("ref tak dikenal tidak boleh applied")
	}

	var n int64
	if err := db.Model(&model.RentPayment{}).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("payment rows = %d, want 0", n)
	}
}

func TestReconcileEmptyRefIsNoop(t *testing.T) {
	db := openTestDB(t)
	r := NewSettlementReconciler(db, nil)

	applied, err := r.Reconcile(context.Background(), ReconcileInput{
		TransactionRef: "",
		Outcome:        gateway.OutcomeSuccess,
	})
	if err != nil || applied {
		t.Fatalf("ref kosong: applied=%v err=%v", applied, err)
	}
}

func TestReconcileFallbackAmountAndMethod(t *testing.T) {
	db := openTestDB(t)
	r := NewSettlementReconciler(db, nil)

	inv := seedLeaseInvoice(t, db, 825000, "RENT-E")

	// Provider tidak mengirim amount/method: pakai nominal invoice + gateway.
	applied, err := r.Reconcile(context.Background(), ReconcileInput{
		TransactionRef: "RENT-E",
		Outcome:        gateway.OutcomeSuccess,
		Provider:       model.GatewayProviderFaspay,
	})
	if err != nil || !applied {
		t.Fatalf("applied=%v err=%v", applied, err)
	}

	var pay model.RentPayment
	if err := db.First(&pay, "rent_payment_invoice_id = ?", inv.RentInvoiceID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if pay.RentPaymentAmountIDR != 825000 {
		t.Errorf("amount fallback = %d, want 825000", pay.RentPaymentAmountIDR)
	}
	if pay.RentPaymentMethod != model.PaymentMethodGateway {
		t.Errorf("method fallback = %s, want gateway", pay.RentPaymentMethod)
	}
	if pay.RentPaymentStatus != model.PaymentStatusPaid {
		t.Errorf("payment status = %s, want paid", pay.RentPaymentStatus)
	}
}
