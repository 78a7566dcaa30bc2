// file: internals/features/finance/payments/service/initiator.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rumahsewa_backend/internals/features/finance/payments/gateway"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	invoiceModel "rumahsewa_backend/internals/features/rentals/invoices/model"
)

/* =======================================================================
   PaymentInitiator
   Inisiasi BUKAN settlement: satu kali tulis transaction_ref per call,
   tanpa Payment row dan tanpa perubahan status. Ref dipersist SEBELUM
   call keluar supaya webhook yang datang mendahului response HTTP
   tetap bisa di-match.
======================================================================= */

type PaymentInitiator struct {
	DB       *gorm.DB
	Registry *gateway.Registry
	BaseURL  string // dasar callback URL webhook per provider
}

func NewPaymentInitiator(db *gorm.DB, reg *gateway.Registry, baseURL string) *PaymentInitiator {
	return &PaymentInitiator{DB: db, Registry: reg, BaseURL: strings.TrimRight(baseURL, "/")}
}

type InitiateInput struct {
	InvoiceID uuid.UUID
	AmountIDR int
	Provider  model.PaymentGatewayProvider

	CustomerName  string
	CustomerEmail string
}

type InitiateResult struct {
	RedirectURL    string
	TransactionRef string
}

func (s *PaymentInitiator) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	var res InitiateResult

	driver, ok := s.Registry.ForProvider(in.Provider)
	if !ok {
		return res, ErrUnknownProvider
	}

	var inv invoiceModel.RentInvoice
	if err := s.DB.WithContext(ctx).
		First(&inv, "rent_invoice_id = ? AND rent_invoice_deleted_at IS NULL", in.InvoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return res, ErrInvoiceNotFound
		}
		return res, err
	}
	if inv.RentInvoiceStatus == invoiceModel.RentInvoiceStatusPaid {
		return res, ErrInvoiceAlreadyPaid
	}
	if in.AmountIDR <= 0 || in.AmountIDR != inv.RentInvoiceAmountIDR {
		return res, ErrAmountMismatch
	}

	// Precondition config dicek SEBELUM ada call keluar.
	cfg, err := GetGatewayConfig(ctx, s.DB, in.Provider)
	if err != nil {
		return res, err
	}

	ref := GenTransactionRef("RENT")

	// Persist ref dulu; retry inisiasi boleh menimpa ref lama selama
	// invoice belum paid (ref lama jadi stale dan aman diabaikan reconciler).
	claim := s.DB.WithContext(ctx).Exec(`
		UPDATE rent_invoices
		   SET rent_invoice_transaction_ref = ?,
		       rent_invoice_updated_at      = ?
		 WHERE rent_invoice_id = ?
		   AND rent_invoice_status <> 'paid'
		   AND rent_invoice_deleted_at IS NULL
	`, ref, time.Now().UTC(), inv.RentInvoiceID)
	if claim.Error != nil {
		return res, claim.Error
	}
	if claim.RowsAffected == 0 {
		return res, ErrInvoiceAlreadyPaid
	}

	redirectURL, err := driver.CreateCheckout(ctx, cfg, gateway.CheckoutInput{
		TransactionRef: ref,
		AmountIDR:      in.AmountIDR,
		Description:    fmt.Sprintf("Sewa %s", inv.RentInvoicePeriod),
		CallbackURL:    s.BaseURL + "/webhooks/payments/" + string(in.Provider),
		CustomerName:   in.CustomerName,
		CustomerEmail:  in.CustomerEmail,
	})
	if err != nil {
		// timeout/error provider = GatewayError; invoice tetap menunggu
		// webhook susulan atau retry dari penyewa.
		return res, &GatewayError{Provider: in.Provider, Err: err}
	}

	res.RedirectURL = redirectURL
	res.TransactionRef = ref
	return res, nil
}

// GenTransactionRef membuat ref unik: <prefix>-<yyyymmdd-hhmmss>-<UUID8>.
// Keunikan (bukan kerahasiaan) yang diandalkan reconciler; autentikasi
// webhook ditangani per provider.
func GenTransactionRef(prefix string) string {
	now := time.Now().UTC().Format("20060102-150405")
	u := uuid.New().String()
	if len(u) > 8 {
		u = u[:8]
	}
	return prefix + "-" + now + "-" + strings.ToUpper(u)
}
