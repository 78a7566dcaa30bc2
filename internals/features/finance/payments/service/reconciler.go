// file: internals/features/finance/payments/service/reconciler.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"rumahsewa_backend/internals/features/finance/payments/gateway"
	model "rumahsewa_backend/internals/features/finance/payments/model"
	invoiceModel "rumahsewa_backend/internals/features/rentals/invoices/model"
	leaseModel "rumahsewa_backend/internals/features/rentals/leases/model"
)

/* =======================================================================
   SettlementReconciler: state machine exactly-once.

   due|overdue → paid (final). Duplikat & reorder delivery diserap lewat
   conditional claim pada row invoice:

       UPDATE rent_invoices SET status='paid'
        WHERE id=? AND status<>'paid'

   Klaim pertama menang; sisanya 0 rows = no-op. Tidak ada lock global;
   invoice berbeda rekonsiliasi paralel penuh.
======================================================================= */

type SettlementReconciler struct {
	DB       *gorm.DB
	Notifier NotificationRequester
}

func NewSettlementReconciler(db *gorm.DB, notifier NotificationRequester) *SettlementReconciler {
	return &SettlementReconciler{DB: db, Notifier: notifier}
}

type ReconcileInput struct {
	TransactionRef string
	Outcome        gateway.Outcome
	AmountIDR      int
	Method         model.PaymentMethod
	Provider       model.PaymentGatewayProvider
	ProviderTxID   string
}

// Reconcile menerapkan satu notifikasi settlement terverifikasi.
// applied=false untuk ref tak dikenal, invoice sudah paid, atau outcome
// non-sukses: semuanya BUKAN error. Error hanya untuk kegagalan store
// (handler webhook membalas non-2xx supaya gateway redeliver).
func (r *SettlementReconciler) Reconcile(ctx context.Context, in ReconcileInput) (bool, error) {
	if in.TransactionRef == "" {
		return false, nil
	}

	var inv invoiceModel.RentInvoice
	if err := r.DB.WithContext(ctx).
		First(&inv, "rent_invoice_transaction_ref = ? AND rent_invoice_deleted_at IS NULL", in.TransactionRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Ref nyasar/forged adalah input adversarial yang DIHARAPKAN.
			log.Printf("[WARN] reconcile: unknown transaction_ref=%s provider=%s", in.TransactionRef, in.Provider)
			return false, nil
		}
		return false, err
	}

	// Guard idempotensi: paid bersifat absorbing.
	if inv.RentInvoiceStatus == invoiceModel.RentInvoiceStatusPaid {
		return false, nil
	}

	// Outcome failed/cancelled/pending tidak memutasi apa pun; invoice
	// tetap payable dan webhook sukses berikutnya masih bisa settle.
	if in.Outcome != gateway.OutcomeSuccess {
		return false, nil
	}

	applied := false
	now := time.Now().UTC()

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Klaim atomik; guard + write tidak bisa diselingi attempt lain.
		claim := tx.Exec(`
			UPDATE rent_invoices
			   SET rent_invoice_status     = 'paid',
			       rent_invoice_updated_at = ?
			 WHERE rent_invoice_id = ?
			   AND rent_invoice_status <> 'paid'
		`, now, inv.RentInvoiceID)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			// Kalah race dgn delivery lain utk ref yang sama: diserap.
			return nil
		}

		amount := in.AmountIDR
		if amount <= 0 {
			amount = inv.RentInvoiceAmountIDR
		}
		method := in.Method
		if method == "" {
			method = model.PaymentMethodGateway
		}

		pay := model.RentPayment{
			RentPaymentLeaseID:   inv.RentInvoiceLeaseID,
			RentPaymentInvoiceID: inv.RentInvoiceID,
			RentPaymentAmountIDR: amount,
			RentPaymentPaidAt:    now,
			RentPaymentMethod:    method,
			RentPaymentProvider:  in.Provider,
			RentPaymentStatus:    model.PaymentStatusPaid,
		}
		if in.ProviderTxID != "" {
			pay.RentPaymentProviderTxID = &in.ProviderTxID
		}
		if err := tx.Create(&pay).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			UPDATE rent_invoices
			   SET rent_invoice_payment_id = ?
			 WHERE rent_invoice_id = ?
		`, pay.RentPaymentID, inv.RentInvoiceID).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		r.notifyTenant(ctx, &inv)
	}
	return applied, nil
}

// notifyTenant: best-effort pasca-settlement; kegagalan tidak pernah
// membatalkan settlement.
func (r *SettlementReconciler) notifyTenant(ctx context.Context, inv *invoiceModel.RentInvoice) {
	if r.Notifier == nil {
		return
	}

	var lease leaseModel.Lease
	if err := r.DB.WithContext(ctx).
		First(&lease, "lease_id = ?", inv.RentInvoiceLeaseID).Error; err != nil {
		log.Printf("[WARN] reconcile: lease lookup for notification failed: %v", err)
		return
	}

	r.Notifier.Notify(
		lease.LeaseTenantUserID,
		"Pembayaran sewa diterima",
		fmt.Sprintf("Tagihan sewa periode %s sebesar Rp%d sudah lunas. Terima kasih!", inv.RentInvoicePeriod, inv.RentInvoiceAmountIDR),
		"/invoices/"+inv.RentInvoiceID.String(),
	)
}
