// file: internals/features/rentals/invoices/model/rent_invoice_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   ENUM mirror (harus cocok dgn DB)
================================ */

type RentInvoiceStatus string

const (
	RentInvoiceStatusDue     RentInvoiceStatus = "due"
	RentInvoiceStatusOverdue RentInvoiceStatus = "overdue"
	RentInvoiceStatusPaid    RentInvoiceStatus = "paid"
)

/* ================================
   MODEL: rent_invoices
   - Dibuat oleh generator tagihan bulanan (modul lain).
   - transaction_ref diisi SEKALI oleh PaymentInitiator.
   - status & payment_id hanya ditulis oleh SettlementReconciler;
     'paid' bersifat final (tidak pernah mundur).
================================ */

type RentInvoice struct {
	RentInvoiceID      uuid.UUID `json:"rent_invoice_id" gorm:"column:rent_invoice_id;type:uuid;primaryKey"`
	RentInvoiceLeaseID uuid.UUID `json:"rent_invoice_lease_id" gorm:"column:rent_invoice_lease_id;type:uuid;not null;index"`

	RentInvoiceAmountIDR int       `json:"rent_invoice_amount_idr" gorm:"column:rent_invoice_amount_idr;type:int;not null;check:rent_invoice_amount_idr>0"`
	RentInvoicePeriod    string    `json:"rent_invoice_period"     gorm:"column:rent_invoice_period;type:varchar(7);not null"` // YYYY-MM
	RentInvoiceDueDate   time.Time `json:"rent_invoice_due_date"   gorm:"column:rent_invoice_due_date;type:date;not null"`

	RentInvoiceStatus RentInvoiceStatus `json:"rent_invoice_status" gorm:"column:rent_invoice_status;type:varchar(16);not null;default:'due'"`

	// Korelasi gateway: unik begitu terisi, kunci idempotensi webhook.
	RentInvoiceTransactionRef *string    `json:"rent_invoice_transaction_ref" gorm:"column:rent_invoice_transaction_ref;type:text;uniqueIndex"`
	RentInvoicePaymentID      *uuid.UUID `json:"rent_invoice_payment_id"      gorm:"column:rent_invoice_payment_id;type:uuid"`

	RentInvoiceCreatedAt time.Time  `json:"rent_invoice_created_at" gorm:"column:rent_invoice_created_at;not null;autoCreateTime"`
	RentInvoiceUpdatedAt time.Time  `json:"rent_invoice_updated_at" gorm:"column:rent_invoice_updated_at;not null;autoUpdateTime"`
	RentInvoiceDeletedAt *time.Time `json:"rent_invoice_deleted_at" gorm:"column:rent_invoice_deleted_at"`
}

func (RentInvoice) TableName() string { return "rent_invoices" }

func (m *RentInvoice) BeforeCreate(tx *gorm.DB) error {
	if m.RentInvoiceID == uuid.Nil {
		m.RentInvoiceID = uuid.New()
	}
	return nil
}
