// file: internals/features/finance/payments/model/payment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: rent_payments
   Satu row per invoice yang berhasil direkonsiliasi.
   Immutable setelah dibuat; koreksi = record baru di modul lain.
================================ */

type RentPayment struct {
	RentPaymentID uuid.UUID `json:"rent_payment_id" gorm:"column:rent_payment_id;type:uuid;primaryKey"`

	RentPaymentLeaseID   uuid.UUID `json:"rent_payment_lease_id"   gorm:"column:rent_payment_lease_id;type:uuid;not null;index"`
	RentPaymentInvoiceID uuid.UUID `json:"rent_payment_invoice_id" gorm:"column:rent_payment_invoice_id;type:uuid;not null;index"`

	RentPaymentAmountIDR int       `json:"rent_payment_amount_idr" gorm:"column:rent_payment_amount_idr;type:int;not null;check:rent_payment_amount_idr>0"`
	RentPaymentPaidAt    time.Time `json:"rent_payment_paid_at"    gorm:"column:rent_payment_paid_at;not null"`

	RentPaymentMethod   PaymentMethod          `json:"rent_payment_method"   gorm:"column:rent_payment_method;type:varchar(24);not null;default:'gateway'"`
	RentPaymentProvider PaymentGatewayProvider `json:"rent_payment_provider" gorm:"column:rent_payment_provider;type:varchar(24);not null"`

	// Referensi sisi gateway (transaction_id provider, bukan transaction_ref lokal)
	RentPaymentProviderTxID *string `json:"rent_payment_provider_tx_id" gorm:"column:rent_payment_provider_tx_id;type:text"`

	RentPaymentStatus PaymentStatus `json:"rent_payment_status" gorm:"column:rent_payment_status;type:varchar(16);not null;default:'paid'"`

	RentPaymentCreatedAt time.Time `json:"rent_payment_created_at" gorm:"column:rent_payment_created_at;not null;autoCreateTime"`
}

func (RentPayment) TableName() string { return "rent_payments" }

func (m *RentPayment) BeforeCreate(tx *gorm.DB) error {
	if m.RentPaymentID == uuid.Nil {
		m.RentPaymentID = uuid.New()
	}
	return nil
}
