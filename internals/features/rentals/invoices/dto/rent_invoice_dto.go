// file: internals/features/rentals/invoices/dto/rent_invoice_dto.go
package dto

import (
	"time"

	model "rumahsewa_backend/internals/features/rentals/invoices/model"
)

/* ===================== REQUEST ===================== */

type CreateRentInvoiceRequest struct {
	LeaseID   string `json:"lease_id"   validate:"required,uuid"`
	AmountIDR int    `json:"amount_idr" validate:"required,gt=0"`
	Period    string `json:"period"     validate:"required,len=7"` // YYYY-MM
	DueDate   string `json:"due_date"   validate:"required,datetime=2006-01-02"`
}

/* ===================== RESPONSE ===================== */

type RentInvoiceResponse struct {
	RentInvoiceID             string     `json:"rent_invoice_id"`
	RentInvoiceLeaseID        string     `json:"rent_invoice_lease_id"`
	RentInvoiceAmountIDR      int        `json:"rent_invoice_amount_idr"`
	RentInvoicePeriod         string     `json:"rent_invoice_period"`
	RentInvoiceDueDate        time.Time  `json:"rent_invoice_due_date"`
	RentInvoiceStatus         string     `json:"rent_invoice_status"`
	RentInvoiceTransactionRef *string    `json:"rent_invoice_transaction_ref"`
	RentInvoicePaymentID      *string    `json:"rent_invoice_payment_id"`
	RentInvoiceCreatedAt      time.Time  `json:"rent_invoice_created_at"`
}

func FromInvoiceModel(m *model.RentInvoice) *RentInvoiceResponse {
	if m == nil {
		return nil
	}
	out := &RentInvoiceResponse{
		RentInvoiceID:             m.RentInvoiceID.String(),
		RentInvoiceLeaseID:        m.RentInvoiceLeaseID.String(),
		RentInvoiceAmountIDR:      m.RentInvoiceAmountIDR,
		RentInvoicePeriod:         m.RentInvoicePeriod,
		RentInvoiceDueDate:        m.RentInvoiceDueDate,
		RentInvoiceStatus:         string(m.RentInvoiceStatus),
		RentInvoiceTransactionRef: m.RentInvoiceTransactionRef,
		RentInvoiceCreatedAt:      m.RentInvoiceCreatedAt,
	}
	if m.RentInvoicePaymentID != nil {
		s := m.RentInvoicePaymentID.String()
		out.RentInvoicePaymentID = &s
	}
	return out
}
