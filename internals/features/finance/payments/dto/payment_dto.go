// file: internals/features/finance/payments/dto/payment_dto.go
package dto

import (
	"time"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

type InitiatePaymentRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required,uuid"`
	AmountIDR int    `json:"amount_idr" validate:"required,gt=0"`
	Provider  string `json:"provider"   validate:"required,oneof=midtrans xendit nicepay faspay"`
}

type InitiatePaymentResponse struct {
	RedirectURL    string `json:"redirect_url"`
	TransactionRef string `json:"transaction_ref"`
}

type RentPaymentResponse struct {
	RentPaymentID           string    `json:"rent_payment_id"`
	RentPaymentLeaseID      string    `json:"rent_payment_lease_id"`
	RentPaymentInvoiceID    string    `json:"rent_payment_invoice_id"`
	RentPaymentAmountIDR    int       `json:"rent_payment_amount_idr"`
	RentPaymentPaidAt       time.Time `json:"rent_payment_paid_at"`
	RentPaymentMethod       string    `json:"rent_payment_method"`
	RentPaymentProvider     string    `json:"rent_payment_provider"`
	RentPaymentProviderTxID *string   `json:"rent_payment_provider_tx_id"`
}

func FromPaymentModel(m *model.RentPayment) *RentPaymentResponse {
	if m == nil {
		return nil
	}
	return &RentPaymentResponse{
		RentPaymentID:           m.RentPaymentID.String(),
		RentPaymentLeaseID:      m.RentPaymentLeaseID.String(),
		RentPaymentInvoiceID:    m.RentPaymentInvoiceID.String(),
		RentPaymentAmountIDR:    m.RentPaymentAmountIDR,
		RentPaymentPaidAt:       m.RentPaymentPaidAt,
		RentPaymentMethod:       string(m.RentPaymentMethod),
		RentPaymentProvider:     string(m.RentPaymentProvider),
		RentPaymentProviderTxID: m.RentPaymentProviderTxID,
	}
}
