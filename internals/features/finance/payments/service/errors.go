// file: internals/features/finance/payments/service/errors.go
package service

import (
	"errors"
	"fmt"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =======================================================================
   Taksonomi error payments.
   - Error konfigurasi & precondition bersifat terminal (400-class).
   - GatewayError = kegagalan API provider saat inisiasi (502-class);
     invoice dibiarkan dengan transaction_ref terpasang, tanpa state lain.
======================================================================= */

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrAmountMismatch     = errors.New("amount does not match invoice")
	ErrUnknownProvider    = errors.New("unknown payment gateway provider")

	ErrGatewayNotConfigured = errors.New("payment gateway not configured")
	ErrGatewayDisabled      = errors.New("payment gateway disabled")
)

type GatewayError struct {
	Provider model.PaymentGatewayProvider
	Err      error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
