// file: internals/features/finance/payments/gateway/gateway.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/datatypes"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =======================================================================
   Kontrak driver per provider.

   Dua langkah webhook (selalu dalam urutan ini):
     1) Authenticate: verifikasi RAW body sebelum decode apa pun,
        karena skema signature menandatangani byte, bukan struktur.
     2) ExtractOutcome: parse payload setelah autentikasi lolos.

   Inisiasi: CreateCheckout membangun request settlement spesifik
   provider dan mengembalikan redirect/checkout URL.
======================================================================= */

var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

// HeaderFunc membaca satu header request (case-insensitive di Fiber).
type HeaderFunc func(key string) string

type CheckoutInput struct {
	TransactionRef string
	AmountIDR      int
	Description    string
	CallbackURL    string // endpoint webhook khusus provider ybs
	CustomerName   string
	CustomerEmail  string
}

// Notification adalah hasil normalisasi webhook lintas provider.
type Notification struct {
	TransactionRef string
	Outcome        Outcome
	AmountIDR      int
	Method         model.PaymentMethod
	ProviderTxID   string
	RawStatus      string
}

type Driver interface {
	Provider() model.PaymentGatewayProvider
	CreateCheckout(ctx context.Context, cfg *model.PaymentGatewayConfig, in CheckoutInput) (redirectURL string, err error)
	Authenticate(cfg *model.PaymentGatewayConfig, header HeaderFunc, raw []byte) error
	ExtractOutcome(raw []byte) (Notification, error)
}

// OutcomeConfirmer: provider yang callback-nya tidak membawa bukti
// kriptografis wajib dikonfirmasi server-to-server sebelum dipercaya.
type OutcomeConfirmer interface {
	ConfirmOutcome(ctx context.Context, cfg *model.PaymentGatewayConfig, n Notification) error
}

/* =======================================================================
   Registry: closed set, dispatch by provider id.
======================================================================= */

type Registry struct {
	drivers map[model.PaymentGatewayProvider]Driver
}

func NewRegistry() *Registry {
	client := &http.Client{Timeout: 15 * time.Second}
	r := &Registry{drivers: map[model.PaymentGatewayProvider]Driver{}}
	for _, d := range []Driver{
		NewMidtransDriver(),
		NewXenditDriver(client),
		NewNicepayDriver(client),
		NewFaspayDriver(client),
	} {
		r.drivers[d.Provider()] = d
	}
	return r
}

func (r *Registry) ForProvider(p model.PaymentGatewayProvider) (Driver, bool) {
	d, ok := r.drivers[p]
	return d, ok
}

/* =======================================================================
   ConfigMeta: isi kolom gateway_config_meta.
======================================================================= */

type ConfigMeta struct {
	Endpoint   string `json:"endpoint"`   // override base URL (sandbox/testing)
	PublicKey  string `json:"public_key"` // PEM, dipakai nicepay
	ChannelID  string `json:"channel_id"` // nicepay
	Production bool   `json:"production"` // midtrans env
}

func ParseMeta(j datatypes.JSON) ConfigMeta {
	var m ConfigMeta
	if len(j) > 0 {
		_ = json.Unmarshal(j, &m)
	}
	return m
}
