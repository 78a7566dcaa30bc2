// file: internals/features/finance/payments/gateway/midtrans.go
package gateway

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Midtrans (Snap)
   - Checkout via SDK snap.Client.
   - Webhook: signature_key EMBEDDED di payload =
     sha512(order_id + status_code + gross_amount + server_key).
   - Ack: Midtrans menerima echo JSON berisi tracking fields.
========================================================= */

type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type MidtransDriver struct {
	// newClient dipisah supaya bisa disuntik di test.
	newClient func(serverKey string, production bool) snapAPI
}

func NewMidtransDriver() *MidtransDriver {
	return &MidtransDriver{
		newClient: func(serverKey string, production bool) snapAPI {
			var c snap.Client
			if production {
				c.New(serverKey, midtrans.Production)
			} else {
				c.New(serverKey, midtrans.Sandbox)
			}
			return &c
		},
	}
}

func (d *MidtransDriver) Provider() model.PaymentGatewayProvider {
	return model.GatewayProviderMidtrans
}

func (d *MidtransDriver) CreateCheckout(ctx context.Context, cfg *model.PaymentGatewayConfig, in CheckoutInput) (string, error) {
	meta := ParseMeta(cfg.GatewayConfigMeta)
	client := d.newClient(cfg.GatewayConfigAPISecret, meta.Production)

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  in.TransactionRef,
			GrossAmt: int64(in.AmountIDR),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: in.CustomerName,
			Email: in.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       in.TransactionRef,
				Price:    int64(in.AmountIDR),
				Qty:      1,
				Name:     truncate(in.Description, 50),
				Category: "RENT",
			},
		},
	}

	resp, mErr := client.CreateTransaction(req)
	if mErr != nil {
		return "", mErr
	}
	return resp.RedirectURL, nil
}

// midtransNotif: field minimal yang dibutuhkan verifikasi + outcome.
type midtransNotif struct {
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	SignatureKey      string `json:"signature_key"`
	OrderID           string `json:"order_id"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// Authenticate: skema Midtrans menandatangani field payload, bukan raw
// body, jadi decode field signature di sini memang bagian dari skema.
func (d *MidtransDriver) Authenticate(cfg *model.PaymentGatewayConfig, header HeaderFunc, raw []byte) error {
	var n midtransNotif
	if err := json.Unmarshal(raw, &n); err != nil {
		return ErrInvalidSignature
	}
	want := strings.ToLower(strings.TrimSpace(n.SignatureKey))
	if want == "" {
		return ErrInvalidSignature
	}
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + cfg.GatewayConfigAPISecret))
	got := hex.EncodeToString(sum[:])
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

func (d *MidtransDriver) ExtractOutcome(raw []byte) (Notification, error) {
	var n midtransNotif
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}

	out := Notification{
		TransactionRef: n.OrderID,
		Method:         midtransMethod(n.PaymentType),
		ProviderTxID:   n.TransactionID,
		RawStatus:      n.TransactionStatus,
	}
	if amt, err := strconv.ParseFloat(n.GrossAmount, 64); err == nil {
		out.AmountIDR = int(amt + 0.5)
	}

	ts := strings.ToLower(n.TransactionStatus)
	fraud := strings.ToLower(n.FraudStatus)
	switch ts {
	case "capture":
		if fraud == "challenge" {
			out.Outcome = OutcomePending
		} else if fraud == "" || fraud == "accept" {
			out.Outcome = OutcomeSuccess
		} else {
			out.Outcome = OutcomeFailed
		}
	case "settlement":
		out.Outcome = OutcomeSuccess
	case "pending":
		out.Outcome = OutcomePending
	default: // deny, cancel, expire, failure
		out.Outcome = OutcomeFailed
	}
	return out, nil
}

func midtransMethod(paymentType string) model.PaymentMethod {
	switch strings.ToLower(paymentType) {
	case "qris", "gopay":
		return model.PaymentMethodQRIS
	case "bank_transfer", "echannel":
		return model.PaymentMethodBankTransfer
	case "shopeepay", "dana", "ovo":
		return model.PaymentMethodEWallet
	}
	return model.PaymentMethodGateway
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
