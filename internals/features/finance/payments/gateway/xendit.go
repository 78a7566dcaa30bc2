// file: internals/features/finance/payments/gateway/xendit.go
package gateway

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Xendit (Invoices API)
   - Checkout: POST /v2/invoices (basic auth pakai api key),
     balasan membawa invoice_url.
   - Webhook: shared secret statis di header x-callback-token,
     dibandingkan exact (constant-time) dgn api secret.
   - Ack: 200 generik.
========================================================= */

const xenditDefaultEndpoint = "https://api.xendit.co"

type XenditDriver struct {
	client *http.Client
}

func NewXenditDriver(client *http.Client) *XenditDriver {
	return &XenditDriver{client: client}
}

func (d *XenditDriver) Provider() model.PaymentGatewayProvider {
	return model.GatewayProviderXendit
}

type xenditInvoiceReq struct {
	ExternalID  string `json:"external_id"`
	Amount      int    `json:"amount"`
	Description string `json:"description,omitempty"`
	PayerEmail  string `json:"payer_email,omitempty"`
	Currency    string `json:"currency"`
}

type xenditInvoiceResp struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
	Status     string `json:"status"`
	Message    string `json:"message"` // terisi saat error
}

func (d *XenditDriver) CreateCheckout(ctx context.Context, cfg *model.PaymentGatewayConfig, in CheckoutInput) (string, error) {
	base := ParseMeta(cfg.GatewayConfigMeta).Endpoint
	if base == "" {
		base = xenditDefaultEndpoint
	}

	body, _ := json.Marshal(xenditInvoiceReq{
		ExternalID:  in.TransactionRef,
		Amount:      in.AmountIDR,
		Description: in.Description,
		PayerEmail:  in.CustomerEmail,
		Currency:    "IDR",
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v2/invoices", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(cfg.GatewayConfigAPIKey+":")))

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out xenditInvoiceResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("xendit: unexpected response (%d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || out.InvoiceURL == "" {
		msg := out.Message
		if msg == "" {
			msg = string(raw)
		}
		return "", fmt.Errorf("xendit: create invoice failed (%d): %s", resp.StatusCode, msg)
	}
	return out.InvoiceURL, nil
}

func (d *XenditDriver) Authenticate(cfg *model.PaymentGatewayConfig, header HeaderFunc, raw []byte) error {
	token := strings.TrimSpace(header("x-callback-token"))
	if token == "" {
		return ErrInvalidSignature
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.GatewayConfigAPISecret)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

type xenditCallback struct {
	ID            string `json:"id"`
	ExternalID    string `json:"external_id"`
	Status        string `json:"status"` // PAID, SETTLED, EXPIRED, PENDING
	Amount        int    `json:"amount"`
	PaidAmount    int    `json:"paid_amount"`
	PaymentMethod string `json:"payment_method"`
}

func (d *XenditDriver) ExtractOutcome(raw []byte) (Notification, error) {
	var cb xenditCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return Notification{}, err
	}

	out := Notification{
		TransactionRef: cb.ExternalID,
		AmountIDR:      cb.PaidAmount,
		Method:         xenditMethod(cb.PaymentMethod),
		ProviderTxID:   cb.ID,
		RawStatus:      cb.Status,
	}
	if out.AmountIDR == 0 {
		out.AmountIDR = cb.Amount
	}

	switch strings.ToUpper(cb.Status) {
	case "PAID", "SETTLED":
		out.Outcome = OutcomeSuccess
	case "PENDING":
		out.Outcome = OutcomePending
	default: // EXPIRED, dll.
		out.Outcome = OutcomeFailed
	}
	return out, nil
}

func xenditMethod(m string) model.PaymentMethod {
	switch strings.ToUpper(m) {
	case "QRIS", "QR_CODE":
		return model.PaymentMethodQRIS
	case "BANK_TRANSFER", "VIRTUAL_ACCOUNT":
		return model.PaymentMethodBankTransfer
	case "EWALLET":
		return model.PaymentMethodEWallet
	}
	return model.PaymentMethodGateway
}
