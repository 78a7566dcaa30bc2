// file: internals/features/finance/payments/gateway/faspay.go
package gateway

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =========================================================
   Faspay (Media Indonusa)
   - Checkout: Post Data Transaction → redirect_url.
   - Webhook: notifikasi XML legacy TANPA bukti kriptografis.
     Payload tidak pernah dipercaya langsung: outcome wajib
     dikonfirmasi lewat inquiry status server-to-server
     (ConfirmOutcome) sebelum masuk reconciler.
   - Ack: 200 generik.
========================================================= */

const faspayDefaultEndpoint = "https://web.faspay.co.id"

type FaspayDriver struct {
	client *http.Client
}

func NewFaspayDriver(client *http.Client) *FaspayDriver {
	return &FaspayDriver{client: client}
}

func (d *FaspayDriver) Provider() model.PaymentGatewayProvider {
	return model.GatewayProviderFaspay
}

type faspayPostResp struct {
	ResponseCode string `json:"response_code"`
	ResponseDesc string `json:"response_desc"`
	RedirectURL  string `json:"redirect_url"`
	TrxID        string `json:"trx_id"`
}

func (d *FaspayDriver) CreateCheckout(ctx context.Context, cfg *model.PaymentGatewayConfig, in CheckoutInput) (string, error) {
	base := ParseMeta(cfg.GatewayConfigMeta).Endpoint
	if base == "" {
		base = faspayDefaultEndpoint
	}

	merchantID := ""
	if cfg.GatewayConfigVendor != nil {
		merchantID = *cfg.GatewayConfigVendor
	}

	body, _ := json.Marshal(map[string]any{
		"request":     "Post Data Transaction",
		"merchant_id": merchantID,
		"bill_no":     in.TransactionRef,
		"bill_total":  strconv.Itoa(in.AmountIDR) + "00", // format Faspay: 2 digit desimal tanpa titik
		"bill_desc":   in.Description,
		"cust_name":   in.CustomerName,
		"email":       in.CustomerEmail,
		"signature":   faspaySignature(cfg.GatewayConfigAPIKey, cfg.GatewayConfigAPISecret, in.TransactionRef),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/cvr/300011/10", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out faspayPostResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("faspay: unexpected response (%d)", resp.StatusCode)
	}
	if out.RedirectURL == "" {
		msg := out.ResponseDesc
		if msg == "" {
			msg = string(raw)
		}
		return "", fmt.Errorf("faspay: post transaction failed (%d): %s", resp.StatusCode, msg)
	}
	return out.RedirectURL, nil
}

// faspayNotif: envelope XML notifikasi pembayaran.
type faspayNotif struct {
	XMLName           xml.Name `xml:"faspay"`
	Request           string   `xml:"request"`
	TrxID             string   `xml:"trx_id"`
	MerchantID        string   `xml:"merchant_id"`
	BillNo            string   `xml:"bill_no"`
	PaymentStatusCode string   `xml:"payment_status_code"`
	PaymentTotal      string   `xml:"payment_total"`
	PaymentChannel    string   `xml:"payment_channel"`
}

// Authenticate: callback legacy hanya bisa dicek lemah (merchant id).
// Gerbang sesungguhnya adalah ConfirmOutcome.
func (d *FaspayDriver) Authenticate(cfg *model.PaymentGatewayConfig, header HeaderFunc, raw []byte) error {
	var n faspayNotif
	if err := xml.Unmarshal(raw, &n); err != nil {
		return ErrInvalidSignature
	}
	if cfg.GatewayConfigVendor == nil || n.MerchantID != *cfg.GatewayConfigVendor {
		return ErrInvalidSignature
	}
	return nil
}

func (d *FaspayDriver) ExtractOutcome(raw []byte) (Notification, error) {
	var n faspayNotif
	if err := xml.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}

	out := Notification{
		TransactionRef: n.BillNo,
		Method:         model.PaymentMethodBankTransfer,
		ProviderTxID:   n.TrxID,
		RawStatus:      n.PaymentStatusCode,
	}
	if amt, err := strconv.ParseFloat(n.PaymentTotal, 64); err == nil {
		// payment_total ikut format 2 digit desimal
		out.AmountIDR = int(amt/100 + 0.5)
	}

	switch n.PaymentStatusCode {
	case "2": // Payment Sukses
		out.Outcome = OutcomeSuccess
	case "0", "1":
		out.Outcome = OutcomePending
	default: // 4 reversal, 7 expired, 8 cancel, 9 unknown
		out.Outcome = OutcomeFailed
	}
	return out, nil
}

type faspayInquiryResp struct {
	ResponseCode      string `json:"response_code"`
	PaymentStatusCode string `json:"payment_status_code"`
}

// ConfirmOutcome menanyakan status transaksi langsung ke Faspay;
// outcome webhook hanya dipercaya bila inquiry mengonfirmasi.
func (d *FaspayDriver) ConfirmOutcome(ctx context.Context, cfg *model.PaymentGatewayConfig, n Notification) error {
	base := ParseMeta(cfg.GatewayConfigMeta).Endpoint
	if base == "" {
		base = faspayDefaultEndpoint
	}

	body, _ := json.Marshal(map[string]string{
		"request":   "Pengecekan Status Pembayaran",
		"trx_id":    n.ProviderTxID,
		"bill_no":   n.TransactionRef,
		"signature": faspaySignature(cfg.GatewayConfigAPIKey, cfg.GatewayConfigAPISecret, n.TransactionRef),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/cvr/100004/10", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out faspayInquiryResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("faspay: status inquiry failed (%d)", resp.StatusCode)
	}
	if out.PaymentStatusCode != n.RawStatus {
		return fmt.Errorf("faspay: inquiry status %q does not confirm webhook status %q", out.PaymentStatusCode, n.RawStatus)
	}
	return nil
}

// signature Faspay: sha1(md5(user_id + password + bill_no))
func faspaySignature(userID, password, billNo string) string {
	m := md5.Sum([]byte(userID + password + billNo))
	s := sha1.Sum([]byte(hex.EncodeToString(m[:])))
	return strings.ToLower(hex.EncodeToString(s[:]))
}
