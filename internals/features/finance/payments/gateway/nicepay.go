// file: internals/features/finance/payments/gateway/nicepay.go
package gateway

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

/* =========================================================
   NICEPay (SNAP)
   - Checkout: pre-step tukar access token B2B, lalu create
     payment host-to-host → webRedirectUrl.
   - Webhook: header X-Signature = base64(SHA256withRSA atas
     RAW body); public key merchant dari gateway_config_meta.
   - Ack: 200 generik.
========================================================= */

const nicepayDefaultEndpoint = "https://api.nicepay.co.id"

type NicepayDriver struct {
	client *http.Client
}

func NewNicepayDriver(client *http.Client) *NicepayDriver {
	return &NicepayDriver{client: client}
}

func (d *NicepayDriver) Provider() model.PaymentGatewayProvider {
	return model.GatewayProviderNicepay
}

type nicepayTokenResp struct {
	AccessToken string `json:"accessToken"`
}

type nicepayPaymentResp struct {
	ResponseCode    string `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	WebRedirectURL  string `json:"webRedirectUrl"`
}

func (d *NicepayDriver) CreateCheckout(ctx context.Context, cfg *model.PaymentGatewayConfig, in CheckoutInput) (string, error) {
	meta := ParseMeta(cfg.GatewayConfigMeta)
	base := meta.Endpoint
	if base == "" {
		base = nicepayDefaultEndpoint
	}

	// Pre-step: tukar access token B2B.
	tokenBody, _ := json.Marshal(map[string]string{"grantType": "client_credentials"})
	tokenReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1.0/access-token/b2b", bytes.NewReader(tokenBody))
	if err != nil {
		return "", err
	}
	tokenReq.Header.Set("Content-Type", "application/json")
	tokenReq.Header.Set("X-CLIENT-KEY", cfg.GatewayConfigAPIKey)
	tokenReq.Header.Set("X-CLIENT-SECRET", cfg.GatewayConfigAPISecret)

	tokenResp, err := d.client.Do(tokenReq)
	if err != nil {
		return "", err
	}
	defer tokenResp.Body.Close()

	var tok nicepayTokenResp
	if err := json.NewDecoder(io.LimitReader(tokenResp.Body, 1<<20)).Decode(&tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("nicepay: token exchange failed (%d)", tokenResp.StatusCode)
	}

	payload := map[string]any{
		"partnerReferenceNo": in.TransactionRef,
		"amount": map[string]string{
			"value":    fmt.Sprintf("%d.00", in.AmountIDR),
			"currency": "IDR",
		},
		"urlParam": []map[string]string{
			{"url": in.CallbackURL, "type": "PAY_NOTIFY", "isDeeplink": "N"},
		},
		"additionalInfo": map[string]string{
			"goodsNm":   in.Description,
			"billingNm": in.CustomerName,
			"channelId": meta.ChannelID,
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1.0/debit/payment-host-to-host", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	if cfg.GatewayConfigVendor != nil {
		req.Header.Set("X-PARTNER-ID", *cfg.GatewayConfigVendor)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out nicepayPaymentResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("nicepay: unexpected response (%d)", resp.StatusCode)
	}
	if out.WebRedirectURL == "" {
		msg := out.ResponseMessage
		if msg == "" {
			msg = string(raw)
		}
		return "", fmt.Errorf("nicepay: create payment failed (%d): %s", resp.StatusCode, msg)
	}
	return out.WebRedirectURL, nil
}

func (d *NicepayDriver) Authenticate(cfg *model.PaymentGatewayConfig, header HeaderFunc, raw []byte) error {
	sigB64 := strings.TrimSpace(header("X-Signature"))
	if sigB64 == "" {
		return ErrInvalidSignature
	}
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		return ErrInvalidSignature
	}

	pub, err := parseRSAPublicKey(ParseMeta(cfg.GatewayConfigMeta).PublicKey)
	if err != nil {
		return ErrInvalidSignature
	}

	sum := sha256.Sum256(raw)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

type nicepayNotify struct {
	PartnerReferenceNo string `json:"partnerReferenceNo"`
	ReferenceNo        string `json:"referenceNo"`
	TransactionStatus  string `json:"latestTransactionStatus"` // 00 sukses, 03 pending
	Amount             struct {
		Value string `json:"value"`
	} `json:"amount"`
	PayMethod string `json:"payMethod"`
}

func (d *NicepayDriver) ExtractOutcome(raw []byte) (Notification, error) {
	var n nicepayNotify
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, err
	}

	out := Notification{
		TransactionRef: n.PartnerReferenceNo,
		Method:         model.PaymentMethodBankTransfer,
		ProviderTxID:   n.ReferenceNo,
		RawStatus:      n.TransactionStatus,
	}
	if amt, err := strconv.ParseFloat(n.Amount.Value, 64); err == nil {
		out.AmountIDR = int(amt + 0.5)
	}

	switch n.TransactionStatus {
	case "00":
		out.Outcome = OutcomeSuccess
	case "03":
		out.Outcome = OutcomePending
	default:
		out.Outcome = OutcomeFailed
	}
	return out, nil
}

func parseRSAPublicKey(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("no PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}
