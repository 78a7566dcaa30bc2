package model

type PaymentStatus string
type PaymentMethod string
type PaymentGatewayProvider string
type GatewayEventStatus string

const (
	PaymentStatusPaid PaymentStatus = "paid"
)

const (
	PaymentMethodGateway      PaymentMethod = "gateway"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodQRIS         PaymentMethod = "qris"
	PaymentMethodEWallet      PaymentMethod = "ewallet"
	PaymentMethodOther        PaymentMethod = "other"
)

const (
	GatewayProviderMidtrans PaymentGatewayProvider = "midtrans"
	GatewayProviderXendit   PaymentGatewayProvider = "xendit"
	GatewayProviderNicepay  PaymentGatewayProvider = "nicepay"
	GatewayProviderFaspay   PaymentGatewayProvider = "faspay"
)

// status processing log webhook (payment_gateway_events)
const (
	GatewayEventStatusReceived  GatewayEventStatus = "received"
	GatewayEventStatusRejected  GatewayEventStatus = "rejected"
	GatewayEventStatusIgnored   GatewayEventStatus = "ignored"
	GatewayEventStatusProcessed GatewayEventStatus = "processed"
	GatewayEventStatusFailed    GatewayEventStatus = "failed"
)

// KnownProvider memvalidasi string provider dari path/request.
func KnownProvider(p string) (PaymentGatewayProvider, bool) {
	switch PaymentGatewayProvider(p) {
	case GatewayProviderMidtrans, GatewayProviderXendit, GatewayProviderNicepay, GatewayProviderFaspay:
		return PaymentGatewayProvider(p), true
	}
	return "", false
}
