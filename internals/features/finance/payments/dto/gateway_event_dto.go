// file: internals/features/finance/payments/dto/gateway_event_dto.go
package dto

import (
	"time"

	"gorm.io/datatypes"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

type PaymentGatewayEventResponse struct {
	GatewayEventID          string         `json:"gateway_event_id"`
	GatewayEventInvoiceID   *string        `json:"gateway_event_invoice_id"`
	GatewayEventProvider    string         `json:"gateway_event_provider"`
	GatewayEventType        *string        `json:"gateway_event_type"`
	GatewayEventExternalRef *string        `json:"gateway_event_external_ref"`
	GatewayEventPayload     datatypes.JSON `json:"gateway_event_payload"`
	GatewayEventStatus      string         `json:"gateway_event_status"`
	GatewayEventError       *string        `json:"gateway_event_error"`
	GatewayEventReceivedAt  time.Time      `json:"gateway_event_received_at"`
	GatewayEventProcessedAt *time.Time     `json:"gateway_event_processed_at"`
}

func FromGatewayEventModel(m *model.PaymentGatewayEvent) *PaymentGatewayEventResponse {
	if m == nil {
		return nil
	}
	out := &PaymentGatewayEventResponse{
		GatewayEventID:          m.GatewayEventID.String(),
		GatewayEventProvider:    string(m.GatewayEventProvider),
		GatewayEventType:        m.GatewayEventType,
		GatewayEventExternalRef: m.GatewayEventExternalRef,
		GatewayEventPayload:     m.GatewayEventPayload,
		GatewayEventStatus:      string(m.GatewayEventStatus),
		GatewayEventError:       m.GatewayEventError,
		GatewayEventReceivedAt:  m.GatewayEventReceivedAt,
		GatewayEventProcessedAt: m.GatewayEventProcessedAt,
	}
	if m.GatewayEventInvoiceID != nil {
		s := m.GatewayEventInvoiceID.String()
		out.GatewayEventInvoiceID = &s
	}
	return out
}
