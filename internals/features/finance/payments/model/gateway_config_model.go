// file: internals/features/finance/payments/model/gateway_config_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ================================
   MODEL: payment_gateway_configs
   Kredensial per provider. Read-only untuk modul payments;
   pengelolaan (CRUD) ada di panel owner.
================================ */

type PaymentGatewayConfig struct {
	GatewayConfigID uuid.UUID `json:"gateway_config_id" gorm:"column:gateway_config_id;type:uuid;primaryKey"`

	GatewayConfigProvider PaymentGatewayProvider `json:"gateway_config_provider" gorm:"column:gateway_config_provider;type:varchar(24);not null;uniqueIndex"`

	GatewayConfigAPIKey    string  `json:"-" gorm:"column:gateway_config_api_key;type:text;not null"`
	GatewayConfigAPISecret string  `json:"-" gorm:"column:gateway_config_api_secret;type:text;not null"`
	GatewayConfigVendor    *string `json:"gateway_config_vendor" gorm:"column:gateway_config_vendor;type:varchar(60)"` // merchant/vendor code, tidak semua provider pakai

	GatewayConfigIsEnabled bool `json:"gateway_config_is_enabled" gorm:"column:gateway_config_is_enabled;not null;default:false"`

	// meta: endpoint override, public key PEM (nicepay), channel id, dsb.
	GatewayConfigMeta datatypes.JSON `json:"gateway_config_meta" gorm:"column:gateway_config_meta;type:jsonb"`

	GatewayConfigCreatedAt time.Time `json:"gateway_config_created_at" gorm:"column:gateway_config_created_at;not null;autoCreateTime"`
	GatewayConfigUpdatedAt time.Time `json:"gateway_config_updated_at" gorm:"column:gateway_config_updated_at;not null;autoUpdateTime"`
}

func (PaymentGatewayConfig) TableName() string { return "payment_gateway_configs" }

func (m *PaymentGatewayConfig) BeforeCreate(tx *gorm.DB) error {
	if m.GatewayConfigID == uuid.Nil {
		m.GatewayConfigID = uuid.New()
	}
	return nil
}
