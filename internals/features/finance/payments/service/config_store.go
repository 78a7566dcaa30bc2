// file: internals/features/finance/payments/service/config_store.go
package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	model "rumahsewa_backend/internals/features/finance/payments/model"
)

// GetGatewayConfig membaca kredensial provider (read-only bagi modul ini).
// Absen, nonaktif, atau kredensial kosong = hard precondition failure.
func GetGatewayConfig(ctx context.Context, db *gorm.DB, provider model.PaymentGatewayProvider) (*model.PaymentGatewayConfig, error) {
	var cfg model.PaymentGatewayConfig
	if err := db.WithContext(ctx).
		First(&cfg, "gateway_config_provider = ?", provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGatewayNotConfigured
		}
		return nil, err
	}

	if !cfg.GatewayConfigIsEnabled {
		return nil, ErrGatewayDisabled
	}
	if strings.TrimSpace(cfg.GatewayConfigAPIKey) == "" || strings.TrimSpace(cfg.GatewayConfigAPISecret) == "" {
		return nil, ErrGatewayNotConfigured
	}
	return &cfg, nil
}
