// file: internals/features/rentals/leases/model/lease_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: leases
   CRUD sewa/properti dikelola modul lain; di sini hanya
   dipakai sebagai induk invoice & alamat notifikasi penyewa.
================================ */

type Lease struct {
	LeaseID uuid.UUID `json:"lease_id" gorm:"column:lease_id;type:uuid;primaryKey"`

	LeasePropertyName string `json:"lease_property_name" gorm:"column:lease_property_name;type:varchar(120);not null"`
	LeaseRoomLabel    string `json:"lease_room_label"    gorm:"column:lease_room_label;type:varchar(60)"`

	// Penyewa (target notifikasi pasca-settlement)
	LeaseTenantUserID uuid.UUID `json:"lease_tenant_user_id" gorm:"column:lease_tenant_user_id;type:uuid;not null"`

	LeaseMonthlyRentIDR int  `json:"lease_monthly_rent_idr" gorm:"column:lease_monthly_rent_idr;type:int;not null;check:lease_monthly_rent_idr>=0"`
	LeaseIsActive       bool `json:"lease_is_active"        gorm:"column:lease_is_active;not null;default:true"`

	LeaseCreatedAt time.Time  `json:"lease_created_at" gorm:"column:lease_created_at;not null;autoCreateTime"`
	LeaseUpdatedAt time.Time  `json:"lease_updated_at" gorm:"column:lease_updated_at;not null;autoUpdateTime"`
	LeaseDeletedAt *time.Time `json:"lease_deleted_at" gorm:"column:lease_deleted_at"`
}

func (Lease) TableName() string { return "leases" }

func (m *Lease) BeforeCreate(tx *gorm.DB) error {
	if m.LeaseID == uuid.Nil {
		m.LeaseID = uuid.New()
	}
	return nil
}
