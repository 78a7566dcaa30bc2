// file: internals/features/notifications/model/notification_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ================================
   MODEL: notifications
   Row-queue sederhana; pengiriman (push/email) dilakukan worker lain.
================================ */

type Notification struct {
	NotificationID uuid.UUID `json:"notification_id" gorm:"column:notification_id;type:uuid;primaryKey"`

	NotificationUserID uuid.UUID `json:"notification_user_id" gorm:"column:notification_user_id;type:uuid;not null;index"`

	NotificationTitle    string  `json:"notification_title"     gorm:"column:notification_title;type:varchar(120);not null"`
	NotificationMessage  string  `json:"notification_message"   gorm:"column:notification_message;type:text;not null"`
	NotificationLinkHint *string `json:"notification_link_hint" gorm:"column:notification_link_hint;type:text"`

	NotificationIsSent bool `json:"notification_is_sent" gorm:"column:notification_is_sent;not null;default:false"`

	NotificationCreatedAt time.Time `json:"notification_created_at" gorm:"column:notification_created_at;not null;autoCreateTime"`
}

func (Notification) TableName() string { return "notifications" }

func (m *Notification) BeforeCreate(tx *gorm.DB) error {
	if m.NotificationID == uuid.Nil {
		m.NotificationID = uuid.New()
	}
	return nil
}
