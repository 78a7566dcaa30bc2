// file: internals/features/finance/payments/service/notifier.go
package service

import (
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	notifModel "rumahsewa_backend/internals/features/notifications/model"
)

// NotificationRequester: boundary keluar, fire-and-forget.
// Pengiriman sesungguhnya (push/email) urusan worker lain.
type NotificationRequester interface {
	Notify(userID uuid.UUID, title, message, linkHint string)
}

// DBNotifier menulis row notifications secara async.
type DBNotifier struct {
	DB *gorm.DB
}

func NewDBNotifier(db *gorm.DB) *DBNotifier { return &DBNotifier{DB: db} }

func (n *DBNotifier) Notify(userID uuid.UUID, title, message, linkHint string) {
	if userID == uuid.Nil {
		return
	}
	go func() {
		row := notifModel.Notification{
			NotificationUserID:  userID,
			NotificationTitle:   title,
			NotificationMessage: message,
		}
		if linkHint != "" {
			row.NotificationLinkHint = &linkHint
		}
		if err := n.DB.Create(&row).Error; err != nil {
			log.Printf("[WARN] notify: insert notification failed: %v", err)
		}
	}()
}
