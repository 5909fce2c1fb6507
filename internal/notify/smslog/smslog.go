package smslog

import (
	"context"
	"fmt"
	"time"

	"github.com/SafeTrack/ST-Backend/internal/db"
	"github.com/SafeTrack/ST-Backend/internal/notify"
)

// SMSLog is one queued SMS. The actual carrier hand-off is done by a separate
// worker that drains this table; from the tracker's point of view a committed
// row is a sent message.
type SMSLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PhoneNumber string    `gorm:"index" json:"phone_number"`
	Message     string    `json:"message"`
	Status      string    `gorm:"default:'sent'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SMSLog) TableName() string { return "notify.sms_logs" }

type dispatcher struct{}

func init() {
	notify.RegisterProvider(notify.ProviderSMSLog, New)
}

func New(cfg notify.Config) (notify.Dispatcher, error) {
	if err := db.EnsureSchema(db.DB, "notify"); err != nil {
		return nil, fmt.Errorf("ensure schema notify: %w", err)
	}
	if err := db.DB.AutoMigrate(&SMSLog{}); err != nil {
		return nil, fmt.Errorf("migrate sms_logs: %w", err)
	}
	return dispatcher{}, nil
}

func (dispatcher) Name() string { return "smslog" }

func (dispatcher) Send(ctx context.Context, n notify.Notification) error {
	for _, rcpt := range n.Recipients {
		if rcpt.Phone == "" {
			continue
		}
		row := SMSLog{
			PhoneNumber: rcpt.Phone,
			Message:     n.Message,
			Status:      "sent",
		}
		if err := db.DB.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("queue sms to %s: %w", rcpt.Phone, err)
		}
	}
	return nil
}
