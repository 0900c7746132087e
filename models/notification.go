package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Notification templates. The dispatcher maps transitions onto these.
const (
	TypeOrderConfirmation = "order_confirmation"
	TypeFarmNewOrder      = "farm_new_order"
	TypeAdminNewOrder     = "admin_new_order"
	TypeOrderConfirmed    = "order_confirmed"
	TypeOutForDelivery    = "order_out_for_delivery"
	TypeOrderDelivered    = "order_delivered"
	TypeOrderCancelled    = "order_cancelled"
	TypeFarmOrderCancel   = "farm_order_cancelled"
	TypeAdminException    = "admin_order_exception"
)

// OutboxStatus tracks a notification that could not be sent directly.
type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
)

// NotificationOutbox is the durable fallback for notifications whose direct
// send failed or had no provider configured.
type NotificationOutbox struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	Type         string       `gorm:"type:varchar(64);not null" json:"type"`
	Channel      string       `gorm:"type:varchar(16);not null" json:"channel"`
	Recipient    string       `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject      string       `gorm:"type:varchar(255)" json:"subject,omitempty"`
	Body         string       `gorm:"type:text" json:"-"`
	Status       OutboxStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`
	Attempts     int          `gorm:"not null;default:0" json:"attempts"`
	SentAt       *time.Time   `json:"sent_at,omitempty"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *NotificationOutbox) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type OutboxFilter struct {
	Status   OutboxStatus
	OrderID  *uuid.UUID
	Page     int
	PageSize int
}
