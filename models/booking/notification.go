package booking

import (
	"time"
)

// Notification is a queued outbound message for the booking owner. Actual
// delivery (SMS/email) belongs to an external subsystem; this core only
// enqueues rows.
type Notification struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	BookingID   uint   `gorm:"not null;index" json:"booking_id"`
	RecipientID uint   `gorm:"not null;index" json:"recipient_id"`
	Channel     string `gorm:"type:varchar(20);not null;default:sms" json:"channel"`
	Message     string `gorm:"type:text;not null" json:"message"`
	Status      string `gorm:"type:varchar(20);not null;default:queued" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
