package driver

import (
	"time"
)

// DriverStatus is the per-driver operational state row. One row per driver;
// the status must stay consistent with the referenced booking's status.
type DriverStatus struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	DriverID uint   `gorm:"not null;unique;index" json:"driver_id"`
	Status   Status `gorm:"type:varchar(32);not null;default:offline" json:"status"`

	CurrentBookingID *uint `gorm:"index" json:"current_booking_id,omitempty"`

	LastLat        *float64   `json:"last_lat,omitempty"`
	LastLng        *float64   `json:"last_lng,omitempty"`
	LastLocationAt *time.Time `json:"last_location_at,omitempty"`

	LastUpdated time.Time `gorm:"autoUpdateTime" json:"last_updated"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the DriverStatus model
func (DriverStatus) TableName() string {
	return "driver_statuses"
}
