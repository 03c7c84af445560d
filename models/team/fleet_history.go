package team

import (
	"time"
)

// FleetHistory is the immutable record written when a mission ends. It keeps
// the vehicle identity and the roster snapshot from the lock so the crew of a
// finished mission can be reconstructed after assignments are disbanded.
type FleetHistory struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	VehicleID           uint   `gorm:"not null;index" json:"vehicle_id"`
	VehicleName         string `gorm:"type:varchar(255);not null" json:"vehicle_name"`
	VehicleRegistration string `gorm:"type:varchar(64);not null" json:"vehicle_registration"`

	MissionID string         `gorm:"type:varchar(64);not null;index" json:"mission_id"`
	BookingID *uint          `gorm:"index" json:"booking_id,omitempty"`
	Team      RosterSnapshot `gorm:"type:json" json:"team"`

	StartedAt time.Time `gorm:"not null" json:"started_at"`
	EndedAt   time.Time `gorm:"not null" json:"ended_at"`
	EndedBy   string    `gorm:"type:varchar(255);not null" json:"ended_by"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the FleetHistory model
func (FleetHistory) TableName() string {
	return "fleet_history"
}
