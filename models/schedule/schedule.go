package schedule

import (
	"time"

	vehicleModel "ambulance-fleet/models/vehicle"
)

// Schedule is one vehicle commitment on the timeline. The interval is
// half-open: [StartTime, EndTime). Among non-cancelled schedules of the same
// vehicle (and the same driver, when set) intervals must not overlap unless
// the record was created with an explicit force flag.
type Schedule struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for vehicle relationship
	VehicleID uint                 `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   vehicleModel.Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	BookingID   *uint  `gorm:"index" json:"booking_id,omitempty"`
	BookingType string `gorm:"type:varchar(50)" json:"booking_type,omitempty"`

	DriverID *uint `gorm:"index" json:"driver_id,omitempty"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status ScheduleStatus `gorm:"type:varchar(32);not null;default:scheduled;index" json:"status"`

	// Set when the conflict check was bypassed with force=true
	Forced bool `gorm:"type:bool;default:false" json:"forced"`

	CreatedBy   string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy   string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy *string    `gorm:"type:varchar(255)" json:"cancelled_by,omitempty"`
}

// TableName sets the table name for the Schedule model
func (Schedule) TableName() string {
	return "schedules"
}

// Overlaps reports whether the schedule's half-open interval intersects
// [start, end).
func (s *Schedule) Overlaps(start, end time.Time) bool {
	return start.Before(s.EndTime) && s.StartTime.Before(end)
}
