package booking

import (
	"time"

	"ambulance-fleet/models/user"
)

// Booking represents one transport request. Web-originated and
// dispatcher-originated requests used to live in two differently shaped
// records; they are unified here behind the Origin discriminant.
type Booking struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Origin of the request: "web" or "transport"
	Origin string `gorm:"type:varchar(20);not null;default:transport" json:"origin"`

	// Foreign key for requesting user relationship
	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	PatientName    string `gorm:"type:varchar(255);not null" json:"patient_name"`
	PatientPhone   string `gorm:"type:varchar(20)" json:"patient_phone,omitempty"`
	PickupAddress  string `gorm:"type:text;not null" json:"pickup_address"`
	DropoffAddress string `gorm:"type:text;not null" json:"dropoff_address"`

	// Date of service; the dispatch availability predicate compares this
	// field by calendar date only.
	BookingDate time.Time `gorm:"not null;index" json:"booking_date"`

	Status BookingStatus `gorm:"type:varchar(32);not null;default:pending;index" json:"status"`

	// Cross-references written by the scheduling and dispatch flows
	AssignedVehicleID *uint `gorm:"index" json:"assigned_vehicle_id,omitempty"`
	ScheduleID        *uint `gorm:"index" json:"schedule_id,omitempty"`
	AssignedDriverID  *uint `gorm:"index" json:"assigned_driver_id,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}
