package team

import (
	"time"

	"ambulance-fleet/models/user"
	vehicleModel "ambulance-fleet/models/vehicle"
)

// TeamAssignment couples a crew member to a vehicle. Assignments are never
// physically deleted: removal and replacement flip IsActive and retain the
// removal metadata so the audit chain stays intact.
type TeamAssignment struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for vehicle relationship
	VehicleID uint                 `gorm:"not null;index" json:"vehicle_id"`
	Vehicle   vehicleModel.Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	// Foreign key for user relationship
	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Role      string `gorm:"type:varchar(50);not null" json:"role"`
	IsPrimary bool   `gorm:"type:bool;default:false" json:"is_primary"`
	IsRemote  bool   `gorm:"type:bool;default:false" json:"is_remote"`

	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
	AssignedBy string    `gorm:"type:varchar(255);not null" json:"assigned_by"`

	IsActive      bool       `gorm:"not null;default:true;index" json:"is_active"`
	RemovedAt     *time.Time `json:"removed_at,omitempty"`
	RemovedBy     *string    `gorm:"type:varchar(255)" json:"removed_by,omitempty"`
	RemovedReason *string    `gorm:"type:text" json:"removed_reason,omitempty"`

	// Replacement linkage for shift handover
	ReplacedByUserID *uint `gorm:"index" json:"replaced_by_user_id,omitempty"`
	ReplacesUserID   *uint `gorm:"index" json:"replaces_user_id,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the TeamAssignment model
func (TeamAssignment) TableName() string {
	return "team_assignments"
}
