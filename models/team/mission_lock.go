package team

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// LockedMember is one roster entry inside a lock snapshot.
type LockedMember struct {
	UserID    uint   `json:"user_id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
	IsRemote  bool   `json:"is_remote"`
}

// RosterSnapshot is a JSON column holding the crew captured at lock time.
type RosterSnapshot []LockedMember

// Scan implements the Scanner interface for database deserialization
func (rs *RosterSnapshot) Scan(value interface{}) error {
	if value == nil {
		*rs = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, rs)
	case string:
		return json.Unmarshal([]byte(v), rs)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// Value implements the driver Valuer interface for database serialization
func (rs RosterSnapshot) Value() (driver.Value, error) {
	if rs == nil {
		return nil, nil
	}
	return json.Marshal(rs)
}

// MissionLock freezes a vehicle's roster for the duration of a mission.
// At most one active lock may exist per vehicle; while it is active, roster
// mutations are rejected unless they go through the emergency override path.
type MissionLock struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	VehicleID uint   `gorm:"not null;index" json:"vehicle_id"`
	MissionID string `gorm:"type:varchar(64);not null;index" json:"mission_id"`

	LockedTeam RosterSnapshot `gorm:"type:json" json:"locked_team"`

	LockedAt time.Time `gorm:"not null" json:"locked_at"`
	LockedBy string    `gorm:"type:varchar(255);not null" json:"locked_by"`

	IsActive     bool       `gorm:"not null;default:true;index" json:"is_active"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
	UnlockedBy   *string    `gorm:"type:varchar(255)" json:"unlocked_by,omitempty"`
	UnlockReason *string    `gorm:"type:text" json:"unlock_reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the MissionLock model
func (MissionLock) TableName() string {
	return "mission_locks"
}
