package vehicle

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Vehicle represents a single transport vehicle in the fleet, together with
// the roles its roster must carry before it can be locked onto a mission.
type Vehicle struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(255);not null" json:"name"`
	Registration string `gorm:"type:varchar(64);not null;unique" json:"registration"`
	Type         string `gorm:"type:varchar(50);not null" json:"type"`
	Capacity     int    `gorm:"type:int;default:0" json:"capacity"`

	Equipment     StringList `gorm:"type:json" json:"equipment"`
	RequiredRoles StringList `gorm:"type:json" json:"required_roles"`
	OptionalRoles StringList `gorm:"type:json" json:"optional_roles"`

	Status           VehicleStatus `gorm:"type:varchar(32);not null;default:available" json:"status"`
	CurrentMissionID *string       `gorm:"type:varchar(64)" json:"current_mission_id,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// StringList is a custom type to store a slice of strings as a JSON column.
type StringList []string

// Scan implements the Scanner interface for database deserialization
func (sl *StringList) Scan(value interface{}) error {
	if value == nil {
		*sl = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, sl)
	case string:
		return json.Unmarshal([]byte(v), sl)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// Value implements the driver Valuer interface for database serialization
func (sl StringList) Value() (driver.Value, error) {
	if sl == nil {
		return nil, nil
	}
	return json.Marshal(sl)
}

// Contains reports whether the list carries the given entry.
func (sl StringList) Contains(s string) bool {
	for _, v := range sl {
		if v == s {
			return true
		}
	}
	return false
}
