package team

import (
	"time"
)

type AuditAction string

const (
	AuditActionAssigned           AuditAction = "assigned"
	AuditActionRemoved            AuditAction = "removed"
	AuditActionReplaced           AuditAction = "replaced"
	AuditActionTeamLocked         AuditAction = "team_locked"
	AuditActionTeamUnlocked       AuditAction = "team_unlocked"
	AuditActionEmergencyRemoval   AuditAction = "emergency_removal"
	AuditActionEmergencyAssign    AuditAction = "emergency_assignment"
	AuditActionVehicleCreated     AuditAction = "vehicle_created"
	AuditActionMissionCompleted   AuditAction = "mission_completed"
	AuditActionRemoteDoctorJoined AuditAction = "remote_doctor_joined"
	AuditActionRemoteDoctorLeft   AuditAction = "remote_doctor_left"
)

func (aa AuditAction) String() string {
	return string(aa)
}

func (aa AuditAction) IsValid() bool {
	switch aa {
	case AuditActionAssigned, AuditActionRemoved, AuditActionReplaced,
		AuditActionTeamLocked, AuditActionTeamUnlocked,
		AuditActionEmergencyRemoval, AuditActionEmergencyAssign,
		AuditActionVehicleCreated, AuditActionMissionCompleted,
		AuditActionRemoteDoctorJoined, AuditActionRemoteDoctorLeft:
		return true
	default:
		return false
	}
}

// TeamAuditEntry is the append-only record written for every team or
// lock-affecting action. Rows are only ever inserted.
type TeamAuditEntry struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryID string `gorm:"type:varchar(64);not null;unique" json:"entry_id"`

	VehicleID uint        `gorm:"not null;index" json:"vehicle_id"`
	Action    AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ActorID        string  `gorm:"type:varchar(255);not null" json:"actor_id"`
	AffectedUserID *uint   `gorm:"index" json:"affected_user_id,omitempty"`
	Role           *string `gorm:"type:varchar(50)" json:"role,omitempty"`

	Reason        *string `gorm:"type:text" json:"reason,omitempty"`
	HandoverNotes *string `gorm:"type:text" json:"handover_notes,omitempty"`

	PreviousState RosterSnapshot `gorm:"type:json" json:"previous_state,omitempty"`
	NewState      RosterSnapshot `gorm:"type:json" json:"new_state,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the TeamAuditEntry model
func (TeamAuditEntry) TableName() string {
	return "team_audit_entries"
}
