package team_event

import (
	"time"

	"ambulance-fleet/models/team"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record appends one audit entry. Entries are insert-only; nothing in the
// service layer ever updates or deletes a row once written.
func Record(tx *gorm.DB, entry *team.TeamAuditEntry) error {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return tx.Create(entry).Error
}

// SnapshotRoster converts the active assignments of a vehicle into the
// snapshot form stored on locks, audit entries and history rows.
func SnapshotRoster(assignments []team.TeamAssignment) team.RosterSnapshot {
	snapshot := make(team.RosterSnapshot, 0, len(assignments))
	for _, a := range assignments {
		member := team.LockedMember{
			UserID:    a.UserID,
			Role:      a.Role,
			IsPrimary: a.IsPrimary,
			IsRemote:  a.IsRemote,
		}
		if a.User.ID != 0 {
			member.UserName = a.User.LegalName
		}
		snapshot = append(snapshot, member)
	}
	return snapshot
}
