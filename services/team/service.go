package team

import (
	"errors"
	"fmt"
	"time"

	"ambulance-fleet/constants"
	teamModel "ambulance-fleet/models/team"
	"ambulance-fleet/models/user"
	vehicleModel "ambulance-fleet/models/vehicle"
	"ambulance-fleet/services/team_event"
	"ambulance-fleet/types/apperror"
	teamTypes "ambulance-fleet/types/team"
	"ambulance-fleet/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamService owns crew assignment and the mission lock protocol. Every
// mutating method serializes on the vehicle key so the check-then-write
// sequences cannot interleave for the same vehicle.
type TeamService struct {
	db    *gorm.DB
	locks *utils.KeyedMutex
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{
		db:    db,
		locks: utils.NewKeyedMutex(),
	}
}

func vehicleKey(id uint) string {
	return fmt.Sprintf("vehicle:%d", id)
}

// ValidationResult is the read-only roster health report.
type ValidationResult struct {
	IsValid      bool                     `json:"is_valid"`
	MissingRoles []string                 `json:"missing_roles"`
	Warnings     []string                 `json:"warnings"`
	TeamSummary  []TeamSummaryEntry       `json:"team_summary"`
	Roster       teamModel.RosterSnapshot `json:"-"`
}

// TeamSummaryEntry is one display row of the current roster.
type TeamSummaryEntry struct {
	UserID    uint   `json:"user_id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
	IsRemote  bool   `json:"is_remote"`
}

func (s *TeamService) getVehicle(vehicleID uint) (*vehicleModel.Vehicle, error) {
	var v vehicleModel.Vehicle
	err := s.db.Where("id = ? AND deleted_at IS NULL", vehicleID).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("vehicle not found")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *TeamService) getUser(userID uint) (*user.User, error) {
	var u user.User
	err := s.db.First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ActiveRoster returns the vehicle's active assignments with users preloaded.
func (s *TeamService) ActiveRoster(vehicleID uint) ([]teamModel.TeamAssignment, error) {
	return activeRoster(s.db, vehicleID)
}

func activeRoster(tx *gorm.DB, vehicleID uint) ([]teamModel.TeamAssignment, error) {
	var assignments []teamModel.TeamAssignment
	err := tx.Preload("User").
		Where("vehicle_id = ? AND is_active = ?", vehicleID, true).
		Order("assigned_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (s *TeamService) activeLock(vehicleID uint) (*teamModel.MissionLock, error) {
	var lock teamModel.MissionLock
	err := s.db.Where("vehicle_id = ? AND is_active = ?", vehicleID, true).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

// Assign adds a crew member to a vehicle. A person holds at most one active
// assignment fleet-wide: assigning someone already crewed on another vehicle
// silently deactivates the prior assignment ("last assignment wins").
func (s *TeamService) Assign(req teamTypes.AssignRequest, actor string) (*teamModel.TeamAssignment, error) {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	if _, err := s.getVehicle(req.VehicleID); err != nil {
		return nil, err
	}
	assignee, err := s.getUser(req.UserID)
	if err != nil {
		return nil, err
	}

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		return nil, apperror.InvalidState("vehicle roster is locked for an active mission", map[string]interface{}{
			"mission_id": lock.MissionID,
		})
	}

	var existing teamModel.TeamAssignment
	err = s.db.Where("user_id = ? AND is_active = ?", req.UserID, true).First(&existing).Error
	migrating := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if migrating && existing.VehicleID == req.VehicleID {
		return nil, apperror.Conflict("user already has an active assignment on this vehicle", map[string]interface{}{
			"assignment_id": existing.ID,
			"role":          existing.Role,
		})
	}

	assignment := teamModel.TeamAssignment{
		VehicleID:  req.VehicleID,
		UserID:     req.UserID,
		Role:       req.Role,
		IsPrimary:  req.IsPrimary,
		IsRemote:   req.IsRemote,
		AssignedAt: time.Now(),
		AssignedBy: actor,
		IsActive:   true,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if migrating {
			// Cross-vehicle reassignment: deactivate the prior assignment first
			if err := s.deactivateAssignment(tx, &existing, actor, "reassigned to another vehicle", nil); err != nil {
				return err
			}
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		roster, err := activeRoster(tx, req.VehicleID)
		if err != nil {
			return err
		}
		return team_event.Record(tx, &teamModel.TeamAuditEntry{
			VehicleID:      req.VehicleID,
			Action:         teamModel.AuditActionAssigned,
			ActorID:        actor,
			AffectedUserID: &req.UserID,
			Role:           &assignment.Role,
			NewState:       team_event.SnapshotRoster(roster),
		})
	})
	if err != nil {
		return nil, err
	}
	assignment.User = *assignee

	return &assignment, nil
}

func (s *TeamService) deactivateAssignment(tx *gorm.DB, a *teamModel.TeamAssignment, actor, reason string, replacedBy *uint) error {
	nowTime := time.Now()
	a.IsActive = false
	a.RemovedAt = &nowTime
	a.RemovedBy = &actor
	if reason != "" {
		a.RemovedReason = &reason
	}
	a.ReplacedByUserID = replacedBy
	return tx.Model(a).Updates(map[string]interface{}{
		"is_active":           false,
		"removed_at":          a.RemovedAt,
		"removed_by":          actor,
		"removed_reason":      a.RemovedReason,
		"replaced_by_user_id": replacedBy,
	}).Error
}

// Remove soft-deletes a crew member's assignment.
func (s *TeamService) Remove(req teamTypes.RemoveRequest, actor string) error {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	if _, err := s.getVehicle(req.VehicleID); err != nil {
		return err
	}

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return err
	}
	if lock != nil {
		return apperror.InvalidState("vehicle roster is locked for an active mission", map[string]interface{}{
			"mission_id": lock.MissionID,
		})
	}

	var assignment teamModel.TeamAssignment
	err = s.db.Where("vehicle_id = ? AND user_id = ? AND is_active = ?", req.VehicleID, req.UserID, true).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("no active assignment for this user on this vehicle")
	}
	if err != nil {
		return err
	}

	previous, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.deactivateAssignment(tx, &assignment, actor, req.Reason, nil); err != nil {
			return err
		}

		roster, err := activeRoster(tx, req.VehicleID)
		if err != nil {
			return err
		}
		entry := teamModel.TeamAuditEntry{
			VehicleID:      req.VehicleID,
			Action:         teamModel.AuditActionRemoved,
			ActorID:        actor,
			AffectedUserID: &req.UserID,
			Role:           &assignment.Role,
			PreviousState:  team_event.SnapshotRoster(previous),
			NewState:       team_event.SnapshotRoster(roster),
		}
		if req.Reason != "" {
			entry.Reason = &req.Reason
		}
		if req.HandoverNotes != "" {
			entry.HandoverNotes = &req.HandoverNotes
		}
		return team_event.Record(tx, &entry)
	})
}

// Replace performs a shift handover: the old assignment is deactivated and a
// new one created in a single transaction, linked in both directions, with
// one audit entry carrying the before/after snapshots.
func (s *TeamService) Replace(req teamTypes.ReplaceRequest, actor string) (*teamModel.TeamAssignment, error) {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	if _, err := s.getVehicle(req.VehicleID); err != nil {
		return nil, err
	}
	if _, err := s.getUser(req.NewUserID); err != nil {
		return nil, err
	}

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		return nil, apperror.InvalidState("vehicle roster is locked for an active mission", map[string]interface{}{
			"mission_id": lock.MissionID,
		})
	}

	var old teamModel.TeamAssignment
	err = s.db.Where("vehicle_id = ? AND user_id = ? AND is_active = ?", req.VehicleID, req.OldUserID, true).
		First(&old).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("no active assignment for the outgoing user on this vehicle")
	}
	if err != nil {
		return nil, err
	}

	previous, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = old.Role
	}

	var replacement teamModel.TeamAssignment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		reason := req.Reason
		if reason == "" {
			reason = "replaced on shift handover"
		}
		if err := s.deactivateAssignment(tx, &old, actor, reason, &req.NewUserID); err != nil {
			return err
		}

		replacement = teamModel.TeamAssignment{
			VehicleID:      req.VehicleID,
			UserID:         req.NewUserID,
			Role:           role,
			IsPrimary:      old.IsPrimary,
			IsRemote:       old.IsRemote,
			AssignedAt:     time.Now(),
			AssignedBy:     actor,
			IsActive:       true,
			ReplacesUserID: &req.OldUserID,
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}

		roster, err := activeRoster(tx, req.VehicleID)
		if err != nil {
			return err
		}
		entry := teamModel.TeamAuditEntry{
			VehicleID:      req.VehicleID,
			Action:         teamModel.AuditActionReplaced,
			ActorID:        actor,
			AffectedUserID: &req.NewUserID,
			Role:           &role,
			PreviousState:  team_event.SnapshotRoster(previous),
			NewState:       team_event.SnapshotRoster(roster),
		}
		if req.Reason != "" {
			entry.Reason = &req.Reason
		}
		if req.HandoverNotes != "" {
			entry.HandoverNotes = &req.HandoverNotes
		}
		return team_event.Record(tx, &entry)
	})
	if err != nil {
		return nil, err
	}

	return &replacement, nil
}

// AddRemoteDoctor attaches a remote doctor to the vehicle. Remote doctors do
// not count toward physical capacity but share the assignment table.
func (s *TeamService) AddRemoteDoctor(req teamTypes.RemoteDoctorRequest, actor string) (*teamModel.TeamAssignment, error) {
	assignment, err := s.Assign(teamTypes.AssignRequest{
		VehicleID: req.VehicleID,
		UserID:    req.UserID,
		Role:      constants.RoleRemoteDoctor,
		IsRemote:  true,
	}, actor)
	if err != nil {
		return nil, err
	}

	roster, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return nil, err
	}
	role := assignment.Role
	if err := team_event.Record(s.db, &teamModel.TeamAuditEntry{
		VehicleID:      req.VehicleID,
		Action:         teamModel.AuditActionRemoteDoctorJoined,
		ActorID:        actor,
		AffectedUserID: &req.UserID,
		Role:           &role,
		NewState:       team_event.SnapshotRoster(roster),
	}); err != nil {
		return nil, err
	}
	return assignment, nil
}

// RemoveRemoteDoctor detaches a remote doctor from the vehicle.
func (s *TeamService) RemoveRemoteDoctor(req teamTypes.RemoteDoctorRequest, actor string) error {
	if err := s.Remove(teamTypes.RemoveRequest{
		VehicleID: req.VehicleID,
		UserID:    req.UserID,
		Reason:    "remote doctor left",
	}, actor); err != nil {
		return err
	}

	roster, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return err
	}
	return team_event.Record(s.db, &teamModel.TeamAuditEntry{
		VehicleID:      req.VehicleID,
		Action:         teamModel.AuditActionRemoteDoctorLeft,
		ActorID:        actor,
		AffectedUserID: &req.UserID,
		NewState:       team_event.SnapshotRoster(roster),
	})
}

// Lock freezes the vehicle's roster for a mission. Every required role must
// be filled by an active assignment before the lock is granted.
func (s *TeamService) Lock(req teamTypes.LockRequest, actor string) (*teamModel.MissionLock, error) {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	vehicle, err := s.getVehicle(req.VehicleID)
	if err != nil {
		return nil, err
	}

	existing, err := s.activeLock(req.VehicleID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("vehicle already has an active mission lock", map[string]interface{}{
			"mission_id": existing.MissionID,
			"locked_at":  existing.LockedAt,
		})
	}

	roster, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return nil, err
	}

	missing := missingRoles(vehicle.RequiredRoles, roster)
	if len(missing) > 0 {
		return nil, apperror.InvalidState("required roles are not filled", map[string]interface{}{
			"missing_roles": missing,
		})
	}

	missionID := req.MissionID
	if missionID == "" {
		missionID = uuid.New().String()
	}

	lock := teamModel.MissionLock{
		VehicleID:  req.VehicleID,
		MissionID:  missionID,
		LockedTeam: team_event.SnapshotRoster(roster),
		LockedAt:   time.Now(),
		LockedBy:   actor,
		IsActive:   true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lock).Error; err != nil {
			return err
		}
		if err := tx.Model(&vehicleModel.Vehicle{}).Where("id = ?", req.VehicleID).Updates(map[string]interface{}{
			"status":             vehicleModel.VehicleStatusOnMission,
			"current_mission_id": missionID,
			"updated_by":         actor,
		}).Error; err != nil {
			return err
		}
		return team_event.Record(tx, &teamModel.TeamAuditEntry{
			VehicleID: req.VehicleID,
			Action:    teamModel.AuditActionTeamLocked,
			ActorID:   actor,
			NewState:  lock.LockedTeam,
		})
	})
	if err != nil {
		return nil, err
	}

	return &lock, nil
}

func missingRoles(required vehicleModel.StringList, roster []teamModel.TeamAssignment) []string {
	filled := make(map[string]bool, len(roster))
	for _, a := range roster {
		filled[a.Role] = true
	}
	missing := []string{}
	for _, role := range required {
		if !filled[role] {
			missing = append(missing, role)
		}
	}
	return missing
}

// Unlock releases the vehicle's mission lock and records the mission in the
// fleet history. Assignments stay active; only complete_mission disbands the
// crew.
func (s *TeamService) Unlock(req teamTypes.UnlockRequest, actor string) error {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	vehicle, err := s.getVehicle(req.VehicleID)
	if err != nil {
		return err
	}

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return err
	}
	if lock == nil {
		return apperror.NotFound("no active mission lock for this vehicle")
	}

	return s.releaseLock(vehicle, lock, actor, req.Reason, "", teamModel.AuditActionTeamUnlocked)
}

func (s *TeamService) releaseLock(vehicle *vehicleModel.Vehicle, lock *teamModel.MissionLock, actor, reason, notes string, action teamModel.AuditAction) error {
	nowTime := time.Now()

	return s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"is_active":   false,
			"unlocked_at": nowTime,
			"unlocked_by": actor,
		}
		if reason != "" {
			updates["unlock_reason"] = reason
		}
		if err := tx.Model(lock).Updates(updates).Error; err != nil {
			return err
		}

		history := teamModel.FleetHistory{
			VehicleID:           vehicle.ID,
			VehicleName:         vehicle.Name,
			VehicleRegistration: vehicle.Registration,
			MissionID:           lock.MissionID,
			Team:                lock.LockedTeam,
			StartedAt:           lock.LockedAt,
			EndedAt:             nowTime,
			EndedBy:             actor,
		}
		if notes != "" {
			history.Notes = &notes
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if err := tx.Model(&vehicleModel.Vehicle{}).Where("id = ?", vehicle.ID).Updates(map[string]interface{}{
			"status":             vehicleModel.VehicleStatusAvailable,
			"current_mission_id": nil,
			"updated_by":         actor,
		}).Error; err != nil {
			return err
		}

		entry := teamModel.TeamAuditEntry{
			VehicleID:     vehicle.ID,
			Action:        action,
			ActorID:       actor,
			PreviousState: lock.LockedTeam,
		}
		if reason != "" {
			entry.Reason = &reason
		}
		return team_event.Record(tx, &entry)
	})
}

// EmergencyOverride performs a mid-mission crew change without releasing the
// lock. The reason is mandatory; the lock's snapshot is refreshed in place.
func (s *TeamService) EmergencyOverride(req teamTypes.EmergencyOverrideRequest, actor string) (*teamModel.TeamAssignment, error) {
	if req.Reason == "" {
		return nil, apperror.Validation("emergency override requires a reason")
	}

	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	if _, err := s.getVehicle(req.VehicleID); err != nil {
		return nil, err
	}
	newUser, err := s.getUser(req.NewUserID)
	if err != nil {
		return nil, err
	}

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return nil, err
	}
	if lock == nil {
		return nil, apperror.InvalidState("emergency override is only valid while the roster is locked", nil)
	}

	previous, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return nil, err
	}

	// Check the removal target before mutating anything
	var removed *teamModel.TeamAssignment
	if req.RemoveUserID != nil {
		var found teamModel.TeamAssignment
		err = s.db.Where("vehicle_id = ? AND user_id = ? AND is_active = ?", req.VehicleID, *req.RemoveUserID, true).
			First(&found).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no active assignment for the user being removed")
		}
		if err != nil {
			return nil, err
		}
		removed = &found
	}

	assignment := teamModel.TeamAssignment{
		VehicleID:  req.VehicleID,
		UserID:     req.NewUserID,
		Role:       req.NewRole,
		IsPrimary:  req.IsPrimary,
		AssignedAt: time.Now(),
		AssignedBy: actor,
		IsActive:   true,
	}
	if req.RemoveUserID != nil {
		assignment.ReplacesUserID = req.RemoveUserID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if removed != nil {
			if err := s.deactivateAssignment(tx, removed, actor, req.Reason, &req.NewUserID); err != nil {
				return err
			}
			if err := team_event.Record(tx, &teamModel.TeamAuditEntry{
				VehicleID:      req.VehicleID,
				Action:         teamModel.AuditActionEmergencyRemoval,
				ActorID:        actor,
				AffectedUserID: req.RemoveUserID,
				Role:           &removed.Role,
				Reason:         &req.Reason,
				PreviousState:  team_event.SnapshotRoster(previous),
			}); err != nil {
				return err
			}
		}

		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}

		roster, err := activeRoster(tx, req.VehicleID)
		if err != nil {
			return err
		}
		snapshot := team_event.SnapshotRoster(roster)

		// The lock keeps ruling the mission; only its snapshot is refreshed
		if err := tx.Model(lock).Update("locked_team", snapshot).Error; err != nil {
			return err
		}

		return team_event.Record(tx, &teamModel.TeamAuditEntry{
			VehicleID:      req.VehicleID,
			Action:         teamModel.AuditActionEmergencyAssign,
			ActorID:        actor,
			AffectedUserID: &req.NewUserID,
			Role:           &req.NewRole,
			Reason:         &req.Reason,
			PreviousState:  team_event.SnapshotRoster(previous),
			NewState:       snapshot,
		})
	})
	if err != nil {
		return nil, err
	}
	assignment.User = *newUser

	return &assignment, nil
}

// CompleteMission ends the vehicle's mission: the lock (if any) is released,
// every active assignment is disbanded, the mission goes into fleet history
// and the vehicle returns to available.
func (s *TeamService) CompleteMission(req teamTypes.CompleteMissionRequest, actor string) error {
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))

	vehicle, err := s.getVehicle(req.VehicleID)
	if err != nil {
		return err
	}

	roster, err := s.ActiveRoster(req.VehicleID)
	if err != nil {
		return err
	}
	snapshot := team_event.SnapshotRoster(roster)

	lock, err := s.activeLock(req.VehicleID)
	if err != nil {
		return err
	}

	nowTime := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if lock != nil {
			if err := tx.Model(lock).Updates(map[string]interface{}{
				"is_active":     false,
				"unlocked_at":   nowTime,
				"unlocked_by":   actor,
				"unlock_reason": "mission completed",
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&teamModel.TeamAssignment{}).
			Where("vehicle_id = ? AND is_active = ?", req.VehicleID, true).
			Updates(map[string]interface{}{
				"is_active":      false,
				"removed_at":     nowTime,
				"removed_by":     actor,
				"removed_reason": "mission completed",
			}).Error; err != nil {
			return err
		}

		history := teamModel.FleetHistory{
			VehicleID:           vehicle.ID,
			VehicleName:         vehicle.Name,
			VehicleRegistration: vehicle.Registration,
			BookingID:           req.BookingID,
			Team:                snapshot,
			EndedAt:             nowTime,
			EndedBy:             actor,
		}
		if lock != nil {
			history.MissionID = lock.MissionID
			history.StartedAt = lock.LockedAt
			history.Team = lock.LockedTeam
		} else {
			history.MissionID = uuid.New().String()
			history.StartedAt = nowTime
		}
		if req.Notes != "" {
			history.Notes = &req.Notes
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		if err := tx.Model(&vehicleModel.Vehicle{}).Where("id = ?", req.VehicleID).Updates(map[string]interface{}{
			"status":             vehicleModel.VehicleStatusAvailable,
			"current_mission_id": nil,
			"updated_by":         actor,
		}).Error; err != nil {
			return err
		}

		entry := teamModel.TeamAuditEntry{
			VehicleID:     req.VehicleID,
			Action:        teamModel.AuditActionMissionCompleted,
			ActorID:       actor,
			PreviousState: snapshot,
			NewState:      teamModel.RosterSnapshot{},
		}
		if req.Notes != "" {
			entry.HandoverNotes = &req.Notes
		}
		return team_event.Record(tx, &entry)
	})
}

// ValidateTeam reports whether the vehicle's roster satisfies its required
// roles, plus advisory warnings for display.
func (s *TeamService) ValidateTeam(vehicleID uint) (*ValidationResult, error) {
	vehicle, err := s.getVehicle(vehicleID)
	if err != nil {
		return nil, err
	}

	roster, err := s.ActiveRoster(vehicleID)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		MissingRoles: missingRoles(vehicle.RequiredRoles, roster),
		Warnings:     []string{},
		TeamSummary:  make([]TeamSummaryEntry, 0, len(roster)),
		Roster:       team_event.SnapshotRoster(roster),
	}
	result.IsValid = len(result.MissingRoles) == 0

	hasDoctor := false
	hasRemoteDoctor := false
	hasPrimary := false
	for _, a := range roster {
		if a.Role == constants.RoleDoctor {
			hasDoctor = true
		}
		if a.Role == constants.RoleRemoteDoctor || a.IsRemote {
			hasRemoteDoctor = true
		}
		if a.IsPrimary {
			hasPrimary = true
		}
		result.TeamSummary = append(result.TeamSummary, TeamSummaryEntry{
			UserID:    a.UserID,
			UserName:  a.User.LegalName,
			Role:      a.Role,
			IsPrimary: a.IsPrimary,
			IsRemote:  a.IsRemote,
		})
	}

	if !hasDoctor && !hasRemoteDoctor {
		result.Warnings = append(result.Warnings, "no doctor and no remote doctor on the team")
	}
	if len(roster) > 0 && !hasPrimary {
		result.Warnings = append(result.Warnings, "no primary member designated")
	}

	return result, nil
}

// AuditTrail returns the vehicle's audit entries, newest first.
func (s *TeamService) AuditTrail(vehicleID uint, limit int) ([]teamModel.TeamAuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []teamModel.TeamAuditEntry
	err := s.db.Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// History returns the vehicle's finished missions, newest first.
func (s *TeamService) History(vehicleID uint, limit int) ([]teamModel.FleetHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []teamModel.FleetHistory
	err := s.db.Where("vehicle_id = ?", vehicleID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ActiveLock exposes the current lock for display; nil when unlocked.
func (s *TeamService) ActiveLock(vehicleID uint) (*teamModel.MissionLock, error) {
	return s.activeLock(vehicleID)
}
