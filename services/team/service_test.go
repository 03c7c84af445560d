package team

import (
	"errors"
	"fmt"
	"testing"

	teamModel "ambulance-fleet/models/team"
	userModel "ambulance-fleet/models/user"
	vehicleModel "ambulance-fleet/models/vehicle"
	"ambulance-fleet/types/apperror"
	teamTypes "ambulance-fleet/types/team"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&vehicleModel.Vehicle{},
		&teamModel.TeamAssignment{},
		&teamModel.MissionLock{},
		&teamModel.TeamAuditEntry{},
		&teamModel.FleetHistory{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *userModel.User {
	t.Helper()

	u := userModel.User{
		Uuid:      "uuid-" + name,
		Username:  name,
		LegalName: name,
		Phone:     fmt.Sprintf("0171%07d", len(name)*13+int(name[0])),
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func createVehicle(t *testing.T, db *gorm.DB, registration string, requiredRoles []string) *vehicleModel.Vehicle {
	t.Helper()

	v := vehicleModel.Vehicle{
		Name:          "Unit " + registration,
		Registration:  registration,
		Type:          "ambulance",
		Capacity:      4,
		RequiredRoles: requiredRoles,
		Status:        vehicleModel.VehicleStatusAvailable,
		CreatedBy:     "test-admin",
	}
	require.NoError(t, db.Create(&v).Error)
	return &v
}

func TestAssignAddsToRosterAndAudits(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-100", []string{"driver"})
	driver := createUser(t, db, "driver_one")

	assignment, err := svc.Assign(teamTypes.AssignRequest{
		VehicleID: v.ID,
		UserID:    driver.ID,
		Role:      "driver",
		IsPrimary: true,
	}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, assignment.IsActive)
	assert.Equal(t, "dispatcher", assignment.AssignedBy)

	roster, err := svc.ActiveRoster(v.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, driver.ID, roster[0].UserID)

	var entries []teamModel.TeamAuditEntry
	require.NoError(t, db.Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionAssigned).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].EntryID)
	require.Len(t, entries[0].NewState, 1)
	assert.Equal(t, driver.ID, entries[0].NewState[0].UserID)
}

func TestAssignDuplicateOnSameVehicleConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-101", nil)
	driver := createUser(t, db, "driver_dup")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)

	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.Error(t, err)
	require.NotNil(t, apperror.As(err))
	assert.Equal(t, apperror.KindConflict, apperror.As(err).Kind)
}

func TestAssignMigratesAcrossVehicles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v1 := createVehicle(t, db, "AMB-102", nil)
	v2 := createVehicle(t, db, "AMB-103", nil)
	nurse := createUser(t, db, "nurse_roaming")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v1.ID, UserID: nurse.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)

	// Last assignment wins: the prior one is silently deactivated
	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v2.ID, UserID: nurse.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)

	roster1, err := svc.ActiveRoster(v1.ID)
	require.NoError(t, err)
	assert.Empty(t, roster1)

	roster2, err := svc.ActiveRoster(v2.ID)
	require.NoError(t, err)
	require.Len(t, roster2, 1)

	var old teamModel.TeamAssignment
	require.NoError(t, db.Where("vehicle_id = ? AND user_id = ?", v1.ID, nurse.ID).First(&old).Error)
	assert.False(t, old.IsActive)
	assert.NotNil(t, old.RemovedAt)
	assert.NotNil(t, old.RemovedReason)
}

func TestLockRequiresFilledRoles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-104", []string{"driver", "nurse"})
	driver := createUser(t, db, "driver_lockreq")
	nurse := createUser(t, db, "nurse_lockreq")
	medic := createUser(t, db, "medic_late")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)

	_, err = svc.Lock(teamTypes.LockRequest{VehicleID: v.ID}, "dispatcher")
	require.Error(t, err)
	appErr := apperror.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.KindInvalidState, appErr.Kind)
	details, ok := appErr.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"nurse"}, details["missing_roles"])

	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: nurse.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)

	lock, err := svc.Lock(teamTypes.LockRequest{VehicleID: v.ID, MissionID: "mission-1"}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, lock.IsActive)
	assert.Len(t, lock.LockedTeam, 2)

	var fresh vehicleModel.Vehicle
	require.NoError(t, db.First(&fresh, v.ID).Error)
	assert.Equal(t, vehicleModel.VehicleStatusOnMission, fresh.Status)
	require.NotNil(t, fresh.CurrentMissionID)
	assert.Equal(t, "mission-1", *fresh.CurrentMissionID)

	// Roster mutation on a locked vehicle is rejected
	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: medic.ID, Role: "paramedic"}, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.As(err).Kind)
}

func TestLockTwiceConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-105", nil)

	_, err := svc.Lock(teamTypes.LockRequest{VehicleID: v.ID}, "dispatcher")
	require.NoError(t, err)

	_, err = svc.Lock(teamTypes.LockRequest{VehicleID: v.ID}, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.As(err).Kind)
}

func TestUnlockWithoutLockNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-106", nil)

	err := svc.Unlock(teamTypes.UnlockRequest{VehicleID: v.ID}, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindNotFound, apperror.As(err).Kind)
}

func TestUnlockWritesFleetHistory(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-107", nil)
	driver := createUser(t, db, "driver_unlock")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)

	lock, err := svc.Lock(teamTypes.LockRequest{VehicleID: v.ID, MissionID: "mission-h"}, "dispatcher")
	require.NoError(t, err)

	require.NoError(t, svc.Unlock(teamTypes.UnlockRequest{VehicleID: v.ID, Reason: "shift end"}, "dispatcher"))

	var history []teamModel.FleetHistory
	require.NoError(t, db.Where("vehicle_id = ?", v.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, "mission-h", history[0].MissionID)
	assert.Equal(t, lock.LockedTeam, history[0].Team)
	assert.Equal(t, "dispatcher", history[0].EndedBy)

	var fresh vehicleModel.Vehicle
	require.NoError(t, db.First(&fresh, v.ID).Error)
	assert.Equal(t, vehicleModel.VehicleStatusAvailable, fresh.Status)
	assert.Nil(t, fresh.CurrentMissionID)

	// Unlock keeps the crew assigned; only complete_mission disbands it
	roster, err := svc.ActiveRoster(v.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestEmergencyOverride(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-108", []string{"driver"})
	driver := createUser(t, db, "driver_eo")
	injured := createUser(t, db, "nurse_injured")
	backup := createUser(t, db, "nurse_backup")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: injured.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)

	_, err = svc.Lock(teamTypes.LockRequest{VehicleID: v.ID}, "dispatcher")
	require.NoError(t, err)

	// Reason is mandatory
	_, err = svc.EmergencyOverride(teamTypes.EmergencyOverrideRequest{
		VehicleID: v.ID,
		NewUserID: backup.ID,
		NewRole:   "nurse",
	}, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.As(err).Kind)

	assignment, err := svc.EmergencyOverride(teamTypes.EmergencyOverrideRequest{
		VehicleID:    v.ID,
		NewUserID:    backup.ID,
		NewRole:      "nurse",
		RemoveUserID: &injured.ID,
		Reason:       "crew member injured on scene",
	}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, assignment.IsActive)

	var removals, assigns int64
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionEmergencyRemoval).Count(&removals).Error)
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionEmergencyAssign).Count(&assigns).Error)
	assert.Equal(t, int64(1), removals)
	assert.Equal(t, int64(1), assigns)

	// The lock stays active and its snapshot now carries the backup
	lock, err := svc.ActiveLock(v.ID)
	require.NoError(t, err)
	require.NotNil(t, lock)
	found := false
	for _, m := range lock.LockedTeam {
		assert.NotEqual(t, injured.ID, m.UserID)
		if m.UserID == backup.ID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReplaceLinksBothAssignments(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-109", nil)
	outgoing := createUser(t, db, "driver_out")
	incoming := createUser(t, db, "driver_in")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: outgoing.ID, Role: "driver", IsPrimary: true}, "dispatcher")
	require.NoError(t, err)

	replacement, err := svc.Replace(teamTypes.ReplaceRequest{
		VehicleID:     v.ID,
		OldUserID:     outgoing.ID,
		NewUserID:     incoming.ID,
		HandoverNotes: "keys in the ignition",
	}, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, "driver", replacement.Role)
	assert.True(t, replacement.IsPrimary)
	require.NotNil(t, replacement.ReplacesUserID)
	assert.Equal(t, outgoing.ID, *replacement.ReplacesUserID)

	var old teamModel.TeamAssignment
	require.NoError(t, db.Where("vehicle_id = ? AND user_id = ?", v.ID, outgoing.ID).First(&old).Error)
	assert.False(t, old.IsActive)
	require.NotNil(t, old.ReplacedByUserID)
	assert.Equal(t, incoming.ID, *old.ReplacedByUserID)

	var count int64
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionReplaced).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteMissionDisbandsCrew(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-110", nil)
	driver := createUser(t, db, "driver_complete")
	nurse := createUser(t, db, "nurse_complete")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: nurse.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Lock(teamTypes.LockRequest{VehicleID: v.ID, MissionID: "mission-c"}, "dispatcher")
	require.NoError(t, err)

	require.NoError(t, svc.CompleteMission(teamTypes.CompleteMissionRequest{
		VehicleID: v.ID,
		Notes:     "patient delivered",
	}, "dispatcher"))

	roster, err := svc.ActiveRoster(v.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	lock, err := svc.ActiveLock(v.ID)
	require.NoError(t, err)
	assert.Nil(t, lock)

	var history []teamModel.FleetHistory
	require.NoError(t, db.Where("vehicle_id = ?", v.ID).Find(&history).Error)
	require.Len(t, history, 1)
	assert.Equal(t, "mission-c", history[0].MissionID)
	assert.Len(t, history[0].Team, 2)

	var fresh vehicleModel.Vehicle
	require.NoError(t, db.First(&fresh, v.ID).Error)
	assert.Equal(t, vehicleModel.VehicleStatusAvailable, fresh.Status)

	var count int64
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionMissionCompleted).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestValidateTeam(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-111", []string{"driver", "nurse"})
	driver := createUser(t, db, "driver_validate")

	result, err := svc.ValidateTeam(v.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.ElementsMatch(t, []string{"driver", "nurse"}, result.MissingRoles)

	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)

	result, err = svc.ValidateTeam(v.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{"nurse"}, result.MissingRoles)
	assert.Contains(t, result.Warnings, "no doctor and no remote doctor on the team")
	assert.Len(t, result.TeamSummary, 1)
}

func TestRemoteDoctorJoinLeave(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-112", nil)
	doc := createUser(t, db, "remote_doc")

	assignment, err := svc.AddRemoteDoctor(teamTypes.RemoteDoctorRequest{VehicleID: v.ID, UserID: doc.ID}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, assignment.IsRemote)
	assert.Equal(t, "remote_doctor", assignment.Role)

	result, err := svc.ValidateTeam(v.ID)
	require.NoError(t, err)
	assert.NotContains(t, result.Warnings, "no doctor and no remote doctor on the team")

	require.NoError(t, svc.RemoveRemoteDoctor(teamTypes.RemoteDoctorRequest{VehicleID: v.ID, UserID: doc.ID}, "dispatcher"))

	roster, err := svc.ActiveRoster(v.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	var joined, left int64
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionRemoteDoctorJoined).Count(&joined).Error)
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action = ?", v.ID, teamModel.AuditActionRemoteDoctorLeft).Count(&left).Error)
	assert.Equal(t, int64(1), joined)
	assert.Equal(t, int64(1), left)
}

// failTableInserts makes every insert into the named table fail while
// *enabled is true, so partial-write behavior can be observed.
func failTableInserts(t *testing.T, db *gorm.DB, table string, enabled *bool) {
	t.Helper()

	err := db.Callback().Create().Before("gorm:create").Register("reject_"+table+"_inserts", func(tx *gorm.DB) {
		if *enabled && tx.Statement.Table == table {
			tx.AddError(errors.New("simulated write failure on " + table))
		}
	})
	require.NoError(t, err)
}

func TestEmergencyOverrideRollsBackOnFailedInsert(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-113", []string{"driver"})
	driver := createUser(t, db, "driver_atomic")
	injured := createUser(t, db, "nurse_down")
	backup := createUser(t, db, "nurse_standin")

	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: injured.ID, Role: "nurse"}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Lock(teamTypes.LockRequest{VehicleID: v.ID}, "dispatcher")
	require.NoError(t, err)

	failInserts := false
	failTableInserts(t, db, "team_assignments", &failInserts)

	failInserts = true
	_, err = svc.EmergencyOverride(teamTypes.EmergencyOverrideRequest{
		VehicleID:    v.ID,
		NewUserID:    backup.ID,
		NewRole:      "nurse",
		RemoveUserID: &injured.ID,
		Reason:       "crew member injured on scene",
	}, "dispatcher")
	require.Error(t, err)
	failInserts = false

	// The removal must have rolled back with the failed replacement insert
	var removed teamModel.TeamAssignment
	require.NoError(t, db.Where("vehicle_id = ? AND user_id = ?", v.ID, injured.ID).First(&removed).Error)
	assert.True(t, removed.IsActive)

	lock, err := svc.ActiveLock(v.ID)
	require.NoError(t, err)
	require.NotNil(t, lock)
	require.Len(t, lock.LockedTeam, 2)
	for _, m := range lock.LockedTeam {
		assert.NotEqual(t, backup.ID, m.UserID)
	}

	var emergencyEntries int64
	require.NoError(t, db.Model(&teamModel.TeamAuditEntry{}).
		Where("vehicle_id = ? AND action IN ?", v.ID, []teamModel.AuditAction{
			teamModel.AuditActionEmergencyRemoval,
			teamModel.AuditActionEmergencyAssign,
		}).Count(&emergencyEntries).Error)
	assert.Equal(t, int64(0), emergencyEntries)
}

func TestAssignRollsBackWhenAuditFails(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTeamService(db)
	v := createVehicle(t, db, "AMB-114", nil)
	driver := createUser(t, db, "driver_noaudit")

	failInserts := false
	failTableInserts(t, db, "team_audit_entries", &failInserts)

	failInserts = true
	_, err := svc.Assign(teamTypes.AssignRequest{VehicleID: v.ID, UserID: driver.ID, Role: "driver"}, "dispatcher")
	require.Error(t, err)
	failInserts = false

	// No assignment may exist without its audit entry
	var assignments int64
	require.NoError(t, db.Model(&teamModel.TeamAssignment{}).
		Where("vehicle_id = ?", v.ID).Count(&assignments).Error)
	assert.Equal(t, int64(0), assignments)
}
