package scheduling

import (
	"sync"
	"testing"
	"time"

	bookingModel "ambulance-fleet/models/booking"
	scheduleModel "ambulance-fleet/models/schedule"
	userModel "ambulance-fleet/models/user"
	vehicleModel "ambulance-fleet/models/vehicle"
	"ambulance-fleet/types/apperror"
	scheduleTypes "ambulance-fleet/types/schedule"

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
		&scheduleModel.Schedule{},
		&bookingModel.Booking{},
	))
	return db
}

func createVehicle(t *testing.T, db *gorm.DB, registration string) *vehicleModel.Vehicle {
	t.Helper()

	v := vehicleModel.Vehicle{
		Name:         "Unit " + registration,
		Registration: registration,
		Type:         "ambulance",
		Status:       vehicleModel.VehicleStatusAvailable,
		CreatedBy:    "test-admin",
	}
	require.NoError(t, db.Create(&v).Error)
	return &v
}

func createBooking(t *testing.T, db *gorm.DB, date time.Time) *bookingModel.Booking {
	t.Helper()

	u := userModel.User{
		Uuid:      "uuid-requester",
		Username:  "requester",
		LegalName: "Requester",
		Phone:     "01710000001",
	}
	require.NoError(t, db.Create(&u).Error)

	b := bookingModel.Booking{
		UserID:         u.ID,
		PatientName:    "Test Patient",
		PickupAddress:  "General Hospital",
		DropoffAddress: "Trauma Center",
		BookingDate:    date,
		Status:         bookingModel.BookingStatusPending,
		CreatedBy:      "test-admin",
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 20, hour, min, 0, 0, time.UTC)
}

func TestOverlapIsHalfOpen(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-200")

	_, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		conflict bool
	}{
		{"ends exactly at existing start", at(9, 0), at(10, 0), false},
		{"starts exactly at existing end", at(12, 0), at(13, 0), false},
		{"starts inside existing", at(11, 0), at(13, 0), true},
		{"ends inside existing", at(9, 0), at(11, 0), true},
		{"fully contains existing", at(9, 0), at(13, 0), true},
		{"fully inside existing", at(10, 30), at(11, 30), true},
		{"identical interval", at(10, 0), at(12, 0), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.CheckConflict(scheduleTypes.ConflictCheckRequest{
				VehicleID: v.ID,
				StartTime: tc.start,
				EndTime:   tc.end,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.conflict, result.HasConflict)
		})
	}
}

func TestCreateConflictSurfacedAndForceBypasses(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-201")

	first, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	_, err = svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
	}, "dispatcher")
	require.Error(t, err)
	appErr := apperror.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)

	// The conflict list names the colliding schedule
	conflicts, ok := appErr.Details.([]ConflictingSchedule)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	assert.Equal(t, first.ID, conflicts[0].ScheduleID)
	assert.Equal(t, v.Name, conflicts[0].VehicleName)

	forced, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
		Force:     true,
	}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, forced.Forced)
}

func TestDriverConflictAcrossVehicles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v1 := createVehicle(t, db, "AMB-202")
	v2 := createVehicle(t, db, "AMB-203")
	driverID := uint(42)

	_, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v1.ID,
		DriverID:  &driverID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	// Different vehicle, same driver, overlapping window
	result, err := svc.CheckConflict(scheduleTypes.ConflictCheckRequest{
		VehicleID: v2.ID,
		DriverID:  &driverID,
		StartTime: at(11, 0),
		EndTime:   at(13, 0),
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, v1.ID, result.Conflicts[0].VehicleID)
}

func TestCancelledSchedulesDoNotBlock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-204")

	sch, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(sch.ID, "dispatcher"))

	result, err := svc.CheckConflict(scheduleTypes.ConflictCheckRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestUpdateExcludesSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-205")

	sch, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	// Extending the same schedule must not collide with itself
	newEnd := at(12, 30)
	updated, err := svc.Update(sch.ID, scheduleTypes.ScheduleUpdateRequest{EndTime: &newEnd}, "dispatcher")
	require.NoError(t, err)
	assert.True(t, updated.EndTime.Equal(newEnd))
}

func TestScheduleTransitions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-206")

	sch, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	started, err := svc.Start(sch.ID, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, scheduleModel.ScheduleStatusInProgress, started.Status)

	// A second start is rejected
	_, err = svc.Start(sch.ID, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.As(err).Kind)

	completed, err := svc.Complete(sch.ID, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, scheduleModel.ScheduleStatusCompleted, completed.Status)

	// Terminal schedules cannot be cancelled
	err = svc.Delete(sch.ID, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.As(err).Kind)
}

func TestCreateWritesBookingBackReferences(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-207")
	booking := createBooking(t, db, at(0, 0))
	driverID := uint(7)

	sch, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		BookingID: &booking.ID,
		DriverID:  &driverID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	var fresh bookingModel.Booking
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	require.NotNil(t, fresh.AssignedVehicleID)
	assert.Equal(t, v.ID, *fresh.AssignedVehicleID)
	require.NotNil(t, fresh.ScheduleID)
	assert.Equal(t, sch.ID, *fresh.ScheduleID)
	require.NotNil(t, fresh.AssignedDriverID)
	assert.Equal(t, driverID, *fresh.AssignedDriverID)

	// Cancelling clears the back-reference
	require.NoError(t, svc.Delete(sch.ID, "dispatcher"))
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Nil(t, fresh.ScheduleID)
}

func TestAvailabilityEmptyDay(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-208")

	results, err := svc.Availability(at(0, 0), &v.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	availability := results[0]
	assert.True(t, availability.IsAvailableAllDay)
	require.Len(t, availability.Slots, 1)
	assert.Equal(t, "free", availability.Slots[0].Type)
	assert.True(t, availability.Slots[0].StartTime.Equal(at(6, 0)))
	assert.True(t, availability.Slots[0].EndTime.Equal(at(22, 0)))
}

func TestAvailabilitySingleSchedule(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	v := createVehicle(t, db, "AMB-209")
	booking := createBooking(t, db, at(0, 0))

	_, err := svc.Create(scheduleTypes.ScheduleCreateRequest{
		VehicleID: v.ID,
		BookingID: &booking.ID,
		StartTime: at(10, 0),
		EndTime:   at(12, 0),
	}, "dispatcher")
	require.NoError(t, err)

	results, err := svc.Availability(at(0, 0), &v.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	availability := results[0]
	assert.False(t, availability.IsAvailableAllDay)
	require.Len(t, availability.Slots, 3)

	assert.Equal(t, "free", availability.Slots[0].Type)
	assert.True(t, availability.Slots[0].StartTime.Equal(at(6, 0)))
	assert.True(t, availability.Slots[0].EndTime.Equal(at(10, 0)))

	assert.Equal(t, "busy", availability.Slots[1].Type)
	assert.True(t, availability.Slots[1].StartTime.Equal(at(10, 0)))
	assert.True(t, availability.Slots[1].EndTime.Equal(at(12, 0)))
	assert.Equal(t, "Test Patient", availability.Slots[1].PatientName)

	assert.Equal(t, "free", availability.Slots[2].Type)
	assert.True(t, availability.Slots[2].StartTime.Equal(at(12, 0)))
	assert.True(t, availability.Slots[2].EndTime.Equal(at(22, 0)))
}

func TestAvailabilitySkipsOutOfServiceVehicles(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSchedulingService(db)
	createVehicle(t, db, "AMB-210")
	broken := createVehicle(t, db, "AMB-211")
	require.NoError(t, db.Model(broken).Update("status", vehicleModel.VehicleStatusOutOfService).Error)

	results, err := svc.Availability(at(0, 0), nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AMB-210", results[0].Registration)
}

func TestConcurrentCreatesSerializeOnDriver(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One shared connection so both goroutines see the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	svc := NewSchedulingService(db)
	v1 := createVehicle(t, db, "AMB-212")
	v2 := createVehicle(t, db, "AMB-213")
	driverID := uint(77)

	// Different vehicles, same driver, overlapping windows: only one may land
	requests := []scheduleTypes.ScheduleCreateRequest{
		{VehicleID: v1.ID, DriverID: &driverID, StartTime: at(10, 0), EndTime: at(12, 0)},
		{VehicleID: v2.ID, DriverID: &driverID, StartTime: at(11, 0), EndTime: at(13, 0)},
	}

	errs := make([]error, len(requests))
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(requests[i], "dispatcher")
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, e := range errs {
		if e == nil {
			successes++
			continue
		}
		appErr := apperror.As(e)
		require.NotNil(t, appErr)
		assert.Equal(t, apperror.KindConflict, appErr.Kind)
		conflicts++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var count int64
	require.NoError(t, db.Model(&scheduleModel.Schedule{}).Where("driver_id = ?", driverID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
