package dispatch

import (
	"fmt"
	"sync"
	"testing"
	"time"

	bookingModel "ambulance-fleet/models/booking"
	driverModel "ambulance-fleet/models/driver"
	userModel "ambulance-fleet/models/user"
	"ambulance-fleet/types/apperror"
	driverTypes "ambulance-fleet/types/driver"
	"ambulance-fleet/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pushRecorder captures hub traffic so push behavior can be asserted.
type pushRecorder struct {
	mu         sync.Mutex
	broadcasts []string
	notified   []uint
}

func (r *pushRecorder) BroadcastToAdmins(eventType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, eventType)
}

func (r *pushRecorder) NotifyDriver(driverID uint, eventType string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, driverID)
}

func setupService(t *testing.T) (*DispatchService, *gorm.DB, *pushRecorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&bookingModel.Booking{},
		&bookingModel.Notification{},
		&driverModel.DriverStatus{},
	))

	recorder := &pushRecorder{}
	return NewDispatchService(db, recorder), db, recorder
}

var bookingSeq int

func createBooking(t *testing.T, db *gorm.DB, status bookingModel.BookingStatus, date time.Time) *bookingModel.Booking {
	t.Helper()

	bookingSeq++
	tag := fmt.Sprintf("%d", bookingSeq)
	u := userModel.User{
		Uuid:      "uuid-owner-" + tag,
		Username:  "owner-" + tag,
		LegalName: "Booking Owner",
		Phone:     fmt.Sprintf("01710%06d", bookingSeq),
	}
	require.NoError(t, db.Create(&u).Error)

	b := bookingModel.Booking{
		UserID:         u.ID,
		PatientName:    "Patient",
		PickupAddress:  "Clinic A",
		DropoffAddress: "Hospital B",
		BookingDate:    date,
		Status:         status,
		CreatedBy:      "test-admin",
	}
	require.NoError(t, db.Create(&b).Error)
	return &b
}

func TestStatusTransitionGraph(t *testing.T) {
	svc, _, _ := setupService(t)

	// offline -> en_route is not a legal driver move
	_, err := svc.UpdateStatus(1, driverTypes.StatusUpdateRequest{Status: "en_route"}, "driver1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.As(err).Kind)

	status, err := svc.UpdateStatus(1, driverTypes.StatusUpdateRequest{Status: "available"}, "driver1")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusAvailable, status.Status)

	status, err = svc.UpdateStatus(1, driverTypes.StatusUpdateRequest{Status: "offline"}, "driver1")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusOffline, status.Status)
}

func TestAssignAcceptFlow(t *testing.T) {
	svc, db, _ := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusPending, time.Now())

	status, err := svc.Assign(driverTypes.AssignRequest{DriverID: 5, BookingID: booking.ID}, "dispatcher")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusAssigned, status.Status)
	require.NotNil(t, status.CurrentBookingID)
	assert.Equal(t, booking.ID, *status.CurrentBookingID)

	var fresh bookingModel.Booking
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	require.NotNil(t, fresh.AssignedDriverID)
	assert.Equal(t, uint(5), *fresh.AssignedDriverID)

	status, err = svc.Accept(5, driverTypes.DecisionRequest{BookingID: booking.ID}, "driver5")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusEnRoute, status.Status)

	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusEnRoute, fresh.Status)

	var notifications int64
	require.NoError(t, db.Model(&bookingModel.Notification{}).Where("booking_id = ?", booking.ID).Count(&notifications).Error)
	assert.Equal(t, int64(1), notifications)
}

func TestRejectReturnsDriverAndClearsBooking(t *testing.T) {
	svc, db, _ := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusPending, time.Now())

	_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 9, BookingID: booking.ID}, "dispatcher")
	require.NoError(t, err)

	status, err := svc.Reject(9, driverTypes.DecisionRequest{BookingID: booking.ID, Reason: "too far"}, "driver9")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusAvailable, status.Status)
	assert.Nil(t, status.CurrentBookingID)

	var fresh bookingModel.Booking
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Nil(t, fresh.AssignedDriverID)
}

func TestAcceptWithoutPendingDispatchFails(t *testing.T) {
	svc, db, _ := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusPending, time.Now())

	_, err := svc.Accept(3, driverTypes.DecisionRequest{BookingID: booking.ID}, "driver3")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidState, apperror.As(err).Kind)
}

func TestTransportLifecycleCouplesBooking(t *testing.T) {
	svc, db, _ := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now())

	_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 7, BookingID: booking.ID}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Accept(7, driverTypes.DecisionRequest{BookingID: booking.ID}, "driver7")
	require.NoError(t, err)

	// Arrival at the pickup site leaves the booking en_route
	status, err := svc.UpdateStatus(7, driverTypes.StatusUpdateRequest{Status: "on_site"}, "driver7")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusOnSite, status.Status)

	var fresh bookingModel.Booking
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusEnRoute, fresh.Status)

	status, err = svc.UpdateStatus(7, driverTypes.StatusUpdateRequest{Status: "transporting"}, "driver7")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusTransporting, status.Status)

	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusTransporting, fresh.Status)

	// Finishing the transport completes the booking and frees the driver
	status, err = svc.UpdateStatus(7, driverTypes.StatusUpdateRequest{Status: "available"}, "driver7")
	require.NoError(t, err)
	assert.Equal(t, driverModel.StatusAvailable, status.Status)
	assert.Nil(t, status.CurrentBookingID)

	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusCompleted, fresh.Status)
}

func TestLocationUpdate(t *testing.T) {
	svc, _, _ := setupService(t)

	status, err := svc.UpdateLocation(11, driverTypes.LocationUpdateRequest{Lat: 23.78, Lng: 90.41})
	require.NoError(t, err)
	require.NotNil(t, status.LastLat)
	assert.InDelta(t, 23.78, *status.LastLat, 0.0001)
	require.NotNil(t, status.LastLng)
	assert.InDelta(t, 90.41, *status.LastLng, 0.0001)
	assert.NotNil(t, status.LastLocationAt)
}

func TestIsDriverAvailable(t *testing.T) {
	svc, db, _ := setupService(t)

	t.Run("no status row means available", func(t *testing.T) {
		available, _, err := svc.IsDriverAvailable(100, nil)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("on transport means unavailable", func(t *testing.T) {
		booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now())
		_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 101, BookingID: booking.ID}, "dispatcher")
		require.NoError(t, err)
		_, err = svc.Accept(101, driverTypes.DecisionRequest{BookingID: booking.ID}, "driver101")
		require.NoError(t, err)

		available, reason, err := svc.IsDriverAvailable(101, nil)
		require.NoError(t, err)
		assert.False(t, available)
		assert.Equal(t, "actively on a transport", reason)
	})

	t.Run("assigned for tomorrow still available today", func(t *testing.T) {
		booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now().AddDate(0, 0, 1))
		_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 102, BookingID: booking.ID}, "dispatcher")
		require.NoError(t, err)

		available, _, err := svc.IsDriverAvailable(102, nil)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("assigned for today is unavailable", func(t *testing.T) {
		booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now().Add(time.Minute))
		_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 103, BookingID: booking.ID}, "dispatcher")
		require.NoError(t, err)

		available, reason, err := svc.IsDriverAvailable(103, nil)
		require.NoError(t, err)
		assert.False(t, available)
		assert.Equal(t, "already booked for today", reason)
	})

	t.Run("assigned but booking cancelled means available", func(t *testing.T) {
		booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now().Add(2*time.Minute))
		_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 104, BookingID: booking.ID}, "dispatcher")
		require.NoError(t, err)
		require.NoError(t, db.Model(booking).Update("status", bookingModel.BookingStatusCancelled).Error)

		available, _, err := svc.IsDriverAvailable(104, nil)
		require.NoError(t, err)
		assert.True(t, available)
	})
}

func TestAssignNotifiesDriverAndAdmins(t *testing.T) {
	svc, db, hub := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusPending, time.Now())

	_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 30, BookingID: booking.ID}, "dispatcher")
	require.NoError(t, err)

	// The dispatched driver hears about it, and so does the dispatch board
	assert.Equal(t, []uint{30}, hub.notified)
	assert.Contains(t, hub.broadcasts, ws.EventDriverStatusUpdate)
}

func TestArrivalEnqueuesOwnerNotification(t *testing.T) {
	svc, db, _ := setupService(t)
	booking := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now())

	_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 41, BookingID: booking.ID}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Accept(41, driverTypes.DecisionRequest{BookingID: booking.ID}, "driver41")
	require.NoError(t, err)
	_, err = svc.UpdateStatus(41, driverTypes.StatusUpdateRequest{Status: "on_site"}, "driver41")
	require.NoError(t, err)

	var notifications []bookingModel.Notification
	require.NoError(t, db.Where("booking_id = ?", booking.ID).Order("id ASC").Find(&notifications).Error)
	require.Len(t, notifications, 2)
	assert.Contains(t, notifications[1].Message, "arrived")
	assert.Equal(t, booking.UserID, notifications[1].RecipientID)

	// Arrival alone never advances the booking past en_route
	var fresh bookingModel.Booking
	require.NoError(t, db.First(&fresh, booking.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusEnRoute, fresh.Status)
}

func TestAssignUnavailableDriverConflicts(t *testing.T) {
	svc, db, _ := setupService(t)
	first := createBooking(t, db, bookingModel.BookingStatusConfirmed, time.Now())
	second := createBooking(t, db, bookingModel.BookingStatusPending, time.Now().Add(time.Hour))

	_, err := svc.Assign(driverTypes.AssignRequest{DriverID: 20, BookingID: first.ID}, "dispatcher")
	require.NoError(t, err)
	_, err = svc.Accept(20, driverTypes.DecisionRequest{BookingID: first.ID}, "driver20")
	require.NoError(t, err)

	_, err = svc.Assign(driverTypes.AssignRequest{DriverID: 20, BookingID: second.ID}, "dispatcher")
	require.Error(t, err)
	assert.Equal(t, apperror.KindConflict, apperror.As(err).Kind)
}
