package dispatch

import (
	"errors"
	"fmt"
	"time"

	bookingModel "ambulance-fleet/models/booking"
	driverModel "ambulance-fleet/models/driver"
	"ambulance-fleet/types/apperror"
	driverTypes "ambulance-fleet/types/driver"
	"ambulance-fleet/utils"
	"ambulance-fleet/ws"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Pusher delivers realtime events to connected clients. *ws.Hub satisfies it.
type Pusher interface {
	BroadcastToAdmins(eventType string, data interface{})
	NotifyDriver(driverID uint, eventType string, data interface{})
}

// DispatchService owns the per-driver state machine and its coupling to the
// booking lifecycle. Mutations serialize on the driver key.
type DispatchService struct {
	db    *gorm.DB
	hub   Pusher
	locks *utils.KeyedMutex
}

func NewDispatchService(db *gorm.DB, hub Pusher) *DispatchService {
	return &DispatchService{
		db:    db,
		hub:   hub,
		locks: utils.NewKeyedMutex(),
	}
}

func driverKey(id uint) string {
	return fmt.Sprintf("driver:%d", id)
}

func (s *DispatchService) getOrCreateStatus(tx *gorm.DB, driverID uint) (*driverModel.DriverStatus, error) {
	var status driverModel.DriverStatus
	err := tx.Where("driver_id = ?", driverID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = driverModel.DriverStatus{
			DriverID: driverID,
			Status:   driverModel.StatusOffline,
		}
		if err := tx.Create(&status).Error; err != nil {
			return nil, err
		}
		return &status, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetStatus returns the driver's current status row, creating an offline one
// on first contact.
func (s *DispatchService) GetStatus(driverID uint) (*driverModel.DriverStatus, error) {
	return s.getOrCreateStatus(s.db, driverID)
}

// UpdateStatus applies a driver-initiated status change. Transitions outside
// the allowed graph fail with InvalidState. Entering a transport state writes
// the mapped status onto the referenced booking and enqueues a notification
// for the booking owner; every change is broadcast to admin observers.
func (s *DispatchService) UpdateStatus(driverID uint, req driverTypes.StatusUpdateRequest, actor string) (*driverModel.DriverStatus, error) {
	s.locks.Lock(driverKey(driverID))
	defer s.locks.Unlock(driverKey(driverID))

	status, err := s.getOrCreateStatus(s.db, driverID)
	if err != nil {
		return nil, err
	}

	target := driverModel.Status(req.Status)
	if !driverModel.CanTransition(status.Status, target) {
		return nil, apperror.InvalidState("driver status transition not allowed", map[string]interface{}{
			"from": status.Status,
			"to":   target,
		})
	}

	previous := status.Status
	updates := map[string]interface{}{"status": target}
	if target == driverModel.StatusAvailable || target == driverModel.StatusOffline {
		// Leaving the working states always detaches the booking
		updates["current_booking_id"] = nil
	} else if req.BookingID != nil {
		updates["current_booking_id"] = *req.BookingID
	}

	bookingID := status.CurrentBookingID
	if req.BookingID != nil {
		bookingID = req.BookingID
	}

	transportCompleted := previous == driverModel.StatusTransporting && target == driverModel.StatusAvailable

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(status).Updates(updates).Error; err != nil {
			return err
		}
		if bookingID == nil {
			return nil
		}

		switch {
		case target == driverModel.StatusEnRoute:
			return s.updateBooking(tx, *bookingID, bookingModel.BookingStatusEnRoute, actor, "Your driver is on the way")
		case target == driverModel.StatusOnSite:
			// The booking stays en_route until pickup; the owner still hears about the arrival
			return s.updateBooking(tx, *bookingID, bookingModel.BookingStatusEnRoute, actor, "Your driver has arrived at the pickup location")
		case target == driverModel.StatusTransporting:
			return s.updateBooking(tx, *bookingID, bookingModel.BookingStatusTransporting, actor, "Patient picked up, transport in progress")
		case transportCompleted:
			return s.updateBooking(tx, *bookingID, bookingModel.BookingStatusCompleted, actor, "Transport completed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.GetStatus(driverID)
	if err != nil {
		return nil, err
	}

	eventType := ws.EventDriverStatusUpdate
	if transportCompleted {
		eventType = ws.EventTransportCompleted
	}
	s.hub.BroadcastToAdmins(eventType, map[string]interface{}{
		"driver_id":  driverID,
		"status":     fresh.Status,
		"booking_id": bookingID,
	})

	return fresh, nil
}

func (s *DispatchService) updateBooking(tx *gorm.DB, bookingID uint, status bookingModel.BookingStatus, actor, message string) error {
	var booking bookingModel.Booking
	err := tx.First(&booking, bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The booking may have been cancelled out from under the driver
		return nil
	}
	if err != nil {
		return err
	}

	if err := tx.Model(&booking).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": actor,
	}).Error; err != nil {
		return err
	}

	notification := bookingModel.Notification{
		BookingID:   booking.ID,
		RecipientID: booking.UserID,
		Message:     message,
	}
	return tx.Create(&notification).Error
}

// UpdateLocation records a driver location ping and broadcasts it.
func (s *DispatchService) UpdateLocation(driverID uint, req driverTypes.LocationUpdateRequest) (*driverModel.DriverStatus, error) {
	status, err := s.getOrCreateStatus(s.db, driverID)
	if err != nil {
		return nil, err
	}

	nowTime := time.Now()
	if err := s.db.Model(status).Updates(map[string]interface{}{
		"last_lat":         req.Lat,
		"last_lng":         req.Lng,
		"last_location_at": nowTime,
	}).Error; err != nil {
		return nil, err
	}

	s.hub.BroadcastToAdmins(ws.EventLocationUpdate, map[string]interface{}{
		"driver_id": driverID,
		"lat":       req.Lat,
		"lng":       req.Lng,
		"at":        nowTime,
	})

	return s.GetStatus(driverID)
}

// Assign is the admin dispatch action: it pairs an available driver with a
// booking and moves the driver to assigned.
func (s *DispatchService) Assign(req driverTypes.AssignRequest, actor string) (*driverModel.DriverStatus, error) {
	s.locks.Lock(driverKey(req.DriverID))
	defer s.locks.Unlock(driverKey(req.DriverID))

	var booking bookingModel.Booking
	err := s.db.First(&booking, req.BookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("booking not found")
	}
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, apperror.InvalidState("booking already reached a final state", map[string]interface{}{
			"booking_status": booking.Status,
		})
	}

	available, reason, err := s.IsDriverAvailable(req.DriverID, &booking)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperror.Conflict("driver is not available for this booking", map[string]interface{}{
			"reason": reason,
		})
	}

	status, err := s.getOrCreateStatus(s.db, req.DriverID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(status).Updates(map[string]interface{}{
			"status":             driverModel.StatusAssigned,
			"current_booking_id": req.BookingID,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&booking).Updates(map[string]interface{}{
			"assigned_driver_id": req.DriverID,
			"updated_by":         actor,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.hub.NotifyDriver(req.DriverID, ws.EventDriverStatusUpdate, map[string]interface{}{
		"driver_id":  req.DriverID,
		"status":     driverModel.StatusAssigned,
		"booking_id": req.BookingID,
	})
	s.hub.BroadcastToAdmins(ws.EventDriverStatusUpdate, map[string]interface{}{
		"driver_id":  req.DriverID,
		"status":     driverModel.StatusAssigned,
		"booking_id": req.BookingID,
	})

	return s.GetStatus(req.DriverID)
}

// Accept is the driver's confirmation of a dispatch: assigned -> en_route.
func (s *DispatchService) Accept(driverID uint, req driverTypes.DecisionRequest, actor string) (*driverModel.DriverStatus, error) {
	s.locks.Lock(driverKey(driverID))
	defer s.locks.Unlock(driverKey(driverID))

	status, err := s.getOrCreateStatus(s.db, driverID)
	if err != nil {
		return nil, err
	}
	if status.Status != driverModel.StatusAssigned || status.CurrentBookingID == nil || *status.CurrentBookingID != req.BookingID {
		return nil, apperror.InvalidState("driver has no pending dispatch for this booking", map[string]interface{}{
			"driver_status": status.Status,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(status).Update("status", driverModel.StatusEnRoute).Error; err != nil {
			return err
		}
		return s.updateBooking(tx, req.BookingID, bookingModel.BookingStatusEnRoute, actor, "A driver accepted your transport request")
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToAdmins(ws.EventDriverAccepted, map[string]interface{}{
		"driver_id":  driverID,
		"booking_id": req.BookingID,
	})

	return s.GetStatus(driverID)
}

// Reject is the driver's refusal of a dispatch: the driver returns to
// available and the booking's driver reference is cleared for re-dispatch.
func (s *DispatchService) Reject(driverID uint, req driverTypes.DecisionRequest, actor string) (*driverModel.DriverStatus, error) {
	s.locks.Lock(driverKey(driverID))
	defer s.locks.Unlock(driverKey(driverID))

	status, err := s.getOrCreateStatus(s.db, driverID)
	if err != nil {
		return nil, err
	}
	if status.Status != driverModel.StatusAssigned || status.CurrentBookingID == nil || *status.CurrentBookingID != req.BookingID {
		return nil, apperror.InvalidState("driver has no pending dispatch for this booking", map[string]interface{}{
			"driver_status": status.Status,
		})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(status).Updates(map[string]interface{}{
			"status":             driverModel.StatusAvailable,
			"current_booking_id": nil,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&bookingModel.Booking{}).
			Where("id = ? AND assigned_driver_id = ?", req.BookingID, driverID).
			Updates(map[string]interface{}{
				"assigned_driver_id": nil,
				"updated_by":         actor,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	s.hub.BroadcastToAdmins(ws.EventDriverRejected, map[string]interface{}{
		"driver_id":  driverID,
		"booking_id": req.BookingID,
		"reason":     req.Reason,
	})

	return s.GetStatus(driverID)
}

// IsDriverAvailable decides whether the driver may take new work. The second
// return value is a display reason when unavailable.
//
// An assigned driver whose booking is confirmed for a different calendar date
// still counts as available; the comparison is by date only, not time window.
func (s *DispatchService) IsDriverAvailable(driverID uint, candidate *bookingModel.Booking) (bool, string, error) {
	var status driverModel.DriverStatus
	err := s.db.Where("driver_id = ?", driverID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, "", nil
	}
	if err != nil {
		return false, "", err
	}

	if status.Status == driverModel.StatusOffline || status.Status == driverModel.StatusAvailable {
		return true, "", nil
	}

	if status.Status.IsOnTransport() {
		return false, "actively on a transport", nil
	}

	// status == assigned: decide by the referenced booking
	if status.CurrentBookingID == nil {
		return true, "", nil
	}

	var current bookingModel.Booking
	err = s.db.First(&current, *status.CurrentBookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, "", nil
	}
	if err != nil {
		return false, "", err
	}

	if current.Status.IsTerminal() || current.Status == bookingModel.BookingStatusPending {
		return true, "", nil
	}
	if current.Status.IsActiveTransport() {
		return false, "actively on a transport", nil
	}
	if current.Status == bookingModel.BookingStatusConfirmed {
		today := now.BeginningOfDay()
		bookingDay := now.With(current.BookingDate).BeginningOfDay()
		if !bookingDay.Equal(today) {
			return true, "", nil
		}
		return false, "already booked for today", nil
	}

	// Permissive default
	return true, "", nil
}

// ListStatuses returns every driver status row for the dispatch board.
func (s *DispatchService) ListStatuses() ([]driverModel.DriverStatus, error) {
	var statuses []driverModel.DriverStatus
	err := s.db.Order("driver_id ASC").Find(&statuses).Error
	return statuses, err
}

// CurrentBooking returns the booking the driver is currently working, if any.
func (s *DispatchService) CurrentBooking(driverID uint) (*bookingModel.Booking, error) {
	status, err := s.GetStatus(driverID)
	if err != nil {
		return nil, err
	}
	if status.CurrentBookingID == nil {
		return nil, apperror.NotFound("driver has no current booking")
	}
	var booking bookingModel.Booking
	err = s.db.First(&booking, *status.CurrentBookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("driver has no current booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
