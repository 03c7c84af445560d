package schedule

import (
	"fmt"
	"time"
)

// ScheduleCreateRequest represents the request payload for committing a
// vehicle (and optionally a driver) to a time window
type ScheduleCreateRequest struct {
	VehicleID   uint      `json:"vehicle_id" validate:"required"`
	BookingID   *uint     `json:"booking_id,omitempty"`
	BookingType string    `json:"booking_type" validate:"omitempty,max=50"`
	DriverID    *uint     `json:"driver_id,omitempty"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
	Force       bool      `json:"force"`
}

func (r ScheduleCreateRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.StartTime.IsZero() {
		return fmt.Errorf("start_time is required")
	}
	if r.EndTime.IsZero() {
		return fmt.Errorf("end_time is required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

// ScheduleUpdateRequest represents a partial update of an existing schedule;
// nil fields are left untouched
type ScheduleUpdateRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	DriverID  *uint      `json:"driver_id,omitempty"`
	Force     bool       `json:"force"`
}

func (r ScheduleUpdateRequest) Validate() error {
	if r.StartTime != nil && r.EndTime != nil && !r.StartTime.Before(*r.EndTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}

// ConflictCheckRequest represents a dry-run overlap check
type ConflictCheckRequest struct {
	VehicleID         uint      `json:"vehicle_id" validate:"required"`
	DriverID          *uint     `json:"driver_id,omitempty"`
	StartTime         time.Time `json:"start_time" validate:"required"`
	EndTime           time.Time `json:"end_time" validate:"required"`
	ExcludeScheduleID *uint     `json:"exclude_schedule_id,omitempty"`
}

func (r ConflictCheckRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !r.StartTime.Before(r.EndTime) {
		return fmt.Errorf("end_time must be after start_time")
	}
	return nil
}
