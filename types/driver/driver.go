package driver

import (
	"fmt"

	driverModel "ambulance-fleet/models/driver"
)

// StatusUpdateRequest represents a driver-initiated status change
type StatusUpdateRequest struct {
	Status    string `json:"status" validate:"required"`
	BookingID *uint  `json:"booking_id,omitempty"`
}

func (r StatusUpdateRequest) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	if !driverModel.Status(r.Status).IsValid() {
		return fmt.Errorf("unknown driver status: %s", r.Status)
	}
	if driverModel.Status(r.Status) == driverModel.StatusAssigned {
		return fmt.Errorf("assigned is set by dispatch, not by the driver")
	}
	return nil
}

// LocationUpdateRequest represents a driver location ping
type LocationUpdateRequest struct {
	Lat float64 `json:"lat" validate:"required"`
	Lng float64 `json:"lng" validate:"required"`
}

func (r LocationUpdateRequest) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("lat out of range")
	}
	if r.Lng < -180 || r.Lng > 180 {
		return fmt.Errorf("lng out of range")
	}
	return nil
}

// AssignRequest represents an admin dispatch action pairing a driver with a
// booking
type AssignRequest struct {
	DriverID  uint `json:"driver_id" validate:"required"`
	BookingID uint `json:"booking_id" validate:"required"`
}

func (r AssignRequest) Validate() error {
	if r.DriverID == 0 {
		return fmt.Errorf("driver_id is required")
	}
	if r.BookingID == 0 {
		return fmt.Errorf("booking_id is required")
	}
	return nil
}

// DecisionRequest represents a driver's accept/reject response to a dispatch
type DecisionRequest struct {
	BookingID uint   `json:"booking_id" validate:"required"`
	Reason    string `json:"reason" validate:"omitempty"`
}

func (r DecisionRequest) Validate() error {
	if r.BookingID == 0 {
		return fmt.Errorf("booking_id is required")
	}
	return nil
}
