package team

import (
	"fmt"
)

// AssignRequest represents the request payload for assigning a crew member
type AssignRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	UserID    uint   `json:"user_id" validate:"required"`
	Role      string `json:"role" validate:"required,min=1,max=50"`
	IsPrimary bool   `json:"is_primary"`
	IsRemote  bool   `json:"is_remote"`
}

func (r AssignRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	if r.Role == "" {
		return fmt.Errorf("role is required")
	}
	return nil
}

// RemoveRequest represents the request payload for removing a crew member
type RemoveRequest struct {
	VehicleID     uint   `json:"vehicle_id" validate:"required"`
	UserID        uint   `json:"user_id" validate:"required"`
	Reason        string `json:"reason" validate:"omitempty"`
	HandoverNotes string `json:"handover_notes" validate:"omitempty"`
}

func (r RemoveRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// ReplaceRequest represents the request payload for a shift handover
type ReplaceRequest struct {
	VehicleID     uint   `json:"vehicle_id" validate:"required"`
	OldUserID     uint   `json:"old_user_id" validate:"required"`
	NewUserID     uint   `json:"new_user_id" validate:"required"`
	Role          string `json:"role" validate:"omitempty,max=50"`
	Reason        string `json:"reason" validate:"omitempty"`
	HandoverNotes string `json:"handover_notes" validate:"omitempty"`
}

func (r ReplaceRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.OldUserID == 0 {
		return fmt.Errorf("old_user_id is required")
	}
	if r.NewUserID == 0 {
		return fmt.Errorf("new_user_id is required")
	}
	if r.OldUserID == r.NewUserID {
		return fmt.Errorf("old_user_id and new_user_id must differ")
	}
	return nil
}

// RemoteDoctorRequest represents the request payload for remote doctor join/leave
type RemoteDoctorRequest struct {
	VehicleID uint `json:"vehicle_id" validate:"required"`
	UserID    uint `json:"user_id" validate:"required"`
}

func (r RemoteDoctorRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.UserID == 0 {
		return fmt.Errorf("user_id is required")
	}
	return nil
}

// LockRequest represents the request payload for locking a vehicle's crew
type LockRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	MissionID string `json:"mission_id" validate:"omitempty,max=64"`
}

func (r LockRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	return nil
}

// UnlockRequest represents the request payload for releasing a mission lock
type UnlockRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	Reason    string `json:"reason" validate:"omitempty"`
}

func (r UnlockRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	return nil
}

// EmergencyOverrideRequest represents a mid-mission crew change. Reason is
// mandatory.
type EmergencyOverrideRequest struct {
	VehicleID    uint   `json:"vehicle_id" validate:"required"`
	NewUserID    uint   `json:"new_user_id" validate:"required"`
	NewRole      string `json:"new_role" validate:"required,min=1,max=50"`
	IsPrimary    bool   `json:"is_primary"`
	RemoveUserID *uint  `json:"remove_user_id,omitempty"`
	Reason       string `json:"reason" validate:"required,min=1"`
}

func (r EmergencyOverrideRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	if r.NewUserID == 0 {
		return fmt.Errorf("new_user_id is required")
	}
	if r.NewRole == "" {
		return fmt.Errorf("new_role is required")
	}
	return nil
}

// CompleteMissionRequest represents the request payload for ending a mission
// and disbanding the crew
type CompleteMissionRequest struct {
	VehicleID uint   `json:"vehicle_id" validate:"required"`
	BookingID *uint  `json:"booking_id,omitempty"`
	Notes     string `json:"notes" validate:"omitempty"`
}

func (r CompleteMissionRequest) Validate() error {
	if r.VehicleID == 0 {
		return fmt.Errorf("vehicle_id is required")
	}
	return nil
}
