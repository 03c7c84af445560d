package vehicle

import (
	"fmt"
)

// VehicleCreateRequest represents the request payload for registering a vehicle
type VehicleCreateRequest struct {
	Name          string   `json:"name" validate:"required,min=1,max=255"`
	Registration  string   `json:"registration" validate:"required,min=1,max=64"`
	Type          string   `json:"type" validate:"required,min=1,max=50"`
	Capacity      int      `json:"capacity" validate:"omitempty,min=0"`
	Equipment     []string `json:"equipment" validate:"omitempty"`
	RequiredRoles []string `json:"required_roles" validate:"omitempty"`
	OptionalRoles []string `json:"optional_roles" validate:"omitempty"`
}

func (v VehicleCreateRequest) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("name is required")
	}
	if v.Registration == "" {
		return fmt.Errorf("registration is required")
	}
	if v.Type == "" {
		return fmt.Errorf("type is required")
	}
	if v.Capacity < 0 {
		return fmt.Errorf("capacity cannot be negative")
	}
	return nil
}

// VehicleUpdateRequest represents a partial update; nil fields are left untouched
type VehicleUpdateRequest struct {
	Name          *string   `json:"name,omitempty"`
	Type          *string   `json:"type,omitempty"`
	Capacity      *int      `json:"capacity,omitempty"`
	Equipment     *[]string `json:"equipment,omitempty"`
	RequiredRoles *[]string `json:"required_roles,omitempty"`
	OptionalRoles *[]string `json:"optional_roles,omitempty"`
	Status        *string   `json:"status,omitempty"`
}

func (v VehicleUpdateRequest) Validate() error {
	if v.Name != nil && *v.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if v.Capacity != nil && *v.Capacity < 0 {
		return fmt.Errorf("capacity cannot be negative")
	}
	return nil
}
