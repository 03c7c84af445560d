package vehicle

import (
	"errors"
	"time"

	bookingModel "ambulance-fleet/models/booking"
	teamModel "ambulance-fleet/models/team"
	vehicleModel "ambulance-fleet/models/vehicle"
	"ambulance-fleet/services/team_event"
	"ambulance-fleet/types/apperror"
	vehicleTypes "ambulance-fleet/types/vehicle"

	"gorm.io/gorm"
)

// VehicleService owns the fleet registry.
type VehicleService struct {
	db *gorm.DB
}

func NewVehicleService(db *gorm.DB) *VehicleService {
	return &VehicleService{db: db}
}

// Create registers a new vehicle with an empty roster.
func (s *VehicleService) Create(req vehicleTypes.VehicleCreateRequest, actor string) (*vehicleModel.Vehicle, error) {
	var existing vehicleModel.Vehicle
	err := s.db.Where("registration = ? AND deleted_at IS NULL", req.Registration).First(&existing).Error
	if err == nil {
		return nil, apperror.Conflict("a vehicle with this registration already exists", map[string]interface{}{
			"vehicle_id": existing.ID,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	vehicle := vehicleModel.Vehicle{
		Name:          req.Name,
		Registration:  req.Registration,
		Type:          req.Type,
		Capacity:      req.Capacity,
		Equipment:     req.Equipment,
		RequiredRoles: req.RequiredRoles,
		OptionalRoles: req.OptionalRoles,
		Status:        vehicleModel.VehicleStatusAvailable,
		CreatedBy:     actor,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&vehicle).Error; err != nil {
			return err
		}
		return team_event.Record(tx, &teamModel.TeamAuditEntry{
			VehicleID: vehicle.ID,
			Action:    teamModel.AuditActionVehicleCreated,
			ActorID:   actor,
		})
	})
	if err != nil {
		return nil, err
	}

	return &vehicle, nil
}

// Get returns a vehicle by id.
func (s *VehicleService) Get(id uint) (*vehicleModel.Vehicle, error) {
	var vehicle vehicleModel.Vehicle
	err := s.db.Where("id = ? AND deleted_at IS NULL", id).First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("vehicle not found")
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// List returns all non-deleted vehicles, optionally filtered by status.
func (s *VehicleService) List(status string) ([]vehicleModel.Vehicle, error) {
	query := s.db.Where("deleted_at IS NULL")
	if status != "" {
		if !vehicleModel.VehicleStatus(status).IsValid() {
			return nil, apperror.Validation("unknown vehicle status: " + status)
		}
		query = query.Where("status = ?", status)
	}

	var vehicles []vehicleModel.Vehicle
	if err := query.Order("name ASC").Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// VehicleDetail pairs a vehicle with its active crew for display.
type VehicleDetail struct {
	vehicleModel.Vehicle
	Roster []teamModel.TeamAssignment `json:"roster"`
}

// GetWithRoster returns a vehicle together with its active assignments.
func (s *VehicleService) GetWithRoster(id uint) (*VehicleDetail, error) {
	vehicle, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var roster []teamModel.TeamAssignment
	err = s.db.Preload("User").
		Where("vehicle_id = ? AND is_active = ?", id, true).
		Order("assigned_at ASC").
		Find(&roster).Error
	if err != nil {
		return nil, err
	}

	return &VehicleDetail{Vehicle: *vehicle, Roster: roster}, nil
}

// Update merges the non-nil fields of the patch into the vehicle.
func (s *VehicleService) Update(id uint, req vehicleTypes.VehicleUpdateRequest, actor string) (*vehicleModel.Vehicle, error) {
	vehicle, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_by": actor}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.Equipment != nil {
		updates["equipment"] = vehicleModel.StringList(*req.Equipment)
	}
	if req.RequiredRoles != nil {
		updates["required_roles"] = vehicleModel.StringList(*req.RequiredRoles)
	}
	if req.OptionalRoles != nil {
		updates["optional_roles"] = vehicleModel.StringList(*req.OptionalRoles)
	}
	if req.Status != nil {
		if !vehicleModel.VehicleStatus(*req.Status).IsValid() {
			return nil, apperror.Validation("unknown vehicle status: " + *req.Status)
		}
		updates["status"] = *req.Status
	}

	if err := s.db.Model(vehicle).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Delete removes a vehicle. It fails with Conflict while any booking
// referencing the vehicle is in active transport; the vehicle's assignments
// are soft-deactivated in the same transaction.
func (s *VehicleService) Delete(id uint, actor string) error {
	vehicle, err := s.Get(id)
	if err != nil {
		return err
	}

	var activeBookings []bookingModel.Booking
	err = s.db.Where("assigned_vehicle_id = ? AND status IN ?", id, []bookingModel.BookingStatus{
		bookingModel.BookingStatusEnRoute,
		bookingModel.BookingStatusPickedUp,
		bookingModel.BookingStatusTransporting,
	}).Find(&activeBookings).Error
	if err != nil {
		return err
	}
	if len(activeBookings) > 0 {
		ids := make([]uint, 0, len(activeBookings))
		for _, b := range activeBookings {
			ids = append(ids, b.ID)
		}
		return apperror.Conflict("vehicle has bookings in active transport", map[string]interface{}{
			"booking_ids": ids,
		})
	}

	nowTime := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&teamModel.TeamAssignment{}).
			Where("vehicle_id = ? AND is_active = ?", id, true).
			Updates(map[string]interface{}{
				"is_active":      false,
				"removed_at":     nowTime,
				"removed_by":     actor,
				"removed_reason": "vehicle removed from fleet",
			}).Error; err != nil {
			return err
		}

		return tx.Model(vehicle).Updates(map[string]interface{}{
			"deleted_at": nowTime,
			"updated_by": actor,
		}).Error
	})
}
