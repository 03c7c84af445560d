package scheduling

import (
	"errors"
	"fmt"
	"time"

	bookingModel "ambulance-fleet/models/booking"
	scheduleModel "ambulance-fleet/models/schedule"
	vehicleModel "ambulance-fleet/models/vehicle"
	"ambulance-fleet/types/apperror"
	scheduleTypes "ambulance-fleet/types/schedule"
	"ambulance-fleet/utils"

	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// Default day window for availability queries.
const (
	DefaultWindowStartHour = 6
	DefaultWindowEndHour   = 22
)

// SchedulingService owns the timeline: conflict detection, schedule lifecycle
// and the availability sweep. Mutations serialize on the vehicle key and, when
// a driver is involved, on the driver key.
type SchedulingService struct {
	db    *gorm.DB
	locks *utils.KeyedMutex
}

func NewSchedulingService(db *gorm.DB) *SchedulingService {
	return &SchedulingService{
		db:    db,
		locks: utils.NewKeyedMutex(),
	}
}

func vehicleKey(id uint) string {
	return fmt.Sprintf("vehicle:%d", id)
}

func driverKey(id uint) string {
	return fmt.Sprintf("driver:%d", id)
}

// ConflictingSchedule is one timeline collision, enriched for operator review.
type ConflictingSchedule struct {
	ScheduleID  uint      `json:"schedule_id"`
	VehicleID   uint      `json:"vehicle_id"`
	VehicleName string    `json:"vehicle_name,omitempty"`
	DriverID    *uint     `json:"driver_id,omitempty"`
	BookingID   *uint     `json:"booking_id,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
}

// ConflictResult is the outcome of a conflict check.
type ConflictResult struct {
	HasConflict bool                  `json:"has_conflict"`
	Conflicts   []ConflictingSchedule `json:"conflicting_schedules"`
}

// CheckConflict tests a candidate interval [start, end) against the vehicle's
// blocking schedules, and against the driver's when one is supplied. Results
// from both scopes are merged and de-duplicated by schedule id.
func (s *SchedulingService) CheckConflict(req scheduleTypes.ConflictCheckRequest) (*ConflictResult, error) {
	result := &ConflictResult{Conflicts: []ConflictingSchedule{}}

	vehicleConflicts, err := s.findOverlapping("vehicle_id = ?", req.VehicleID, req.StartTime, req.EndTime, req.ExcludeScheduleID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool)
	for _, sch := range vehicleConflicts {
		seen[sch.ID] = true
		result.Conflicts = append(result.Conflicts, s.enrich(sch))
	}

	if req.DriverID != nil {
		driverConflicts, err := s.findOverlapping("driver_id = ?", *req.DriverID, req.StartTime, req.EndTime, req.ExcludeScheduleID)
		if err != nil {
			return nil, err
		}
		for _, sch := range driverConflicts {
			if seen[sch.ID] {
				continue
			}
			seen[sch.ID] = true
			result.Conflicts = append(result.Conflicts, s.enrich(sch))
		}
	}

	result.HasConflict = len(result.Conflicts) > 0
	return result, nil
}

func (s *SchedulingService) findOverlapping(scopeCond string, scopeID uint, start, end time.Time, exclude *uint) ([]scheduleModel.Schedule, error) {
	query := s.db.Where(scopeCond, scopeID).
		Where("status IN ?", []scheduleModel.ScheduleStatus{
			scheduleModel.ScheduleStatusScheduled,
			scheduleModel.ScheduleStatusInProgress,
		}).
		// Half-open overlap: start < existing.end AND existing.start < end
		Where("start_time < ? AND ? < end_time", end, start)
	if exclude != nil {
		query = query.Where("id != ?", *exclude)
	}

	var schedules []scheduleModel.Schedule
	err := query.Order("start_time ASC").Find(&schedules).Error
	return schedules, err
}

func (s *SchedulingService) enrich(sch scheduleModel.Schedule) ConflictingSchedule {
	conflict := ConflictingSchedule{
		ScheduleID: sch.ID,
		VehicleID:  sch.VehicleID,
		DriverID:   sch.DriverID,
		BookingID:  sch.BookingID,
		StartTime:  sch.StartTime,
		EndTime:    sch.EndTime,
		Status:     sch.Status.String(),
	}

	var vehicle vehicleModel.Vehicle
	if err := s.db.Select("name").First(&vehicle, sch.VehicleID).Error; err == nil {
		conflict.VehicleName = vehicle.Name
	}
	if sch.BookingID != nil {
		var booking bookingModel.Booking
		if err := s.db.Select("patient_name").First(&booking, *sch.BookingID).Error; err == nil {
			conflict.PatientName = booking.PatientName
		}
	}
	return conflict
}

// Create commits a vehicle (and optionally a driver) to a time window. On
// overlap it fails with Conflict carrying the colliding schedules; the caller
// may resubmit with force=true to record the schedule anyway.
func (s *SchedulingService) Create(req scheduleTypes.ScheduleCreateRequest, actor string) (*scheduleModel.Schedule, error) {
	// Lock order is always vehicle then driver.
	s.locks.Lock(vehicleKey(req.VehicleID))
	defer s.locks.Unlock(vehicleKey(req.VehicleID))
	if req.DriverID != nil {
		s.locks.Lock(driverKey(*req.DriverID))
		defer s.locks.Unlock(driverKey(*req.DriverID))
	}

	var vehicle vehicleModel.Vehicle
	err := s.db.Where("id = ? AND deleted_at IS NULL", req.VehicleID).First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("vehicle not found")
	}
	if err != nil {
		return nil, err
	}
	if !vehicle.Status.CanBeScheduled() {
		return nil, apperror.InvalidState("vehicle cannot take new schedules in its current status", map[string]interface{}{
			"vehicle_status": vehicle.Status,
		})
	}

	if !req.Force {
		check, err := s.CheckConflict(scheduleTypes.ConflictCheckRequest{
			VehicleID: req.VehicleID,
			DriverID:  req.DriverID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		if err != nil {
			return nil, err
		}
		if check.HasConflict {
			return nil, apperror.Conflict("schedule overlaps existing commitments", check.Conflicts)
		}
	}

	schedule := scheduleModel.Schedule{
		VehicleID:   req.VehicleID,
		BookingID:   req.BookingID,
		BookingType: req.BookingType,
		DriverID:    req.DriverID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      scheduleModel.ScheduleStatusScheduled,
		Forced:      req.Force,
		CreatedBy:   actor,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&schedule).Error; err != nil {
			return err
		}
		if req.BookingID != nil {
			updates := map[string]interface{}{
				"assigned_vehicle_id": req.VehicleID,
				"schedule_id":         schedule.ID,
				"updated_by":          actor,
			}
			if req.DriverID != nil {
				updates["assigned_driver_id"] = *req.DriverID
			}
			if err := tx.Model(&bookingModel.Booking{}).Where("id = ?", *req.BookingID).
				Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &schedule, nil
}

// Update modifies an existing schedule's window or driver, re-running the
// conflict check with the schedule itself excluded.
func (s *SchedulingService) Update(id uint, req scheduleTypes.ScheduleUpdateRequest, actor string) (*scheduleModel.Schedule, error) {
	schedule, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(vehicleKey(schedule.VehicleID))
	defer s.locks.Unlock(vehicleKey(schedule.VehicleID))

	if !schedule.Status.BlocksTimeline() {
		return nil, apperror.InvalidState("only scheduled or in-progress schedules can be updated", map[string]interface{}{
			"status": schedule.Status,
		})
	}

	start := schedule.StartTime
	end := schedule.EndTime
	driverID := schedule.DriverID
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if req.DriverID != nil {
		driverID = req.DriverID
	}
	if !start.Before(end) {
		return nil, apperror.Validation("end_time must be after start_time")
	}
	if driverID != nil {
		s.locks.Lock(driverKey(*driverID))
		defer s.locks.Unlock(driverKey(*driverID))
	}

	if !req.Force {
		check, err := s.CheckConflict(scheduleTypes.ConflictCheckRequest{
			VehicleID:         schedule.VehicleID,
			DriverID:          driverID,
			StartTime:         start,
			EndTime:           end,
			ExcludeScheduleID: &schedule.ID,
		})
		if err != nil {
			return nil, err
		}
		if check.HasConflict {
			return nil, apperror.Conflict("schedule overlaps existing commitments", check.Conflicts)
		}
	}

	updates := map[string]interface{}{
		"start_time": start,
		"end_time":   end,
		"updated_by": actor,
	}
	if req.DriverID != nil {
		updates["driver_id"] = *req.DriverID
	}
	if req.Force {
		updates["forced"] = true
	}
	if err := s.db.Model(schedule).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Get returns a schedule by id.
func (s *SchedulingService) Get(id uint) (*scheduleModel.Schedule, error) {
	var schedule scheduleModel.Schedule
	err := s.db.First(&schedule, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("schedule not found")
	}
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListForVehicle returns a vehicle's schedules, newest first.
func (s *SchedulingService) ListForVehicle(vehicleID uint, limit int) ([]scheduleModel.Schedule, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var schedules []scheduleModel.Schedule
	err := s.db.Where("vehicle_id = ?", vehicleID).
		Order("start_time DESC").
		Limit(limit).
		Find(&schedules).Error
	return schedules, err
}

// Start moves a schedule to in_progress.
func (s *SchedulingService) Start(id uint, actor string) (*scheduleModel.Schedule, error) {
	schedule, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !schedule.Status.CanStart() {
		return nil, apperror.InvalidState("schedule cannot be started", map[string]interface{}{
			"status": schedule.Status,
		})
	}
	if err := s.db.Model(schedule).Updates(map[string]interface{}{
		"status":     scheduleModel.ScheduleStatusInProgress,
		"updated_by": actor,
	}).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Complete moves a schedule to completed.
func (s *SchedulingService) Complete(id uint, actor string) (*scheduleModel.Schedule, error) {
	schedule, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !schedule.Status.CanComplete() {
		return nil, apperror.InvalidState("schedule cannot be completed", map[string]interface{}{
			"status": schedule.Status,
		})
	}
	if err := s.db.Model(schedule).Updates(map[string]interface{}{
		"status":     scheduleModel.ScheduleStatusCompleted,
		"updated_by": actor,
	}).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete soft-cancels a schedule and clears the booking's back-reference.
func (s *SchedulingService) Delete(id uint, actor string) error {
	schedule, err := s.Get(id)
	if err != nil {
		return err
	}
	if !schedule.Status.CanCancel() {
		return apperror.InvalidState("schedule cannot be cancelled", map[string]interface{}{
			"status": schedule.Status,
		})
	}

	nowTime := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(schedule).Updates(map[string]interface{}{
			"status":       scheduleModel.ScheduleStatusCancelled,
			"cancelled_at": nowTime,
			"cancelled_by": actor,
			"updated_by":   actor,
		}).Error; err != nil {
			return err
		}
		if schedule.BookingID != nil {
			if err := tx.Model(&bookingModel.Booking{}).
				Where("id = ? AND schedule_id = ?", *schedule.BookingID, schedule.ID).
				Updates(map[string]interface{}{
					"schedule_id": nil,
					"updated_by":  actor,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Slot is one segment of a vehicle's day timeline.
type Slot struct {
	Type        string    `json:"type"` // "free" or "busy"
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ScheduleID  *uint     `json:"schedule_id,omitempty"`
	BookingID   *uint     `json:"booking_id,omitempty"`
	PatientName string    `json:"patient_name,omitempty"`
}

// VehicleAvailability is one vehicle's free/busy projection for a day.
type VehicleAvailability struct {
	VehicleID         uint      `json:"vehicle_id"`
	VehicleName       string    `json:"vehicle_name"`
	Registration      string    `json:"registration"`
	Date              string    `json:"date"`
	WindowStart       time.Time `json:"window_start"`
	WindowEnd         time.Time `json:"window_end"`
	Slots             []Slot    `json:"slots"`
	IsAvailableAllDay bool      `json:"is_available_all_day"`
}

// Availability projects the day's schedules of one vehicle, or of every
// non-out-of-service vehicle, into free/busy slots over the day window.
// startHour/endHour of 0 fall back to the 06:00-22:00 default.
func (s *SchedulingService) Availability(date time.Time, vehicleID *uint, startHour, endHour int) ([]VehicleAvailability, error) {
	if startHour == 0 && endHour == 0 {
		startHour = DefaultWindowStartHour
		endHour = DefaultWindowEndHour
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, apperror.Validation("invalid day window")
	}

	var vehicles []vehicleModel.Vehicle
	if vehicleID != nil {
		var v vehicleModel.Vehicle
		err := s.db.Where("id = ? AND deleted_at IS NULL", *vehicleID).First(&v).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("vehicle not found")
		}
		if err != nil {
			return nil, err
		}
		vehicles = []vehicleModel.Vehicle{v}
	} else {
		err := s.db.Where("deleted_at IS NULL AND status != ?", vehicleModel.VehicleStatusOutOfService).
			Order("name ASC").
			Find(&vehicles).Error
		if err != nil {
			return nil, err
		}
	}

	dayStart := now.With(date).BeginningOfDay()
	windowStart := dayStart.Add(time.Duration(startHour) * time.Hour)
	windowEnd := dayStart.Add(time.Duration(endHour) * time.Hour)

	results := make([]VehicleAvailability, 0, len(vehicles))
	for _, v := range vehicles {
		availability, err := s.sweepVehicle(v, dayStart, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		results = append(results, *availability)
	}
	return results, nil
}

func (s *SchedulingService) sweepVehicle(v vehicleModel.Vehicle, dayStart, windowStart, windowEnd time.Time) (*VehicleAvailability, error) {
	dayEnd := dayStart.AddDate(0, 0, 1)

	var schedules []scheduleModel.Schedule
	err := s.db.Where("vehicle_id = ? AND status != ?", v.ID, scheduleModel.ScheduleStatusCancelled).
		Where("start_time < ? AND ? < end_time", dayEnd, dayStart).
		Order("start_time ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	availability := &VehicleAvailability{
		VehicleID:    v.ID,
		VehicleName:  v.Name,
		Registration: v.Registration,
		Date:         dayStart.Format("2006-01-02"),
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		Slots:        []Slot{},
	}

	if len(schedules) == 0 {
		availability.Slots = append(availability.Slots, Slot{
			Type:      "free",
			StartTime: windowStart,
			EndTime:   windowEnd,
		})
		availability.IsAvailableAllDay = true
		return availability, nil
	}

	cursor := windowStart
	for i := range schedules {
		sch := &schedules[i]
		if cursor.Before(sch.StartTime) {
			availability.Slots = append(availability.Slots, Slot{
				Type:      "free",
				StartTime: cursor,
				EndTime:   sch.StartTime,
			})
		}

		busy := Slot{
			Type:       "busy",
			StartTime:  sch.StartTime,
			EndTime:    sch.EndTime,
			ScheduleID: &sch.ID,
			BookingID:  sch.BookingID,
		}
		if sch.BookingID != nil {
			var booking bookingModel.Booking
			if err := s.db.Select("patient_name").First(&booking, *sch.BookingID).Error; err == nil {
				busy.PatientName = booking.PatientName
			}
		}
		availability.Slots = append(availability.Slots, busy)

		if sch.EndTime.After(cursor) {
			cursor = sch.EndTime
		}
	}

	if cursor.Before(windowEnd) {
		availability.Slots = append(availability.Slots, Slot{
			Type:      "free",
			StartTime: cursor,
			EndTime:   windowEnd,
		})
	}

	return availability, nil
}
