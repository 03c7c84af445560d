package schedule

import (
	"strconv"
	"time"

	"ambulance-fleet/logger"
	"ambulance-fleet/models/user"
	schedulingService "ambulance-fleet/services/scheduling"
	"ambulance-fleet/types"
	"ambulance-fleet/types/apperror"
	scheduleTypes "ambulance-fleet/types/schedule"
	"ambulance-fleet/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ScheduleController handles timeline HTTP requests
type ScheduleController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Service *schedulingService.SchedulingService
}

// NewScheduleController creates a new schedule controller
func NewScheduleController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *ScheduleController {
	return &ScheduleController{
		DB:      db,
		Logger:  asyncLogger,
		Service: schedulingService.NewSchedulingService(db),
	}
}

func (sc *ScheduleController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	sc.Logger.Log(logEntry)
}

func (sc *ScheduleController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	sc.logAPIRequest(c)
	return result
}

func (sc *ScheduleController) resolveActor(c *fiber.Ctx) (*user.User, int, string) {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		return nil, fiber.StatusUnauthorized, "Invalid user claims"
	}

	userUUID, ok := claims["uuid"].(string)
	if !ok || userUUID == "" {
		return nil, fiber.StatusUnauthorized, "User UUID not found in token"
	}

	userInfo, err := utils.GetUserByUUID(userUUID)
	if err != nil {
		logger.Error("Error finding user by UUID", err)
		if err.Error() == "user not found" {
			return nil, fiber.StatusUnauthorized, "User not found"
		}
		return nil, fiber.StatusInternalServerError, "Database error"
	}
	return userInfo, 0, ""
}

func (sc *ScheduleController) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if e := apperror.As(err); e != nil {
		status := apperror.HTTPStatus(err)
		return sc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: e.Message,
			Data:    e.Details,
		})
	}
	logger.Error(fallback, err)
	return sc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: fallback,
		Data:    nil,
	})
}

// Store commits a vehicle to a time window
func (sc *ScheduleController) Store(c *fiber.Ctx) error {
	var req scheduleTypes.ScheduleCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := sc.resolveActor(c)
	if status != 0 {
		return sc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	schedule, err := sc.Service.Create(req, actor.Username)
	if err != nil {
		return sc.serviceError(c, err, "Failed to create schedule")
	}

	return sc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Schedule created successfully",
		Data:    schedule,
	})
}

// Update modifies a schedule's window or driver
func (sc *ScheduleController) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid schedule id",
			Data:    nil,
		})
	}

	var req scheduleTypes.ScheduleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := sc.resolveActor(c)
	if status != 0 {
		return sc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	schedule, err := sc.Service.Update(uint(id), req, actor.Username)
	if err != nil {
		return sc.serviceError(c, err, "Failed to update schedule")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Schedule updated successfully",
		Data:    schedule,
	})
}

// CheckConflict runs a dry-run overlap test
func (sc *ScheduleController) CheckConflict(c *fiber.Ctx) error {
	var req scheduleTypes.ConflictCheckRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	result, err := sc.Service.CheckConflict(req)
	if err != nil {
		return sc.serviceError(c, err, "Failed to check conflicts")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Conflict check completed",
		Data:    result,
	})
}

// Start moves a schedule to in_progress
func (sc *ScheduleController) Start(c *fiber.Ctx) error {
	return sc.transition(c, "start")
}

// Complete moves a schedule to completed
func (sc *ScheduleController) Complete(c *fiber.Ctx) error {
	return sc.transition(c, "complete")
}

func (sc *ScheduleController) transition(c *fiber.Ctx, action string) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid schedule id",
			Data:    nil,
		})
	}

	actor, status, msg := sc.resolveActor(c)
	if status != 0 {
		return sc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	var schedule interface{}
	message := "Schedule started successfully"
	if action == "start" {
		schedule, err = sc.Service.Start(uint(id), actor.Username)
	} else {
		schedule, err = sc.Service.Complete(uint(id), actor.Username)
		message = "Schedule completed successfully"
	}
	if err != nil {
		return sc.serviceError(c, err, "Failed to transition schedule")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    schedule,
	})
}

// Destroy soft-cancels a schedule
func (sc *ScheduleController) Destroy(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid schedule id",
			Data:    nil,
		})
	}

	actor, status, msg := sc.resolveActor(c)
	if status != 0 {
		return sc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := sc.Service.Delete(uint(id), actor.Username); err != nil {
		return sc.serviceError(c, err, "Failed to cancel schedule")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Schedule cancelled successfully",
		Data:    nil,
	})
}

// Index lists a vehicle's schedules
func (sc *ScheduleController) Index(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("vehicleId"), 10, 32)
	if err != nil {
		return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	schedules, err := sc.Service.ListForVehicle(uint(vehicleID), limit)
	if err != nil {
		return sc.serviceError(c, err, "Failed to list schedules")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Schedules fetched successfully",
		Data:    schedules,
	})
}

// Availability projects a day's schedules into free/busy slots. Query params:
// date (2006-01-02, default today), vehicle_id (optional), start_hour and
// end_hour (optional day window override).
func (sc *ScheduleController) Availability(c *fiber.Ctx) error {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid date, expected YYYY-MM-DD",
				Data:    nil,
			})
		}
		date = parsed
	}

	var vehicleID *uint
	if raw := c.Query("vehicle_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return sc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid vehicle id",
				Data:    nil,
			})
		}
		v := uint(id)
		vehicleID = &v
	}

	startHour, _ := strconv.Atoi(c.Query("start_hour", "0"))
	endHour, _ := strconv.Atoi(c.Query("end_hour", "0"))

	results, err := sc.Service.Availability(date, vehicleID, startHour, endHour)
	if err != nil {
		return sc.serviceError(c, err, "Failed to compute availability")
	}

	return sc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Availability computed successfully",
		Data:    results,
	})
}
