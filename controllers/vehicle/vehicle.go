package vehicle

import (
	"strconv"

	"ambulance-fleet/logger"
	"ambulance-fleet/models/user"
	vehicleService "ambulance-fleet/services/vehicle"
	"ambulance-fleet/types"
	"ambulance-fleet/types/apperror"
	vehicleTypes "ambulance-fleet/types/vehicle"
	"ambulance-fleet/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// VehicleController handles fleet registry HTTP requests
type VehicleController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Service *vehicleService.VehicleService
}

// NewVehicleController creates a new vehicle controller
func NewVehicleController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *VehicleController {
	return &VehicleController{
		DB:      db,
		Logger:  asyncLogger,
		Service: vehicleService.NewVehicleService(db),
	}
}

func (vc *VehicleController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	vc.Logger.Log(logEntry)
}

func (vc *VehicleController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	vc.logAPIRequest(c)
	return result
}

func (vc *VehicleController) resolveActor(c *fiber.Ctx) (*user.User, int, string) {
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

func (vc *VehicleController) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if e := apperror.As(err); e != nil {
		status := apperror.HTTPStatus(err)
		return vc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: e.Message,
			Data:    e.Details,
		})
	}
	logger.Error(fallback, err)
	return vc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: fallback,
		Data:    nil,
	})
}

// Store registers a new vehicle
func (vc *VehicleController) Store(c *fiber.Ctx) error {
	var req vehicleTypes.VehicleCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := vc.resolveActor(c)
	if status != 0 {
		return vc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	vehicle, err := vc.Service.Create(req, actor.Username)
	if err != nil {
		return vc.serviceError(c, err, "Failed to create vehicle")
	}

	return vc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Vehicle created successfully",
		Data:    vehicle,
	})
}

// Index lists vehicles, optionally filtered by status
func (vc *VehicleController) Index(c *fiber.Ctx) error {
	vehicles, err := vc.Service.List(c.Query("status"))
	if err != nil {
		return vc.serviceError(c, err, "Failed to list vehicles")
	}

	return vc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Vehicles fetched successfully",
		Data:    vehicles,
	})
}

// Show returns one vehicle with its active crew
func (vc *VehicleController) Show(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	vehicle, err := vc.Service.GetWithRoster(uint(id))
	if err != nil {
		return vc.serviceError(c, err, "Failed to fetch vehicle")
	}

	return vc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Vehicle fetched successfully",
		Data:    vehicle,
	})
}

// Update merges a partial patch into a vehicle
func (vc *VehicleController) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	var req vehicleTypes.VehicleUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := vc.resolveActor(c)
	if status != 0 {
		return vc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	vehicle, err := vc.Service.Update(uint(id), req, actor.Username)
	if err != nil {
		return vc.serviceError(c, err, "Failed to update vehicle")
	}

	return vc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Vehicle updated successfully",
		Data:    vehicle,
	})
}

// Destroy removes a vehicle unless a booking referencing it is in active
// transport
func (vc *VehicleController) Destroy(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return vc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	actor, status, msg := vc.resolveActor(c)
	if status != 0 {
		return vc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := vc.Service.Delete(uint(id), actor.Username); err != nil {
		return vc.serviceError(c, err, "Failed to delete vehicle")
	}

	return vc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Vehicle deleted successfully",
		Data:    nil,
	})
}
