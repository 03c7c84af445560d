package driver

import (
	"strconv"

	"ambulance-fleet/logger"
	"ambulance-fleet/models/user"
	dispatchService "ambulance-fleet/services/dispatch"
	"ambulance-fleet/types"
	"ambulance-fleet/types/apperror"
	driverTypes "ambulance-fleet/types/driver"
	"ambulance-fleet/utils"
	wsHub "ambulance-fleet/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DriverController handles dispatch HTTP and websocket requests
type DriverController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Hub     *wsHub.Hub
	Service *dispatchService.DispatchService
}

// NewDriverController creates a new driver controller
func NewDriverController(db *gorm.DB, asyncLogger *logger.AsyncLogger, hub *wsHub.Hub) *DriverController {
	return &DriverController{
		DB:      db,
		Logger:  asyncLogger,
		Hub:     hub,
		Service: dispatchService.NewDispatchService(db, hub),
	}
}

func (dc *DriverController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	dc.Logger.Log(logEntry)
}

func (dc *DriverController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	dc.logAPIRequest(c)
	return result
}

func (dc *DriverController) resolveActor(c *fiber.Ctx) (*user.User, int, string) {
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

func (dc *DriverController) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if e := apperror.As(err); e != nil {
		status := apperror.HTTPStatus(err)
		return dc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: e.Message,
			Data:    e.Details,
		})
	}
	logger.Error(fallback, err)
	return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: fallback,
		Data:    nil,
	})
}

func (dc *DriverController) driverIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("driverId"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// UpdateStatus applies a driver-initiated status change
func (dc *DriverController) UpdateStatus(c *fiber.Ctx) error {
	driverID, err := dc.driverIDParam(c)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	var req driverTypes.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := dc.resolveActor(c)
	if status != 0 {
		return dc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	driverStatus, err := dc.Service.UpdateStatus(driverID, req, actor.Username)
	if err != nil {
		return dc.serviceError(c, err, "Failed to update driver status")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver status updated successfully",
		Data:    driverStatus,
	})
}

// UpdateLocation records a driver location ping
func (dc *DriverController) UpdateLocation(c *fiber.Ctx) error {
	driverID, err := dc.driverIDParam(c)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	var req driverTypes.LocationUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	driverStatus, err := dc.Service.UpdateLocation(driverID, req)
	if err != nil {
		return dc.serviceError(c, err, "Failed to update driver location")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver location updated successfully",
		Data:    driverStatus,
	})
}

// Assign pairs a driver with a booking (admin dispatch action)
func (dc *DriverController) Assign(c *fiber.Ctx) error {
	var req driverTypes.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := dc.resolveActor(c)
	if status != 0 {
		return dc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	driverStatus, err := dc.Service.Assign(req, actor.Username)
	if err != nil {
		return dc.serviceError(c, err, "Failed to assign driver")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver assigned successfully",
		Data:    driverStatus,
	})
}

// Accept confirms a pending dispatch
func (dc *DriverController) Accept(c *fiber.Ctx) error {
	return dc.decision(c, true)
}

// Reject refuses a pending dispatch
func (dc *DriverController) Reject(c *fiber.Ctx) error {
	return dc.decision(c, false)
}

func (dc *DriverController) decision(c *fiber.Ctx, accept bool) error {
	driverID, err := dc.driverIDParam(c)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	var req driverTypes.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := dc.resolveActor(c)
	if status != 0 {
		return dc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	var driverStatus interface{}
	message := "Dispatch accepted successfully"
	if accept {
		driverStatus, err = dc.Service.Accept(driverID, req, actor.Username)
	} else {
		driverStatus, err = dc.Service.Reject(driverID, req, actor.Username)
		message = "Dispatch rejected successfully"
	}
	if err != nil {
		return dc.serviceError(c, err, "Failed to process dispatch decision")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    driverStatus,
	})
}

// Show returns one driver's status row
func (dc *DriverController) Show(c *fiber.Ctx) error {
	driverID, err := dc.driverIDParam(c)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	driverStatus, err := dc.Service.GetStatus(driverID)
	if err != nil {
		return dc.serviceError(c, err, "Failed to fetch driver status")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver status fetched successfully",
		Data:    driverStatus,
	})
}

// Index returns every driver status row for the dispatch board
func (dc *DriverController) Index(c *fiber.Ctx) error {
	statuses, err := dc.Service.ListStatuses()
	if err != nil {
		return dc.serviceError(c, err, "Failed to list driver statuses")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Driver statuses fetched successfully",
		Data:    statuses,
	})
}

// CurrentBooking returns the booking the driver is currently working
func (dc *DriverController) CurrentBooking(c *fiber.Ctx) error {
	driverID, err := dc.driverIDParam(c)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid driver id",
			Data:    nil,
		})
	}

	booking, err := dc.Service.CurrentBooking(driverID)
	if err != nil {
		return dc.serviceError(c, err, "Failed to fetch current booking")
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Current booking fetched successfully",
		Data:    booking,
	})
}

// AdminSocket keeps an admin dashboard connection registered for push events
func (dc *DriverController) AdminSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		dc.Hub.RegisterAdmin(conn)
		defer dc.Hub.UnregisterAdmin(conn)

		// Reads are discarded; the admin channel is push-only. The read
		// loop exists to detect the close frame.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// DriverSocket keeps a driver connection registered for dispatch events
func (dc *DriverController) DriverSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		driverID, err := strconv.ParseUint(conn.Params("driverId"), 10, 32)
		if err != nil {
			conn.Close()
			return
		}

		dc.Hub.RegisterDriver(uint(driverID), conn)
		defer dc.Hub.UnregisterDriver(uint(driverID), conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
