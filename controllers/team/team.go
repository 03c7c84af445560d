package team

import (
	"strconv"

	"ambulance-fleet/logger"
	"ambulance-fleet/models/user"
	teamService "ambulance-fleet/services/team"
	"ambulance-fleet/types"
	"ambulance-fleet/types/apperror"
	teamTypes "ambulance-fleet/types/team"
	"ambulance-fleet/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// TeamController handles crew assignment and mission lock HTTP requests
type TeamController struct {
	DB      *gorm.DB
	Logger  *logger.AsyncLogger
	Service *teamService.TeamService
}

// NewTeamController creates a new team controller
func NewTeamController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *TeamController {
	return &TeamController{
		DB:      db,
		Logger:  asyncLogger,
		Service: teamService.NewTeamService(db),
	}
}

func (tc *TeamController) logAPIRequest(c *fiber.Ctx) {
	logEntry := utils.CreateSanitizedLogEntry(c)
	tc.Logger.Log(logEntry)
}

func (tc *TeamController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	tc.logAPIRequest(c)
	return result
}

// resolveActor extracts the authenticated user from the request context.
// The returned status is non-zero when resolution failed and a response
// should be sent with it.
func (tc *TeamController) resolveActor(c *fiber.Ctx) (*user.User, int, string) {
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

// serviceError maps a service failure onto the API response envelope.
func (tc *TeamController) serviceError(c *fiber.Ctx, err error, fallback string) error {
	if e := apperror.As(err); e != nil {
		status := apperror.HTTPStatus(err)
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: e.Message,
			Data:    e.Details,
		})
	}
	logger.Error(fallback, err)
	return tc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
		Status:  fiber.StatusInternalServerError,
		Message: fallback,
		Data:    nil,
	})
}

// Assign adds a crew member to a vehicle
func (tc *TeamController) Assign(c *fiber.Ctx) error {
	var req teamTypes.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	assignment, err := tc.Service.Assign(req, actor.Username)
	if err != nil {
		return tc.serviceError(c, err, "Failed to assign crew member")
	}

	return tc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Crew member assigned successfully",
		Data:    assignment,
	})
}

// Remove removes a crew member from a vehicle
func (tc *TeamController) Remove(c *fiber.Ctx) error {
	var req teamTypes.RemoveRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := tc.Service.Remove(req, actor.Username); err != nil {
		return tc.serviceError(c, err, "Failed to remove crew member")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Crew member removed successfully",
		Data:    nil,
	})
}

// Replace performs a shift handover on a vehicle
func (tc *TeamController) Replace(c *fiber.Ctx) error {
	var req teamTypes.ReplaceRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	replacement, err := tc.Service.Replace(req, actor.Username)
	if err != nil {
		return tc.serviceError(c, err, "Failed to replace crew member")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Crew member replaced successfully",
		Data:    replacement,
	})
}

// AddRemoteDoctor attaches a remote doctor to a vehicle
func (tc *TeamController) AddRemoteDoctor(c *fiber.Ctx) error {
	var req teamTypes.RemoteDoctorRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	assignment, err := tc.Service.AddRemoteDoctor(req, actor.Username)
	if err != nil {
		return tc.serviceError(c, err, "Failed to add remote doctor")
	}

	return tc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Remote doctor joined successfully",
		Data:    assignment,
	})
}

// RemoveRemoteDoctor detaches a remote doctor from a vehicle
func (tc *TeamController) RemoveRemoteDoctor(c *fiber.Ctx) error {
	var req teamTypes.RemoteDoctorRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := tc.Service.RemoveRemoteDoctor(req, actor.Username); err != nil {
		return tc.serviceError(c, err, "Failed to remove remote doctor")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Remote doctor left successfully",
		Data:    nil,
	})
}

// Lock freezes a vehicle's roster for a mission
func (tc *TeamController) Lock(c *fiber.Ctx) error {
	var req teamTypes.LockRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	lock, err := tc.Service.Lock(req, actor.Username)
	if err != nil {
		return tc.serviceError(c, err, "Failed to lock team")
	}

	return tc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Team locked successfully",
		Data:    lock,
	})
}

// Unlock releases a vehicle's mission lock
func (tc *TeamController) Unlock(c *fiber.Ctx) error {
	var req teamTypes.UnlockRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := tc.Service.Unlock(req, actor.Username); err != nil {
		return tc.serviceError(c, err, "Failed to unlock team")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Team unlocked successfully",
		Data:    nil,
	})
}

// EmergencyOverride performs a mid-mission crew change
func (tc *TeamController) EmergencyOverride(c *fiber.Ctx) error {
	var req teamTypes.EmergencyOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	assignment, err := tc.Service.EmergencyOverride(req, actor.Username)
	if err != nil {
		return tc.serviceError(c, err, "Failed to apply emergency override")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Emergency override applied successfully",
		Data:    assignment,
	})
}

// CompleteMission ends a mission and disbands the crew
func (tc *TeamController) CompleteMission(c *fiber.Ctx) error {
	var req teamTypes.CompleteMissionRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor, status, msg := tc.resolveActor(c)
	if status != 0 {
		return tc.sendResponseWithLog(c, status, types.ApiResponse{
			Status:  status,
			Message: msg,
			Data:    nil,
		})
	}

	if err := tc.Service.CompleteMission(req, actor.Username); err != nil {
		return tc.serviceError(c, err, "Failed to complete mission")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Mission completed successfully",
		Data:    nil,
	})
}

// Validate reports whether a vehicle's roster satisfies its required roles
func (tc *TeamController) Validate(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("vehicleId"), 10, 32)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	result, err := tc.Service.ValidateTeam(uint(vehicleID))
	if err != nil {
		return tc.serviceError(c, err, "Failed to validate team")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Team validation completed",
		Data:    result,
	})
}

// Roster returns a vehicle's active assignments
func (tc *TeamController) Roster(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("vehicleId"), 10, 32)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	roster, err := tc.Service.ActiveRoster(uint(vehicleID))
	if err != nil {
		return tc.serviceError(c, err, "Failed to fetch roster")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Roster fetched successfully",
		Data:    roster,
	})
}

// AuditTrail returns a vehicle's audit entries, newest first
func (tc *TeamController) AuditTrail(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("vehicleId"), 10, 32)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	entries, err := tc.Service.AuditTrail(uint(vehicleID), limit)
	if err != nil {
		return tc.serviceError(c, err, "Failed to fetch audit trail")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Audit trail fetched successfully",
		Data:    entries,
	})
}

// History returns a vehicle's finished missions, newest first
func (tc *TeamController) History(c *fiber.Ctx) error {
	vehicleID, err := strconv.ParseUint(c.Params("vehicleId"), 10, 32)
	if err != nil {
		return tc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid vehicle id",
			Data:    nil,
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	records, err := tc.Service.History(uint(vehicleID), limit)
	if err != nil {
		return tc.serviceError(c, err, "Failed to fetch fleet history")
	}

	return tc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Fleet history fetched successfully",
		Data:    records,
	})
}
