package routes

import (
	"ambulance-fleet/constants"
	driverController "ambulance-fleet/controllers/driver"
	scheduleController "ambulance-fleet/controllers/schedule"
	teamController "ambulance-fleet/controllers/team"
	vehicleController "ambulance-fleet/controllers/vehicle"
	"ambulance-fleet/logger"
	"ambulance-fleet/middleware"
	wsHub "ambulance-fleet/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *wsHub.Hub) {
	asyncLogger := logger.NewAsyncLogger(db)
	vehicleCtrl := vehicleController.NewVehicleController(db, asyncLogger)
	teamCtrl := teamController.NewTeamController(db, asyncLogger)
	scheduleCtrl := scheduleController.NewScheduleController(db, asyncLogger)
	driverCtrl := driverController.NewDriverController(db, asyncLogger, hub)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "ambulance-fleet",
			"status":  "ok",
		})
	})

	api := app.Group("/api")

	/*=============================================================================
	| Vehicle Routes
	===============================================================================*/
	vehicleGroup := api.Group("/vehicles")

	vehicleGroup.Get("/", middleware.RequireAnyPermission(), vehicleCtrl.Index)
	vehicleGroup.Get("/:id", middleware.RequireAnyPermission(), vehicleCtrl.Show)

	vehicleGroup.Post("/", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), vehicleCtrl.Store)

	vehicleGroup.Put("/:id", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), vehicleCtrl.Update)

	vehicleGroup.Delete("/:id", middleware.RequirePermissions(
		constants.PermSuperAdminFull,
		constants.PermFleetAdminFull,
	), vehicleCtrl.Destroy)

	/*=============================================================================
	| Team Routes
	===============================================================================*/
	teamGroup := api.Group("/team")

	teamGroup.Post("/assign", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.Assign)

	teamGroup.Post("/remove", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.Remove)

	teamGroup.Post("/replace", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.Replace)

	teamGroup.Post("/remote-doctor/join", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.AddRemoteDoctor)

	teamGroup.Post("/remote-doctor/leave", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.RemoveRemoteDoctor)

	teamGroup.Post("/lock", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.Lock)

	teamGroup.Post("/unlock", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.Unlock)

	teamGroup.Post("/emergency-override", middleware.RequirePermissions(
		constants.PermSuperAdminFull,
		constants.PermDispatcherFull,
	), teamCtrl.EmergencyOverride)

	teamGroup.Post("/complete-mission", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.CompleteMission)

	teamGroup.Get("/validate/:vehicleId", middleware.RequireAnyPermission(), teamCtrl.Validate)
	teamGroup.Get("/roster/:vehicleId", middleware.RequireAnyPermission(), teamCtrl.Roster)
	teamGroup.Get("/audit/:vehicleId", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), teamCtrl.AuditTrail)
	teamGroup.Get("/history/:vehicleId", middleware.RequireAnyPermission(), teamCtrl.History)

	/*=============================================================================
	| Schedule Routes
	===============================================================================*/
	scheduleGroup := api.Group("/schedules")

	scheduleGroup.Post("/", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), scheduleCtrl.Store)

	scheduleGroup.Post("/check-conflict", middleware.RequireAnyPermission(), scheduleCtrl.CheckConflict)
	scheduleGroup.Get("/availability", middleware.RequireAnyPermission(), scheduleCtrl.Availability)
	scheduleGroup.Get("/vehicle/:vehicleId", middleware.RequireAnyPermission(), scheduleCtrl.Index)

	scheduleGroup.Put("/:id", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), scheduleCtrl.Update)

	scheduleGroup.Post("/:id/start", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), scheduleCtrl.Start)

	scheduleGroup.Post("/:id/complete", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), scheduleCtrl.Complete)

	scheduleGroup.Delete("/:id", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), scheduleCtrl.Destroy)

	/*=============================================================================
	| Driver Dispatch Routes
	===============================================================================*/
	driverGroup := api.Group("/drivers")

	driverGroup.Get("/", middleware.RequirePermissions(
		constants.FleetAdminPermissions...,
	), driverCtrl.Index)

	driverGroup.Post("/assign", middleware.RequirePermissions(
		constants.PermSuperAdminFull,
		constants.PermDispatcherFull,
	), driverCtrl.Assign)

	driverGroup.Get("/:driverId/status", middleware.RequireAnyPermission(), driverCtrl.Show)
	driverGroup.Get("/:driverId/booking", middleware.RequireAnyPermission(), driverCtrl.CurrentBooking)

	driverGroup.Put("/:driverId/status", middleware.RequirePermissions(
		constants.PermDriverFull,
	), driverCtrl.UpdateStatus)

	driverGroup.Put("/:driverId/location", middleware.RequirePermissions(
		constants.PermDriverFull,
	), driverCtrl.UpdateLocation)

	driverGroup.Post("/:driverId/accept", middleware.RequirePermissions(
		constants.PermDriverFull,
	), driverCtrl.Accept)

	driverGroup.Post("/:driverId/reject", middleware.RequirePermissions(
		constants.PermDriverFull,
	), driverCtrl.Reject)

	/*=============================================================================
	| Websocket Routes
	===============================================================================*/
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/admin", driverCtrl.AdminSocket())
	app.Get("/ws/driver/:driverId", driverCtrl.DriverSocket())
}
