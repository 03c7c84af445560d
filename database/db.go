package database

import (
	"fmt"
	"os"

	"ambulance-fleet/logger"
	"ambulance-fleet/models/booking"
	"ambulance-fleet/models/driver"
	"ambulance-fleet/models/log"
	"ambulance-fleet/models/schedule"
	"ambulance-fleet/models/team"
	"ambulance-fleet/models/user"
	"ambulance-fleet/models/vehicle"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	// Get database configuration from environment variables
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE") // Optional: "disable", "require", etc.

	// Set default sslmode if not provided
	if sslmode == "" {
		sslmode = "disable"
	}

	// Build PostgreSQL DSN string
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	// Create indexes for better performance
	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models
func autoMigrate() error {
	// Migrate in stages so foreign key targets exist before their referrers

	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&user.User{},
		&vehicle.Vehicle{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Team coordination models referencing users and vehicles
	stage2Models := []interface{}{
		&team.TeamAssignment{},
		&team.MissionLock{},
		&team.TeamAuditEntry{},
		&team.FleetHistory{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Scheduling and dispatch models
	stage3Models := []interface{}{
		&booking.Booking{},
		&booking.Notification{},
		&schedule.Schedule{},
		&driver.DriverStatus{},
	}

	for _, model := range stage3Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Remaining models
	remainingModels := []interface{}{
		// Logging
		&log.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	// User indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_uuid ON users(uuid)").Error; err != nil {
		return fmt.Errorf("failed to create user uuid index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_users_username ON users(username)").Error; err != nil {
		return fmt.Errorf("failed to create user username index: %w", err)
	}

	// Vehicle indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_vehicles_registration ON vehicles(registration)").Error; err != nil {
		return fmt.Errorf("failed to create vehicle registration index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles(status)").Error; err != nil {
		return fmt.Errorf("failed to create vehicle status index: %w", err)
	}

	// Team assignment indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_team_assignments_vehicle_active ON team_assignments(vehicle_id, is_active)").Error; err != nil {
		return fmt.Errorf("failed to create team assignment vehicle index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_team_assignments_user_active ON team_assignments(user_id, is_active)").Error; err != nil {
		return fmt.Errorf("failed to create team assignment user index: %w", err)
	}

	// Mission lock indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_mission_locks_vehicle_active ON mission_locks(vehicle_id, is_active)").Error; err != nil {
		return fmt.Errorf("failed to create mission lock vehicle index: %w", err)
	}

	// Audit indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_team_audit_entries_vehicle ON team_audit_entries(vehicle_id)").Error; err != nil {
		return fmt.Errorf("failed to create audit vehicle index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_team_audit_entries_created_at ON team_audit_entries(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create audit created_at index: %w", err)
	}

	// Schedule indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_schedules_vehicle_status ON schedules(vehicle_id, status)").Error; err != nil {
		return fmt.Errorf("failed to create schedule vehicle index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_schedules_driver_id ON schedules(driver_id)").Error; err != nil {
		return fmt.Errorf("failed to create schedule driver index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_schedules_time_window ON schedules(start_time, end_time)").Error; err != nil {
		return fmt.Errorf("failed to create schedule time window index: %w", err)
	}

	// Booking indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)").Error; err != nil {
		return fmt.Errorf("failed to create booking status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_booking_date ON bookings(booking_date)").Error; err != nil {
		return fmt.Errorf("failed to create booking date index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_bookings_assigned_driver_id ON bookings(assigned_driver_id)").Error; err != nil {
		return fmt.Errorf("failed to create booking assigned_driver index: %w", err)
	}

	// Driver status indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_driver_statuses_status ON driver_statuses(status)").Error; err != nil {
		return fmt.Errorf("failed to create driver status index: %w", err)
	}

	// Log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_method ON logs(method)").Error; err != nil {
		return fmt.Errorf("failed to create log method index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)").Error; err != nil {
		return fmt.Errorf("failed to create log status_code index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create log created_at index: %w", err)
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
