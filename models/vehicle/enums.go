package vehicle

type VehicleStatus string

const (
	VehicleStatusAvailable    VehicleStatus = "available"
	VehicleStatusOnMission    VehicleStatus = "on_mission"
	VehicleStatusMaintenance  VehicleStatus = "maintenance"
	VehicleStatusOutOfService VehicleStatus = "out_of_service"
)

// Helper methods for VehicleStatus
func (vs VehicleStatus) String() string {
	return string(vs)
}

func (vs VehicleStatus) IsValid() bool {
	switch vs {
	case VehicleStatusAvailable, VehicleStatusOnMission, VehicleStatusMaintenance, VehicleStatusOutOfService:
		return true
	default:
		return false
	}
}

// CanBeScheduled returns true if the vehicle may take new schedule entries
func (vs VehicleStatus) CanBeScheduled() bool {
	return vs == VehicleStatusAvailable || vs == VehicleStatusOnMission
}

// GetAllVehicleStatuses returns all valid vehicle statuses
func GetAllVehicleStatuses() []VehicleStatus {
	return []VehicleStatus{
		VehicleStatusAvailable,
		VehicleStatusOnMission,
		VehicleStatusMaintenance,
		VehicleStatusOutOfService,
	}
}
