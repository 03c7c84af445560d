package constants

// Organization permissions
const (
	// Admin permissions
	PermSuperAdminFull = "ambulance-fleet.super-admin.full-permit"
	PermDispatcherFull = "ambulance-fleet.dispatcher.full-permit"
	PermFleetAdminFull = "ambulance-fleet.fleet-admin.full-permit"
	PermOperatorFull   = "ambulance-fleet.operator.full-permit"
	PermDriverFull     = "ambulance-fleet.driver.full-permit"
	PermMedicFull      = "ambulance-fleet.medic.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	FleetAdminPermissions = []string{
		PermSuperAdminFull,
		PermFleetAdminFull,
		PermDispatcherFull,
	}
)

// Team roles a vehicle roster can require or carry.
const (
	RoleDriver       = "driver"
	RoleNurse        = "nurse"
	RoleDoctor       = "doctor"
	RoleParamedic    = "paramedic"
	RoleRemoteDoctor = "remote_doctor"
)
