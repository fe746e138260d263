// Package permission implements the role/capability model and the stateless
// permission resolver. It is pure: all inputs arrive in a RoleContext value
// built per request by the service layer, and every check returns a boolean.
// Denial is never an error.
package permission

// Role an assignable role code
type Role string

const (
	RoleAdmin               Role = "ADMIN"
	RoleHandler             Role = "HANDLER"
	RoleViewer              Role = "VIEWER"
	RoleReserver            Role = "RESERVER"
	RoleNotificationManager Role = "NOTIFICATION_MANAGER"
)

// Capability a named permission a role can grant
type Capability string

const (
	CanManageApplications       Capability = "can_manage_applications"
	CanViewApplications         Capability = "can_view_applications"
	CanManageReservations       Capability = "can_manage_reservations"
	CanViewReservations         Capability = "can_view_reservations"
	CanCreateStaffReservations  Capability = "can_create_staff_reservations"
	CanManageReservationUnits   Capability = "can_manage_reservation_units"
	CanViewUsers                Capability = "can_view_users"
	CanManageNotifications      Capability = "can_manage_notifications"
)

// capabilityRoles is the static capability → granting-roles mapping.
// Fixed at deploy time; changing it requires a code change.
var capabilityRoles = map[Capability][]Role{
	CanManageApplications:      {RoleAdmin, RoleHandler},
	CanViewApplications:        {RoleAdmin, RoleHandler, RoleViewer},
	CanManageReservations:      {RoleAdmin, RoleHandler},
	CanViewReservations:        {RoleAdmin, RoleHandler, RoleViewer},
	CanCreateStaffReservations: {RoleAdmin, RoleHandler, RoleReserver},
	CanManageReservationUnits:  {RoleAdmin},
	CanViewUsers:               {RoleAdmin, RoleHandler},
	CanManageNotifications:     {RoleAdmin, RoleNotificationManager},
}

// roleCapabilities is the precomputed reverse lookup.
var roleCapabilities = func() map[Role][]Capability {
	m := make(map[Role][]Capability)
	for cap, roles := range capabilityRoles {
		for _, r := range roles {
			m[r] = append(m[r], cap)
		}
	}
	return m
}()

// RolesGranting returns the roles that grant the given capability.
func RolesGranting(c Capability) []Role {
	return capabilityRoles[c]
}

// CapabilitiesOf returns the capabilities a role grants.
func CapabilitiesOf(r Role) []Capability {
	return roleCapabilities[r]
}

// AllRoles returns every known role code.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleHandler, RoleViewer, RoleReserver, RoleNotificationManager}
}

// IsValidRole reports whether the code is a known role.
func IsValidRole(r Role) bool {
	for _, known := range AllRoles() {
		if r == known {
			return true
		}
	}
	return false
}
