package permission

// Composite checks. Each follows the same shape: gate on anonymous/inactive,
// short-circuit on superuser, short-circuit on self-ownership where the
// operation allows it, then general role, then unit/unit-group role scoped
// to the relevant units.

// CanViewApplication reports whether the user may read an application owned
// by ownerID whose sections span the given units.
func CanViewApplication(rc *RoleContext, ownerID string, unitIDs []string) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.UserID == ownerID {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanViewApplications)...) {
		return true
	}
	return rc.HasRoleForUnits(unitIDs, RolesGranting(CanViewApplications), false)
}

// CanManageApplication reports whether the user may modify an application.
// The owner may modify it only while the application period is open; after
// that only staff with application management on the relevant units may.
func CanManageApplication(rc *RoleContext, ownerID string, unitIDs []string, periodOpen bool) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.UserID == ownerID && periodOpen {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanManageApplications)...) {
		return true
	}
	return rc.HasRoleForUnits(unitIDs, RolesGranting(CanManageApplications), false)
}

// CanManageApplicationRound reports whether the user may run allocation
// operations (including reset) on a round spanning the given units.
func CanManageApplicationRound(rc *RoleContext, unitIDs []string) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanManageApplications)...) {
		return true
	}
	return rc.HasRoleForUnits(unitIDs, RolesGranting(CanManageApplications), false)
}

// CanViewReservation reports whether the user may read a reservation.
// reserverNeedsRole forces a role check even for the reservation's owner.
func CanViewReservation(rc *RoleContext, ownerID string, unitIDs []string, reserverNeedsRole bool) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.UserID == ownerID && !reserverNeedsRole {
		return true
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanViewReservations)...) {
		return true
	}
	return rc.HasRoleForUnits(unitIDs, RolesGranting(CanViewReservations), false)
}

// CanManageReservation reports whether the user may modify a reservation.
func CanManageReservation(rc *RoleContext, ownerID string, unitIDs []string, reserverNeedsRole bool) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.UserID == ownerID && !reserverNeedsRole {
		return true
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanManageReservations)...) {
		return true
	}
	return rc.HasRoleForUnits(unitIDs, RolesGranting(CanManageReservations), false)
}

// CanCreateStaffReservation requires the role on the reservation unit's own
// unit: a single-element requireAll check, not an "any unit" search.
func CanCreateStaffReservation(rc *RoleContext, unitID string) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanCreateStaffReservations)...) {
		return true
	}
	return rc.HasRoleForUnits([]string{unitID}, RolesGranting(CanCreateStaffReservations), true)
}

// CanManageUnit reports whether the user may administer a unit's spaces,
// resources and reservation units. A nil unit means only a general role or
// superuser can pass.
func CanManageUnit(rc *RoleContext, unitID *string) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanManageReservationUnits)...) {
		return true
	}
	if unitID == nil {
		return false
	}
	return rc.HasRoleForUnits([]string{*unitID}, RolesGranting(CanManageReservationUnits), true)
}

// CanManageSpaces is CanManageUnit scoped through a space's owning unit.
func CanManageSpaces(rc *RoleContext, unitID *string) bool {
	return CanManageUnit(rc, unitID)
}

// CanManageResources is CanManageUnit scoped through a resource's space's
// owning unit.
func CanManageResources(rc *RoleContext, unitID *string) bool {
	return CanManageUnit(rc, unitID)
}

// CanViewUser reports whether the user may read another user's details:
// self, or a user-viewing role at general or any unit scope.
func CanViewUser(rc *RoleContext, targetUserID string) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	if rc.UserID == targetUserID {
		return true
	}
	if rc.HasGeneralRole(RolesGranting(CanViewUsers)...) {
		return true
	}
	return rc.HasRoleForUnits(nil, RolesGranting(CanViewUsers), false)
}

// CanSendNotifications reports whether the user may administer
// notification sending.
func CanSendNotifications(rc *RoleContext) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if rc.IsSuperuser {
		return true
	}
	return rc.HasGeneralRole(RolesGranting(CanManageNotifications)...)
}
