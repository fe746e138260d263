package permission

// RoleContext the materialized role assignments of one user, built once per
// request by the service layer. The resolver never queries anything; it only
// reads these collections.
type RoleContext struct {
	UserID          string
	IsAuthenticated bool
	IsActive        bool
	IsSuperuser     bool

	// GeneralRoles system-wide role codes held by the user.
	GeneralRoles []Role

	// UnitRoles role → unit ids the role is granted on directly.
	UnitRoles map[Role][]string

	// UnitGroupRoles role → unit group ids the role is granted on.
	UnitGroupRoles map[Role][]string

	// UnitGroups unit id → group ids the unit belongs to. Must cover every
	// unit passed to a check plus the units of GroupUnits.
	UnitGroups map[string][]string

	// GroupUnits unit group id → unit ids in the group. Must cover every
	// group appearing in UnitGroupRoles; used to resolve "any unit where
	// the user has a role" queries.
	GroupUnits map[string][]string
}

// Anonymous returns the context of an unauthenticated caller.
func Anonymous() *RoleContext {
	return &RoleContext{}
}

// IsAnonymousOrInactive is the gate every check starts with. Inactive users
// never pass any check, superusers included.
func (rc *RoleContext) IsAnonymousOrInactive() bool {
	return rc == nil || !rc.IsAuthenticated || !rc.IsActive
}

// HasAnyRole reports whether the user holds any role at any scope.
func (rc *RoleContext) HasAnyRole() bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	return rc.IsSuperuser ||
		len(rc.GeneralRoles) > 0 ||
		len(rc.UnitRoles) > 0 ||
		len(rc.UnitGroupRoles) > 0
}

// HasGeneralRole reports whether the user holds one of the given general
// roles. An empty role list means any general role counts.
func (rc *RoleContext) HasGeneralRole(roles ...Role) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}
	if len(roles) == 0 {
		return len(rc.GeneralRoles) > 0
	}
	for _, held := range rc.GeneralRoles {
		for _, want := range roles {
			if held == want {
				return true
			}
		}
	}
	return false
}

// HasRoleForUnits is the core scoping check: does the user hold one of the
// given roles on the given units, directly or through a unit group?
//
// A nil unit list resolves to every unit where the user holds any role at
// all. An empty list — passed in or after resolution — is always "no
// permission", even with requireAll: "all of zero units" must never grant
// access. With requireAll every unit must match; otherwise one suffices.
func (rc *RoleContext) HasRoleForUnits(unitIDs []string, roles []Role, requireAll bool) bool {
	if rc.IsAnonymousOrInactive() {
		return false
	}

	if unitIDs == nil {
		unitIDs = rc.unitIDsWithAnyRole()
	}
	if len(unitIDs) == 0 {
		return false
	}

	for _, unitID := range unitIDs {
		ok := rc.hasDirectUnitRole(unitID, roles) || rc.hasGroupRoleForUnit(unitID, roles)
		if requireAll {
			if !ok {
				return false
			}
		} else if ok {
			return true
		}
	}
	return requireAll
}

// UnitIDsWhereHasRole lists the unit ids where the user holds one of the
// given roles, directly or through a group. Used to filter visible entities.
func (rc *RoleContext) UnitIDsWhereHasRole(roles ...Role) []string {
	if rc.IsAnonymousOrInactive() {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for role, unitIDs := range rc.UnitRoles {
		if roleMatches(role, roles) {
			for _, id := range unitIDs {
				add(id)
			}
		}
	}
	for role, groupIDs := range rc.UnitGroupRoles {
		if roleMatches(role, roles) {
			for _, gid := range groupIDs {
				for _, id := range rc.GroupUnits[gid] {
					add(id)
				}
			}
		}
	}
	return ids
}

// UnitGroupIDsWhereHasRole lists the unit group ids where the user holds one
// of the given roles.
func (rc *RoleContext) UnitGroupIDsWhereHasRole(roles ...Role) []string {
	if rc.IsAnonymousOrInactive() {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for role, groupIDs := range rc.UnitGroupRoles {
		if roleMatches(role, roles) {
			for _, gid := range groupIDs {
				if !seen[gid] {
					seen[gid] = true
					ids = append(ids, gid)
				}
			}
		}
	}
	return ids
}

// ── internals ──

// unitIDsWithAnyRole resolves a nil unit filter: every unit the user holds
// any role on, directly or through group membership.
func (rc *RoleContext) unitIDsWithAnyRole() []string {
	return rc.UnitIDsWhereHasRole()
}

func (rc *RoleContext) hasDirectUnitRole(unitID string, roles []Role) bool {
	for role, unitIDs := range rc.UnitRoles {
		if !roleMatches(role, roles) {
			continue
		}
		for _, id := range unitIDs {
			if id == unitID {
				return true
			}
		}
	}
	return false
}

func (rc *RoleContext) hasGroupRoleForUnit(unitID string, roles []Role) bool {
	groups := rc.UnitGroups[unitID]
	if len(groups) == 0 {
		return false
	}
	for role, groupIDs := range rc.UnitGroupRoles {
		if !roleMatches(role, roles) {
			continue
		}
		for _, gid := range groupIDs {
			for _, g := range groups {
				if g == gid {
					return true
				}
			}
		}
	}
	return false
}

// roleMatches: an empty wanted list means any role counts.
func roleMatches(held Role, wanted []Role) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, w := range wanted {
		if held == w {
			return true
		}
	}
	return false
}
