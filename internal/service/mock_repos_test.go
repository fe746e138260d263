package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"varaamo/backend/internal/model"
	"varaamo/backend/internal/repository"
	pkgerrors "varaamo/backend/pkg/errors"
)

// mockDB one in-memory object graph shared by every mock repository, so
// cross-aggregate queries (slot → option → section → application → round)
// behave like the real joins.
type mockDB struct {
	seq int

	users        map[string]*model.User
	generalRoles map[string]*model.GeneralRole
	unitRoles    map[string]*model.UnitRole

	units  map[string]*model.Unit
	groups map[string]*model.UnitGroup

	spaces    map[string]*model.Space
	resources map[string]*model.Resource
	rus       map[string]*model.ReservationUnit
	affecting map[string][]string // reservation unit id → affecting ids

	rounds   map[string]*model.ApplicationRound
	roundRUs map[string][]string // round id → reservation unit ids

	apps     map[string]*model.Application
	sections map[string]*model.ApplicationSection
	ranges   map[string][]model.SuitableTimeRange // section id → ranges
	options  map[string]*model.ReservationUnitOption
	slots    map[string]*model.AllocatedTimeSlot

	series       map[string]*model.ReservationSeries
	reservations map[string]*model.Reservation
}

func newMockDB() *mockDB {
	return &mockDB{
		users:        make(map[string]*model.User),
		generalRoles: make(map[string]*model.GeneralRole),
		unitRoles:    make(map[string]*model.UnitRole),
		units:        make(map[string]*model.Unit),
		groups:       make(map[string]*model.UnitGroup),
		spaces:       make(map[string]*model.Space),
		resources:    make(map[string]*model.Resource),
		rus:          make(map[string]*model.ReservationUnit),
		affecting:    make(map[string][]string),
		rounds:       make(map[string]*model.ApplicationRound),
		roundRUs:     make(map[string][]string),
		apps:         make(map[string]*model.Application),
		sections:     make(map[string]*model.ApplicationSection),
		ranges:       make(map[string][]model.SuitableTimeRange),
		options:      make(map[string]*model.ReservationUnitOption),
		slots:        make(map[string]*model.AllocatedTimeSlot),
		series:       make(map[string]*model.ReservationSeries),
		reservations: make(map[string]*model.Reservation),
	}
}

// nextID generates ids in a namespace fixtures never use, so a created row
// can never overwrite a literal seeded one.
func (db *mockDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-gen-%d", prefix, db.seq)
}

// roundIDForOption walks option → section → application → round.
func (db *mockDB) roundIDForOption(optionID string) string {
	opt, ok := db.options[optionID]
	if !ok {
		return ""
	}
	section, ok := db.sections[opt.ApplicationSectionID]
	if !ok {
		return ""
	}
	app, ok := db.apps[section.ApplicationID]
	if !ok {
		return ""
	}
	return app.ApplicationRoundID
}

func (db *mockDB) roundIDForSlot(slotID string) string {
	slot, ok := db.slots[slotID]
	if !ok {
		return ""
	}
	return db.roundIDForOption(slot.ReservationUnitOptionID)
}

// optionWithAssociations returns a copy with reservation unit and slots
// attached, like the gorm Preloads would.
func (db *mockDB) optionWithAssociations(optionID string) *model.ReservationUnitOption {
	opt, ok := db.options[optionID]
	if !ok {
		return nil
	}
	cp := *opt
	if ru, ok := db.rus[opt.ReservationUnitID]; ok {
		ruCp := *ru
		cp.ReservationUnit = &ruCp
	}
	cp.AllocatedTimeSlots = nil
	for _, slot := range db.slots {
		if slot.ReservationUnitOptionID == optionID {
			cp.AllocatedTimeSlots = append(cp.AllocatedTimeSlots, *slot)
		}
	}
	return &cp
}

func (db *mockDB) sectionWithAssociations(sectionID string) *model.ApplicationSection {
	section, ok := db.sections[sectionID]
	if !ok {
		return nil
	}
	cp := *section
	cp.SuitableTimeRanges = append([]model.SuitableTimeRange(nil), db.ranges[sectionID]...)
	cp.ReservationUnitOptions = nil
	for id, opt := range db.options {
		if opt.ApplicationSectionID == sectionID {
			cp.ReservationUnitOptions = append(cp.ReservationUnitOptions, *db.optionWithAssociations(id))
		}
	}
	return &cp
}

func (db *mockDB) appWithAssociations(appID string) *model.Application {
	app, ok := db.apps[appID]
	if !ok {
		return nil
	}
	cp := *app
	if round, ok := db.rounds[app.ApplicationRoundID]; ok {
		roundCp := db.roundWithAssociations(round.ApplicationRoundID)
		cp.ApplicationRound = roundCp
	}
	cp.Sections = nil
	for id, section := range db.sections {
		if section.ApplicationID == appID {
			cp.Sections = append(cp.Sections, *db.sectionWithAssociations(id))
		}
	}
	return &cp
}

func (db *mockDB) roundWithAssociations(roundID string) *model.ApplicationRound {
	round, ok := db.rounds[roundID]
	if !ok {
		return nil
	}
	cp := *round
	cp.ReservationUnits = nil
	for _, ruID := range db.roundRUs[roundID] {
		if ru, ok := db.rus[ruID]; ok {
			cp.ReservationUnits = append(cp.ReservationUnits, *ru)
		}
	}
	return &cp
}

// newTestRepo assembles a Repository over one mockDB. The nil gorm handle
// makes Atomic run its callback directly.
func newTestRepo(db *mockDB) *repository.Repository {
	return &repository.Repository{
		User:              &mockUserRepo{db},
		GeneralRole:       &mockGeneralRoleRepo{db},
		UnitRole:          &mockUnitRoleRepo{db},
		Unit:              &mockUnitRepo{db},
		UnitGroup:         &mockUnitGroupRepo{db},
		Space:             &mockSpaceRepo{db},
		Resource:          &mockResourceRepo{db},
		ReservationUnit:   &mockReservationUnitRepo{db},
		AffectingUnit:     &mockAffectingUnitRepo{db},
		ApplicationRound:  &mockApplicationRoundRepo{db},
		Application:       &mockApplicationRepo{db},
		Section:           &mockSectionRepo{db},
		SuitableTimeRange: &mockSuitableTimeRangeRepo{db},
		Option:            &mockOptionRepo{db},
		AllocatedSlot:     &mockAllocatedSlotRepo{db},
		ReservationSeries: &mockReservationSeriesRepo{db},
		Reservation:       &mockReservationRepo{db},
	}
}

// ── mock UserRepository ──

type mockUserRepo struct{ db *mockDB }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = m.db.nextID("user")
	}
	m.db.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var users []model.User
	for _, u := range m.db.users {
		users = append(users, *u)
	}
	return users, int64(len(users)), nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.db.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id string, active bool) error {
	if u, ok := m.db.users[id]; ok {
		u.IsActive = active
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── mock GeneralRoleRepository ──

type mockGeneralRoleRepo struct{ db *mockDB }

func (m *mockGeneralRoleRepo) Create(_ context.Context, role *model.GeneralRole) error {
	if role.GeneralRoleID == "" {
		role.GeneralRoleID = m.db.nextID("grole")
	}
	m.db.generalRoles[role.GeneralRoleID] = role
	return nil
}

func (m *mockGeneralRoleRepo) ListByUser(_ context.Context, userID string) ([]model.GeneralRole, error) {
	var roles []model.GeneralRole
	for _, r := range m.db.generalRoles {
		if r.UserID == userID {
			roles = append(roles, *r)
		}
	}
	return roles, nil
}

func (m *mockGeneralRoleRepo) Delete(_ context.Context, userID, role string) error {
	for id, r := range m.db.generalRoles {
		if r.UserID == userID && r.Role == role {
			delete(m.db.generalRoles, id)
		}
	}
	return nil
}

// ── mock UnitRoleRepository ──

type mockUnitRoleRepo struct{ db *mockDB }

func (m *mockUnitRoleRepo) Create(_ context.Context, role *model.UnitRole, unitIDs, groupIDs []string) error {
	if role.UnitRoleID == "" {
		role.UnitRoleID = m.db.nextID("urole")
	}
	for _, id := range unitIDs {
		if u, ok := m.db.units[id]; ok {
			role.Units = append(role.Units, *u)
		} else {
			role.Units = append(role.Units, model.Unit{UnitID: id})
		}
	}
	for _, id := range groupIDs {
		if g, ok := m.db.groups[id]; ok {
			role.UnitGroups = append(role.UnitGroups, *g)
		} else {
			role.UnitGroups = append(role.UnitGroups, model.UnitGroup{UnitGroupID: id})
		}
	}
	m.db.unitRoles[role.UnitRoleID] = role
	return nil
}

func (m *mockUnitRoleRepo) ListByUser(_ context.Context, userID string) ([]model.UnitRole, error) {
	var roles []model.UnitRole
	for _, r := range m.db.unitRoles {
		if r.UserID == userID {
			roles = append(roles, *r)
		}
	}
	return roles, nil
}

func (m *mockUnitRoleRepo) Delete(_ context.Context, unitRoleID string) error {
	delete(m.db.unitRoles, unitRoleID)
	return nil
}

// ── mock UnitRepository ──

type mockUnitRepo struct{ db *mockDB }

func (m *mockUnitRepo) Create(_ context.Context, unit *model.Unit) error {
	if unit.UnitID == "" {
		unit.UnitID = m.db.nextID("unit")
	}
	m.db.units[unit.UnitID] = unit
	return nil
}

func (m *mockUnitRepo) GetByID(_ context.Context, id string) (*model.Unit, error) {
	if u, ok := m.db.units[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) List(_ context.Context) ([]model.Unit, error) {
	var units []model.Unit
	for _, u := range m.db.units {
		units = append(units, *u)
	}
	return units, nil
}

func (m *mockUnitRepo) Update(_ context.Context, unit *model.Unit) error {
	m.db.units[unit.UnitID] = unit
	return nil
}

// ── mock UnitGroupRepository ──

type mockUnitGroupRepo struct{ db *mockDB }

func (m *mockUnitGroupRepo) Create(_ context.Context, group *model.UnitGroup, unitIDs []string) error {
	if group.UnitGroupID == "" {
		group.UnitGroupID = m.db.nextID("group")
	}
	for _, id := range unitIDs {
		if u, ok := m.db.units[id]; ok {
			group.Units = append(group.Units, *u)
		} else {
			group.Units = append(group.Units, model.Unit{UnitID: id})
		}
	}
	m.db.groups[group.UnitGroupID] = group
	return nil
}

func (m *mockUnitGroupRepo) GetByID(_ context.Context, id string) (*model.UnitGroup, error) {
	if g, ok := m.db.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitGroupRepo) List(_ context.Context) ([]model.UnitGroup, error) {
	var groups []model.UnitGroup
	for _, g := range m.db.groups {
		groups = append(groups, *g)
	}
	return groups, nil
}

func (m *mockUnitGroupRepo) ListByUnit(_ context.Context, unitID string) ([]model.UnitGroup, error) {
	var groups []model.UnitGroup
	for _, g := range m.db.groups {
		for _, u := range g.Units {
			if u.UnitID == unitID {
				groups = append(groups, *g)
				break
			}
		}
	}
	return groups, nil
}

func (m *mockUnitGroupRepo) ReplaceUnits(_ context.Context, groupID string, unitIDs []string) error {
	g, ok := m.db.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	g.Units = nil
	for _, id := range unitIDs {
		g.Units = append(g.Units, model.Unit{UnitID: id})
	}
	return nil
}

// ── mock SpaceRepository ──

type mockSpaceRepo struct{ db *mockDB }

func (m *mockSpaceRepo) Create(_ context.Context, space *model.Space) error {
	if space.SpaceID == "" {
		space.SpaceID = m.db.nextID("space")
	}
	m.db.spaces[space.SpaceID] = space
	return nil
}

func (m *mockSpaceRepo) GetByID(_ context.Context, id string) (*model.Space, error) {
	if s, ok := m.db.spaces[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSpaceRepo) List(_ context.Context) ([]model.Space, error) {
	var spaces []model.Space
	for _, s := range m.db.spaces {
		spaces = append(spaces, *s)
	}
	return spaces, nil
}

func (m *mockSpaceRepo) ListByUnit(_ context.Context, unitID string) ([]model.Space, error) {
	var spaces []model.Space
	for _, s := range m.db.spaces {
		if s.UnitID == unitID {
			spaces = append(spaces, *s)
		}
	}
	return spaces, nil
}

func (m *mockSpaceRepo) Update(_ context.Context, space *model.Space) error {
	m.db.spaces[space.SpaceID] = space
	return nil
}

func (m *mockSpaceRepo) Delete(_ context.Context, id string) error {
	delete(m.db.spaces, id)
	return nil
}

// ── mock ResourceRepository ──

type mockResourceRepo struct{ db *mockDB }

func (m *mockResourceRepo) Create(_ context.Context, resource *model.Resource) error {
	if resource.ResourceID == "" {
		resource.ResourceID = m.db.nextID("res")
	}
	m.db.resources[resource.ResourceID] = resource
	return nil
}

func (m *mockResourceRepo) GetByID(_ context.Context, id string) (*model.Resource, error) {
	if r, ok := m.db.resources[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResourceRepo) List(_ context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	for _, r := range m.db.resources {
		resources = append(resources, *r)
	}
	return resources, nil
}

func (m *mockResourceRepo) Update(_ context.Context, resource *model.Resource) error {
	m.db.resources[resource.ResourceID] = resource
	return nil
}

func (m *mockResourceRepo) Delete(_ context.Context, id string) error {
	delete(m.db.resources, id)
	return nil
}

// ── mock ReservationUnitRepository ──

type mockReservationUnitRepo struct{ db *mockDB }

func (m *mockReservationUnitRepo) Create(_ context.Context, ru *model.ReservationUnit, spaceIDs, resourceIDs []string) error {
	if ru.ReservationUnitID == "" {
		ru.ReservationUnitID = m.db.nextID("ru")
	}
	for _, id := range spaceIDs {
		if s, ok := m.db.spaces[id]; ok {
			ru.Spaces = append(ru.Spaces, *s)
		} else {
			ru.Spaces = append(ru.Spaces, model.Space{SpaceID: id})
		}
	}
	for _, id := range resourceIDs {
		if r, ok := m.db.resources[id]; ok {
			ru.Resources = append(ru.Resources, *r)
		} else {
			ru.Resources = append(ru.Resources, model.Resource{ResourceID: id})
		}
	}
	m.db.rus[ru.ReservationUnitID] = ru
	return nil
}

func (m *mockReservationUnitRepo) GetByID(_ context.Context, id string) (*model.ReservationUnit, error) {
	if ru, ok := m.db.rus[id]; ok {
		cp := *ru
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationUnitRepo) List(_ context.Context, includeArchived bool) ([]model.ReservationUnit, error) {
	var rus []model.ReservationUnit
	for _, ru := range m.db.rus {
		if !includeArchived && ru.IsArchived {
			continue
		}
		rus = append(rus, *ru)
	}
	return rus, nil
}

func (m *mockReservationUnitRepo) ListAllWithTopology(_ context.Context) ([]model.ReservationUnit, error) {
	var rus []model.ReservationUnit
	for _, ru := range m.db.rus {
		rus = append(rus, *ru)
	}
	return rus, nil
}

func (m *mockReservationUnitRepo) Update(_ context.Context, ru *model.ReservationUnit) error {
	m.db.rus[ru.ReservationUnitID] = ru
	return nil
}

func (m *mockReservationUnitRepo) ReplaceSpaces(_ context.Context, id string, spaceIDs []string) error {
	ru, ok := m.db.rus[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ru.Spaces = nil
	for _, sid := range spaceIDs {
		if s, ok := m.db.spaces[sid]; ok {
			ru.Spaces = append(ru.Spaces, *s)
		}
	}
	return nil
}

func (m *mockReservationUnitRepo) ReplaceResources(_ context.Context, id string, resourceIDs []string) error {
	ru, ok := m.db.rus[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ru.Resources = nil
	for _, rid := range resourceIDs {
		if r, ok := m.db.resources[rid]; ok {
			ru.Resources = append(ru.Resources, *r)
		}
	}
	return nil
}

func (m *mockReservationUnitRepo) Archive(_ context.Context, id string) error {
	if ru, ok := m.db.rus[id]; ok {
		ru.IsArchived = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── mock AffectingUnitRepository ──

type mockAffectingUnitRepo struct{ db *mockDB }

func (m *mockAffectingUnitRepo) ReplaceAll(_ context.Context, pairs []model.AffectingReservationUnit) error {
	m.db.affecting = make(map[string][]string)
	for _, p := range pairs {
		m.db.affecting[p.ReservationUnitID] = append(m.db.affecting[p.ReservationUnitID], p.AffectingUnitID)
	}
	return nil
}

func (m *mockAffectingUnitRepo) ListAffectingIDs(_ context.Context, reservationUnitID string) ([]string, error) {
	return m.db.affecting[reservationUnitID], nil
}

// ── mock ApplicationRoundRepository ──

type mockApplicationRoundRepo struct{ db *mockDB }

func (m *mockApplicationRoundRepo) Create(_ context.Context, round *model.ApplicationRound, ruIDs []string) error {
	if round.ApplicationRoundID == "" {
		round.ApplicationRoundID = m.db.nextID("round")
	}
	if round.Version == 0 {
		round.Version = 1
	}
	m.db.rounds[round.ApplicationRoundID] = round
	m.db.roundRUs[round.ApplicationRoundID] = ruIDs
	return nil
}

func (m *mockApplicationRoundRepo) GetByID(_ context.Context, id string) (*model.ApplicationRound, error) {
	if round := m.db.roundWithAssociations(id); round != nil {
		return round, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRoundRepo) List(_ context.Context) ([]model.ApplicationRound, error) {
	var rounds []model.ApplicationRound
	for id := range m.db.rounds {
		rounds = append(rounds, *m.db.roundWithAssociations(id))
	}
	return rounds, nil
}

func (m *mockApplicationRoundRepo) Update(_ context.Context, round *model.ApplicationRound) error {
	stored, ok := m.db.rounds[round.ApplicationRoundID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != round.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cp := *round
	cp.ReservationUnits = nil
	cp.Version = round.Version + 1
	m.db.rounds[round.ApplicationRoundID] = &cp
	round.Version = cp.Version
	return nil
}

// ── mock ApplicationRepository ──

type mockApplicationRepo struct{ db *mockDB }

func (m *mockApplicationRepo) Create(_ context.Context, app *model.Application) error {
	if app.ApplicationID == "" {
		app.ApplicationID = m.db.nextID("app")
	}
	app.CreatedAt = time.Now()
	m.db.apps[app.ApplicationID] = app
	return nil
}

func (m *mockApplicationRepo) GetByID(_ context.Context, id string) (*model.Application, error) {
	if app := m.db.appWithAssociations(id); app != nil {
		return app, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockApplicationRepo) ListByRound(_ context.Context, roundID string, _, _ int) ([]model.Application, int64, error) {
	var apps []model.Application
	for id, app := range m.db.apps {
		if app.ApplicationRoundID == roundID {
			apps = append(apps, *m.db.appWithAssociations(id))
		}
	}
	return apps, int64(len(apps)), nil
}

func (m *mockApplicationRepo) ListByUser(_ context.Context, userID string) ([]model.Application, error) {
	var apps []model.Application
	for id, app := range m.db.apps {
		if app.UserID == userID {
			apps = append(apps, *m.db.appWithAssociations(id))
		}
	}
	return apps, nil
}

func (m *mockApplicationRepo) Update(_ context.Context, app *model.Application) error {
	stored, ok := m.db.apps[app.ApplicationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.SentAt = app.SentAt
	stored.CancelledAt = app.CancelledAt
	stored.ResultsReadyNotificationSentAt = app.ResultsReadyNotificationSentAt
	return nil
}

func (m *mockApplicationRepo) ClearResultsSentFlags(_ context.Context, roundID string) error {
	for _, app := range m.db.apps {
		if app.ApplicationRoundID == roundID {
			app.ResultsReadyNotificationSentAt = nil
		}
	}
	return nil
}

// ── mock ApplicationSectionRepository ──

type mockSectionRepo struct{ db *mockDB }

func (m *mockSectionRepo) Create(_ context.Context, section *model.ApplicationSection) error {
	if section.ApplicationSectionID == "" {
		section.ApplicationSectionID = m.db.nextID("section")
	}
	section.CreatedAt = time.Now()
	m.db.sections[section.ApplicationSectionID] = section
	return nil
}

func (m *mockSectionRepo) GetByID(_ context.Context, id string) (*model.ApplicationSection, error) {
	if section := m.db.sectionWithAssociations(id); section != nil {
		return section, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSectionRepo) ListByApplication(_ context.Context, applicationID string) ([]model.ApplicationSection, error) {
	var sections []model.ApplicationSection
	for id, section := range m.db.sections {
		if section.ApplicationID == applicationID {
			sections = append(sections, *m.db.sectionWithAssociations(id))
		}
	}
	return sections, nil
}

func (m *mockSectionRepo) ListByRound(_ context.Context, roundID string) ([]model.ApplicationSection, error) {
	var sections []model.ApplicationSection
	for id, section := range m.db.sections {
		app, ok := m.db.apps[section.ApplicationID]
		if ok && app.ApplicationRoundID == roundID {
			sections = append(sections, *m.db.sectionWithAssociations(id))
		}
	}
	return sections, nil
}

func (m *mockSectionRepo) Update(_ context.Context, section *model.ApplicationSection) error {
	stored, ok := m.db.sections[section.ApplicationSectionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Name = section.Name
	stored.NumPersons = section.NumPersons
	stored.ReservationsBeginDate = section.ReservationsBeginDate
	stored.ReservationsEndDate = section.ReservationsEndDate
	stored.ReservationMinDurationMinutes = section.ReservationMinDurationMinutes
	stored.ReservationMaxDurationMinutes = section.ReservationMaxDurationMinutes
	stored.AppliedReservationsPerWeek = section.AppliedReservationsPerWeek
	return nil
}

func (m *mockSectionRepo) Delete(_ context.Context, id string) error {
	delete(m.db.sections, id)
	delete(m.db.ranges, id)
	for optID, opt := range m.db.options {
		if opt.ApplicationSectionID == id {
			delete(m.db.options, optID)
		}
	}
	return nil
}

// ── mock SuitableTimeRangeRepository ──

type mockSuitableTimeRangeRepo struct{ db *mockDB }

func (m *mockSuitableTimeRangeRepo) ReplaceForSection(_ context.Context, sectionID string, ranges []model.SuitableTimeRange) error {
	for i := range ranges {
		if ranges[i].SuitableTimeRangeID == "" {
			ranges[i].SuitableTimeRangeID = m.db.nextID("range")
		}
		ranges[i].ApplicationSectionID = sectionID
	}
	m.db.ranges[sectionID] = ranges
	return nil
}

func (m *mockSuitableTimeRangeRepo) ListBySection(_ context.Context, sectionID string) ([]model.SuitableTimeRange, error) {
	return m.db.ranges[sectionID], nil
}

// ── mock ReservationUnitOptionRepository ──

type mockOptionRepo struct{ db *mockDB }

func (m *mockOptionRepo) ReplaceForSection(_ context.Context, sectionID string, options []model.ReservationUnitOption) error {
	for optID, opt := range m.db.options {
		if opt.ApplicationSectionID == sectionID {
			delete(m.db.options, optID)
		}
	}
	for i := range options {
		opt := options[i]
		if opt.ReservationUnitOptionID == "" {
			opt.ReservationUnitOptionID = m.db.nextID("opt")
		}
		opt.ApplicationSectionID = sectionID
		m.db.options[opt.ReservationUnitOptionID] = &opt
	}
	return nil
}

func (m *mockOptionRepo) GetByID(_ context.Context, id string) (*model.ReservationUnitOption, error) {
	if opt := m.db.optionWithAssociations(id); opt != nil {
		return opt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOptionRepo) ListBySection(_ context.Context, sectionID string) ([]model.ReservationUnitOption, error) {
	var opts []model.ReservationUnitOption
	for id, opt := range m.db.options {
		if opt.ApplicationSectionID == sectionID {
			opts = append(opts, *m.db.optionWithAssociations(id))
		}
	}
	return opts, nil
}

func (m *mockOptionRepo) SetLocked(_ context.Context, id string, locked bool) error {
	if opt, ok := m.db.options[id]; ok {
		opt.IsLocked = locked
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockOptionRepo) SetRejected(_ context.Context, id string, rejected bool) error {
	if opt, ok := m.db.options[id]; ok {
		opt.IsRejected = rejected
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockOptionRepo) ClearFlagsByRound(_ context.Context, roundID string) error {
	for id, opt := range m.db.options {
		if m.db.roundIDForOption(id) == roundID {
			opt.IsLocked = false
			opt.IsRejected = false
		}
	}
	return nil
}

// ── mock AllocatedTimeSlotRepository ──

type mockAllocatedSlotRepo struct{ db *mockDB }

func (m *mockAllocatedSlotRepo) Create(_ context.Context, slot *model.AllocatedTimeSlot) error {
	if slot.AllocatedTimeSlotID == "" {
		slot.AllocatedTimeSlotID = m.db.nextID("slot")
	}
	m.db.slots[slot.AllocatedTimeSlotID] = slot
	return nil
}

func (m *mockAllocatedSlotRepo) GetByID(_ context.Context, id string) (*model.AllocatedTimeSlot, error) {
	if slot, ok := m.db.slots[id]; ok {
		cp := *slot
		cp.ReservationUnitOption = m.db.optionWithAssociations(slot.ReservationUnitOptionID)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAllocatedSlotRepo) ListByOption(_ context.Context, optionID string) ([]model.AllocatedTimeSlot, error) {
	var slots []model.AllocatedTimeSlot
	for _, slot := range m.db.slots {
		if slot.ReservationUnitOptionID == optionID {
			slots = append(slots, *slot)
		}
	}
	return slots, nil
}

func (m *mockAllocatedSlotRepo) ListByRound(_ context.Context, roundID string) ([]model.AllocatedTimeSlot, error) {
	var slots []model.AllocatedTimeSlot
	for id, slot := range m.db.slots {
		if m.db.roundIDForSlot(id) == roundID {
			cp := *slot
			cp.ReservationUnitOption = m.db.optionWithAssociations(slot.ReservationUnitOptionID)
			slots = append(slots, cp)
		}
	}
	return slots, nil
}

func (m *mockAllocatedSlotRepo) CountBySection(_ context.Context, sectionID string) (int, error) {
	count := 0
	for _, slot := range m.db.slots {
		opt, ok := m.db.options[slot.ReservationUnitOptionID]
		if ok && opt.ApplicationSectionID == sectionID {
			count++
		}
	}
	return count, nil
}

func (m *mockAllocatedSlotRepo) Delete(_ context.Context, id string) error {
	delete(m.db.slots, id)
	return nil
}

func (m *mockAllocatedSlotRepo) DeleteByRound(_ context.Context, roundID string) error {
	for id := range m.db.slots {
		if m.db.roundIDForSlot(id) == roundID {
			delete(m.db.slots, id)
		}
	}
	return nil
}

// ── mock ReservationSeriesRepository ──

type mockReservationSeriesRepo struct{ db *mockDB }

func (m *mockReservationSeriesRepo) Create(_ context.Context, series *model.ReservationSeries, reservations []model.Reservation) error {
	if series.ReservationSeriesID == "" {
		series.ReservationSeriesID = m.db.nextID("series")
	}
	m.db.series[series.ReservationSeriesID] = series
	for i := range reservations {
		r := reservations[i]
		if r.ReservationID == "" {
			r.ReservationID = m.db.nextID("resv")
		}
		r.ReservationSeriesID = &series.ReservationSeriesID
		m.db.reservations[r.ReservationID] = &r
	}
	return nil
}

func (m *mockReservationSeriesRepo) GetByID(_ context.Context, id string) (*model.ReservationSeries, error) {
	if s, ok := m.db.series[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationSeriesRepo) seriesInRound(roundID string) map[string]bool {
	ids := make(map[string]bool)
	for id, s := range m.db.series {
		if s.SeriesType != model.SeriesTypeSeasonal || s.AllocatedTimeSlotID == nil {
			continue
		}
		if m.db.roundIDForSlot(*s.AllocatedTimeSlotID) == roundID {
			ids[id] = true
		}
	}
	return ids
}

func (m *mockReservationSeriesRepo) ListSeasonalByRound(_ context.Context, roundID string) ([]model.ReservationSeries, error) {
	var out []model.ReservationSeries
	for id := range m.seriesInRound(roundID) {
		out = append(out, *m.db.series[id])
	}
	return out, nil
}

func (m *mockReservationSeriesRepo) DeleteSeasonalByRound(_ context.Context, roundID string) error {
	for id := range m.seriesInRound(roundID) {
		for resvID, r := range m.db.reservations {
			if r.ReservationSeriesID != nil && *r.ReservationSeriesID == id {
				delete(m.db.reservations, resvID)
			}
		}
		delete(m.db.series, id)
	}
	return nil
}

// ── mock ReservationRepository ──

type mockReservationRepo struct{ db *mockDB }

func (m *mockReservationRepo) Create(_ context.Context, reservation *model.Reservation) error {
	if reservation.ReservationID == "" {
		reservation.ReservationID = m.db.nextID("resv")
	}
	m.db.reservations[reservation.ReservationID] = reservation
	return nil
}

func (m *mockReservationRepo) GetByID(_ context.Context, id string) (*model.Reservation, error) {
	if r, ok := m.db.reservations[id]; ok {
		cp := *r
		if ru, ok := m.db.rus[r.ReservationUnitID]; ok {
			ruCp := *ru
			cp.ReservationUnit = &ruCp
		}
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReservationRepo) ListByUser(_ context.Context, userID string, from, to time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.db.reservations {
		if r.UserID == userID && r.BeginsAt.Before(to) && r.EndsAt.After(from) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReservationRepo) ListAffecting(_ context.Context, reservationUnitID string, from, to time.Time) ([]model.Reservation, error) {
	relevant := map[string]bool{reservationUnitID: true}
	for _, id := range m.db.affecting[reservationUnitID] {
		relevant[id] = true
	}

	var out []model.Reservation
	for _, r := range m.db.reservations {
		if !relevant[r.ReservationUnitID] || !r.State.IsBlocking() {
			continue
		}
		// half-open interval overlap
		if r.BeginsAt.Before(to) && r.EndsAt.After(from) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReservationRepo) ListSeasonalByRound(_ context.Context, roundID string) ([]model.Reservation, error) {
	seriesRepo := &mockReservationSeriesRepo{m.db}
	inRound := seriesRepo.seriesInRound(roundID)

	var out []model.Reservation
	for _, r := range m.db.reservations {
		if r.ReservationSeriesID != nil && inRound[*r.ReservationSeriesID] {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockReservationRepo) Update(_ context.Context, reservation *model.Reservation) error {
	stored, ok := m.db.reservations[reservation.ReservationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.State = reservation.State
	stored.AccessType = reservation.AccessType
	stored.BeginsAt = reservation.BeginsAt
	stored.EndsAt = reservation.EndsAt
	return nil
}

func (m *mockReservationRepo) SetState(_ context.Context, id string, state model.ReservationState) error {
	if r, ok := m.db.reservations[id]; ok {
		r.State = state
		return nil
	}
	return gorm.ErrRecordNotFound
}
