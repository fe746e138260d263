package repository

import "gorm.io/gorm"

// Repository aggregate entry point for every data-access interface.
type Repository struct {
	db *gorm.DB

	User        UserRepository
	GeneralRole GeneralRoleRepository
	UnitRole    UnitRoleRepository

	Unit      UnitRepository
	UnitGroup UnitGroupRepository

	Space           SpaceRepository
	Resource        ResourceRepository
	ReservationUnit ReservationUnitRepository
	AffectingUnit   AffectingUnitRepository

	ApplicationRound  ApplicationRoundRepository
	Application       ApplicationRepository
	Section           ApplicationSectionRepository
	SuitableTimeRange SuitableTimeRangeRepository

	Option        ReservationUnitOptionRepository
	AllocatedSlot AllocatedTimeSlotRepository

	ReservationSeries ReservationSeriesRepository
	Reservation       ReservationRepository
}

// NewRepository creates the Repository aggregate over one gorm handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:                db,
		User:              NewUserRepo(db),
		GeneralRole:       NewGeneralRoleRepo(db),
		UnitRole:          NewUnitRoleRepo(db),
		Unit:              NewUnitRepo(db),
		UnitGroup:         NewUnitGroupRepo(db),
		Space:             NewSpaceRepo(db),
		Resource:          NewResourceRepo(db),
		ReservationUnit:   NewReservationUnitRepo(db),
		AffectingUnit:     NewAffectingUnitRepo(db),
		ApplicationRound:  NewApplicationRoundRepo(db),
		Application:       NewApplicationRepo(db),
		Section:           NewApplicationSectionRepo(db),
		SuitableTimeRange: NewSuitableTimeRangeRepo(db),
		Option:            NewReservationUnitOptionRepo(db),
		AllocatedSlot:     NewAllocatedTimeSlotRepo(db),
		ReservationSeries: NewReservationSeriesRepo(db),
		Reservation:       NewReservationRepo(db),
	}
}

// Atomic runs fn with a Repository bound to one database transaction. The
// whole fn commits or rolls back as a unit. A nil db (in-memory test
// repositories) runs fn directly against the receiver.
func (r *Repository) Atomic(fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
