package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
	"varaamo/backend/internal/repository"
)

var (
	ErrOptionNotFound     = errors.New("reservation unit option not found")
	ErrSlotNotFound       = errors.New("allocated time slot not found")
	ErrOptionLocked       = errors.New("option is locked and cannot receive allocations")
	ErrOptionRejected     = errors.New("option is rejected and cannot receive allocations")
	ErrSlotTimeInverted   = errors.New("slot must end after it begins")
	ErrSlotOverlap        = errors.New("slot overlaps an existing allocation for this section")
	ErrOptionHasSlots     = errors.New("option with allocations cannot be rejected")
	ErrSectionFull        = errors.New("section already has its applied number of allocations")
	ErrRoundNotAllocating = errors.New("round is not in allocation")
)

// AllocationService manual allocation business interface. Handlers allocate
// weekly slots to reservation unit options and mark options locked or
// rejected while working through a round.
type AllocationService interface {
	CreateSlot(ctx context.Context, rc *permission.RoleContext, req *dto.CreateAllocationRequest) (*dto.AllocatedSlotResponse, error)
	DeleteSlot(ctx context.Context, rc *permission.RoleContext, slotID string) error
	LockOption(ctx context.Context, rc *permission.RoleContext, optionID string) error
	UnlockOption(ctx context.Context, rc *permission.RoleContext, optionID string) error
	RejectOption(ctx context.Context, rc *permission.RoleContext, optionID string) error
	RestoreOption(ctx context.Context, rc *permission.RoleContext, optionID string) error
}

type allocationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAllocationService creates an AllocationService instance.
func NewAllocationService(repo *repository.Repository, logger *zap.Logger) AllocationService {
	return &allocationService{repo: repo, logger: logger}
}

func (s *allocationService) CreateSlot(ctx context.Context, rc *permission.RoleContext, req *dto.CreateAllocationRequest) (*dto.AllocatedSlotResponse, error) {
	opt, section, round, err := s.loadOption(ctx, rc, req.ReservationUnitOptionID)
	if err != nil {
		return nil, err
	}

	if round.Status(time.Now()) != model.RoundStatusInAllocation {
		return nil, ErrRoundNotAllocating
	}
	if opt.IsLocked {
		return nil, ErrOptionLocked
	}
	if opt.IsRejected {
		return nil, ErrOptionRejected
	}

	day := model.Weekday(req.DayOfTheWeek)
	if !day.IsValid() {
		return nil, ErrBadWeekday
	}
	if req.BeginTime >= req.EndTime {
		return nil, ErrSlotTimeInverted
	}

	// one section never gets two allocations on the same weekday, and never
	// more slots than it applied for
	existing := 0
	for _, other := range section.ReservationUnitOptions {
		for _, slot := range other.AllocatedTimeSlots {
			existing++
			if slot.DayOfTheWeek == day {
				return nil, ErrSlotOverlap
			}
		}
	}
	if existing >= section.AppliedReservationsPerWeek {
		return nil, ErrSectionFull
	}

	slot := &model.AllocatedTimeSlot{
		ReservationUnitOptionID: opt.ReservationUnitOptionID,
		DayOfTheWeek:            day,
		BeginTime:               req.BeginTime,
		EndTime:                 req.EndTime,
	}
	if err := s.repo.AllocatedSlot.Create(ctx, slot); err != nil {
		s.logger.Error("failed to create allocated slot", zap.Error(err))
		return nil, err
	}

	resp := allocatedSlotToResponse(slot)
	return &resp, nil
}

func (s *allocationService) DeleteSlot(ctx context.Context, rc *permission.RoleContext, slotID string) error {
	slot, err := s.repo.AllocatedSlot.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}

	_, _, round, err := s.loadOption(ctx, rc, slot.ReservationUnitOptionID)
	if err != nil {
		return err
	}
	if round.Status(time.Now()) != model.RoundStatusInAllocation {
		return ErrRoundNotAllocating
	}

	return s.repo.AllocatedSlot.Delete(ctx, slotID)
}

func (s *allocationService) LockOption(ctx context.Context, rc *permission.RoleContext, optionID string) error {
	return s.setOptionFlag(ctx, rc, optionID, func(opt *model.ReservationUnitOption) error {
		if opt.IsRejected {
			return ErrOptionRejected
		}
		return s.repo.Option.SetLocked(ctx, optionID, true)
	})
}

func (s *allocationService) UnlockOption(ctx context.Context, rc *permission.RoleContext, optionID string) error {
	return s.setOptionFlag(ctx, rc, optionID, func(_ *model.ReservationUnitOption) error {
		return s.repo.Option.SetLocked(ctx, optionID, false)
	})
}

// RejectOption marks an option as never-to-be-allocated. Only options
// without allocations can be rejected.
func (s *allocationService) RejectOption(ctx context.Context, rc *permission.RoleContext, optionID string) error {
	return s.setOptionFlag(ctx, rc, optionID, func(opt *model.ReservationUnitOption) error {
		if len(opt.AllocatedTimeSlots) > 0 {
			return ErrOptionHasSlots
		}
		if opt.IsLocked {
			return ErrOptionLocked
		}
		return s.repo.Option.SetRejected(ctx, optionID, true)
	})
}

func (s *allocationService) RestoreOption(ctx context.Context, rc *permission.RoleContext, optionID string) error {
	return s.setOptionFlag(ctx, rc, optionID, func(_ *model.ReservationUnitOption) error {
		return s.repo.Option.SetRejected(ctx, optionID, false)
	})
}

func (s *allocationService) setOptionFlag(ctx context.Context, rc *permission.RoleContext, optionID string, apply func(*model.ReservationUnitOption) error) error {
	opt, _, round, err := s.loadOption(ctx, rc, optionID)
	if err != nil {
		return err
	}
	if round.Status(time.Now()) != model.RoundStatusInAllocation {
		return ErrRoundNotAllocating
	}
	return apply(opt)
}

// loadOption resolves an option up to its round and checks round-management
// permission on the way.
func (s *allocationService) loadOption(ctx context.Context, rc *permission.RoleContext, optionID string) (*model.ReservationUnitOption, *model.ApplicationSection, *model.ApplicationRound, error) {
	opt, err := s.repo.Option.GetByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrOptionNotFound
		}
		return nil, nil, nil, err
	}

	section, err := s.repo.Section.GetByID(ctx, opt.ApplicationSectionID)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := s.repo.Application.GetByID(ctx, section.ApplicationID)
	if err != nil {
		return nil, nil, nil, err
	}
	round, err := s.repo.ApplicationRound.GetByID(ctx, app.ApplicationRoundID)
	if err != nil {
		return nil, nil, nil, err
	}

	if !permission.CanManageApplicationRound(rc, round.UnitIDs()) {
		return nil, nil, nil, ErrPermissionDenied
	}
	return opt, section, round, nil
}
