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
	ErrRoundNotFound       = errors.New("application round not found")
	ErrRoundNotInPast      = errors.New("application period must be over before handling")
	ErrRoundNotHandled     = errors.New("round must be handled before results can be sent")
	ErrRoundAlreadyHandled = errors.New("round is already handled")
	ErrRoundNotResettable  = errors.New("round allocation cannot be reset before the application period ends")
	ErrAccessCodeRevoke    = errors.New("failed to revoke an access code, reset aborted")
	ErrBadTimeFormat       = errors.New("invalid time format")
	ErrPeriodInverted      = errors.New("application period must end after it begins")
)

// ApplicationRoundService application round business interface
type ApplicationRoundService interface {
	Create(ctx context.Context, rc *permission.RoleContext, req *dto.CreateApplicationRoundRequest) (*dto.ApplicationRoundResponse, error)
	Get(ctx context.Context, id string) (*dto.ApplicationRoundResponse, error)
	List(ctx context.Context) ([]dto.ApplicationRoundResponse, error)
	MarkHandled(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationRoundResponse, error)
	MarkResultsSent(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationRoundResponse, error)
	ResetAllocation(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ResetAllocationResponse, error)
}

type applicationRoundService struct {
	repo       *repository.Repository
	accessCode AccessCodeClient
	logger     *zap.Logger
}

// NewApplicationRoundService creates an ApplicationRoundService instance.
func NewApplicationRoundService(
	repo *repository.Repository,
	accessCode AccessCodeClient,
	logger *zap.Logger,
) ApplicationRoundService {
	return &applicationRoundService{
		repo:       repo,
		accessCode: accessCode,
		logger:     logger,
	}
}

// ════════════════════════════════════════════════════════════════════
// CRUD and status
// ════════════════════════════════════════════════════════════════════

func (s *applicationRoundService) Create(ctx context.Context, rc *permission.RoleContext, req *dto.CreateApplicationRoundRequest) (*dto.ApplicationRoundResponse, error) {
	if rc.IsAnonymousOrInactive() ||
		(!rc.IsSuperuser && !rc.HasGeneralRole(permission.RolesGranting(permission.CanManageApplications)...)) {
		return nil, ErrPermissionDenied
	}

	begins, err := time.Parse(time.RFC3339, req.ApplicationPeriodBeginsAt)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	ends, err := time.Parse(time.RFC3339, req.ApplicationPeriodEndsAt)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	if !ends.After(begins) {
		return nil, ErrPeriodInverted
	}
	resBegin, err := time.Parse("2006-01-02", req.ReservationPeriodBeginDate)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	resEnd, err := time.Parse("2006-01-02", req.ReservationPeriodEndDate)
	if err != nil {
		return nil, ErrBadTimeFormat
	}

	round := &model.ApplicationRound{
		Name:                       req.Name,
		ApplicationPeriodBeginsAt:  begins,
		ApplicationPeriodEndsAt:    ends,
		ReservationPeriodBeginDate: resBegin,
		ReservationPeriodEndDate:   resEnd,
	}
	round.Version = 1

	if err := s.repo.ApplicationRound.Create(ctx, round, req.ReservationUnitIDs); err != nil {
		s.logger.Error("failed to create application round", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.ApplicationRound.GetByID(ctx, round.ApplicationRoundID)
	if err != nil {
		return nil, err
	}
	return roundToResponse(created), nil
}

func (s *applicationRoundService) Get(ctx context.Context, id string) (*dto.ApplicationRoundResponse, error) {
	round, err := s.repo.ApplicationRound.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return roundToResponse(round), nil
}

func (s *applicationRoundService) List(ctx context.Context) ([]dto.ApplicationRoundResponse, error) {
	rounds, err := s.repo.ApplicationRound.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ApplicationRoundResponse, 0, len(rounds))
	for i := range rounds {
		resp = append(resp, *roundToResponse(&rounds[i]))
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════════════
// handled / results-sent transitions
// ════════════════════════════════════════════════════════════════════

func (s *applicationRoundService) MarkHandled(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationRoundResponse, error) {
	round, err := s.loadManagedRound(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	switch round.Status(time.Now()) {
	case model.RoundStatusHandled, model.RoundStatusResultsSent:
		return nil, ErrRoundAlreadyHandled
	case model.RoundStatusUpcoming, model.RoundStatusOpen:
		return nil, ErrRoundNotInPast
	}

	now := time.Now()
	round.HandledAt = &now
	if err := s.repo.ApplicationRound.Update(ctx, round); err != nil {
		return nil, err
	}
	return roundToResponse(round), nil
}

func (s *applicationRoundService) MarkResultsSent(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationRoundResponse, error) {
	round, err := s.loadManagedRound(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	if round.Status(time.Now()) != model.RoundStatusHandled {
		return nil, ErrRoundNotHandled
	}

	now := time.Now()
	round.SentAt = &now
	if err := s.repo.ApplicationRound.Update(ctx, round); err != nil {
		return nil, err
	}
	return roundToResponse(round), nil
}

// ════════════════════════════════════════════════════════════════════
// allocation reset
// ════════════════════════════════════════════════════════════════════

// ResetAllocation rolls the round back one step. Each status gets its own
// branch, and each branch undoes only what that stage produced:
//
//   - IN_ALLOCATION: delete the round's allocated slots and clear every
//     option's lock/reject marker. No external calls. Status stays
//     IN_ALLOCATION.
//   - HANDLED: delete the seasonal series and reservations generated from
//     the allocations and clear handled_at; the slots and option markers
//     stay intact. Status moves back to IN_ALLOCATION.
//   - RESULTS_SENT: no row-level deletion at all; clear sent_at and every
//     application's results-ready notification flag so results can be
//     re-sent. Status moves back to HANDLED.
//
// Access codes live in the external keyless-entry service, so the HANDLED
// branch revokes them one by one BEFORE the local transaction: a failed
// revocation aborts the reset with the database untouched, and re-running
// the reset retries the remaining codes (deletion is idempotent there).
func (s *applicationRoundService) ResetAllocation(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ResetAllocationResponse, error) {
	round, err := s.loadManagedRound(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	switch round.Status(time.Now()) {
	case model.RoundStatusInAllocation:
		return s.resetInAllocation(ctx, round)
	case model.RoundStatusHandled:
		return s.resetHandled(ctx, round)
	case model.RoundStatusResultsSent:
		return s.resetResultsSent(ctx, round)
	default:
		return nil, ErrRoundNotResettable
	}
}

func (s *applicationRoundService) resetInAllocation(ctx context.Context, round *model.ApplicationRound) (*dto.ResetAllocationResponse, error) {
	id := round.ApplicationRoundID

	slots, err := s.repo.AllocatedSlot.ListByRound(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.Atomic(func(tx *repository.Repository) error {
		if err := tx.AllocatedSlot.DeleteByRound(ctx, id); err != nil {
			return err
		}
		if err := tx.Option.ClearFlagsByRound(ctx, id); err != nil {
			return err
		}
		return tx.ApplicationRound.Update(ctx, round)
	})
	if err != nil {
		s.logger.Error("allocation reset failed", zap.String("application_round_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("allocation reset complete",
		zap.String("application_round_id", id),
		zap.Int("deleted_slots", len(slots)))

	return &dto.ResetAllocationResponse{DeletedSlots: len(slots)}, nil
}

func (s *applicationRoundService) resetHandled(ctx context.Context, round *model.ApplicationRound) (*dto.ResetAllocationResponse, error) {
	id := round.ApplicationRoundID

	// phase 1: revoke access codes in the external service
	reservations, err := s.repo.Reservation.ListSeasonalByRound(ctx, id)
	if err != nil {
		return nil, err
	}
	revoked := 0
	for i := range reservations {
		if !reservations[i].HasActiveAccessCode() {
			continue
		}
		if err := s.accessCode.DeleteAccessCode(ctx, reservations[i].ReservationID); err != nil {
			s.logger.Error("access code revocation failed, aborting reset",
				zap.String("application_round_id", id),
				zap.String("reservation_id", reservations[i].ReservationID),
				zap.Int("revoked_so_far", revoked),
				zap.Error(err))
			return nil, ErrAccessCodeRevoke
		}
		revoked++
	}

	// phase 2: drop the generated series, keep slots and option markers
	err = s.repo.Atomic(func(tx *repository.Repository) error {
		if err := tx.ReservationSeries.DeleteSeasonalByRound(ctx, id); err != nil {
			return err
		}
		round.HandledAt = nil
		return tx.ApplicationRound.Update(ctx, round)
	})
	if err != nil {
		s.logger.Error("allocation reset failed", zap.String("application_round_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("allocation reset complete",
		zap.String("application_round_id", id),
		zap.Int("deleted_seasonal_reservations", len(reservations)),
		zap.Int("revoked_access_codes", revoked))

	return &dto.ResetAllocationResponse{RevokedAccessCodes: revoked}, nil
}

func (s *applicationRoundService) resetResultsSent(ctx context.Context, round *model.ApplicationRound) (*dto.ResetAllocationResponse, error) {
	id := round.ApplicationRoundID

	err := s.repo.Atomic(func(tx *repository.Repository) error {
		if err := tx.Application.ClearResultsSentFlags(ctx, id); err != nil {
			return err
		}
		round.SentAt = nil
		return tx.ApplicationRound.Update(ctx, round)
	})
	if err != nil {
		s.logger.Error("allocation reset failed", zap.String("application_round_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("results-sent flags cleared", zap.String("application_round_id", id))

	return &dto.ResetAllocationResponse{}, nil
}

// loadManagedRound loads a round and checks management permission against
// the owning units of its reservation units.
func (s *applicationRoundService) loadManagedRound(ctx context.Context, rc *permission.RoleContext, id string) (*model.ApplicationRound, error) {
	round, err := s.repo.ApplicationRound.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if !permission.CanManageApplicationRound(rc, round.UnitIDs()) {
		return nil, ErrPermissionDenied
	}
	return round, nil
}

func roundToResponse(round *model.ApplicationRound) *dto.ApplicationRoundResponse {
	resp := &dto.ApplicationRoundResponse{
		ID:                         round.ApplicationRoundID,
		Name:                       round.Name,
		Status:                     string(round.Status(time.Now())),
		ApplicationPeriodBeginsAt:  round.ApplicationPeriodBeginsAt.Format(time.RFC3339),
		ApplicationPeriodEndsAt:    round.ApplicationPeriodEndsAt.Format(time.RFC3339),
		ReservationPeriodBeginDate: round.ReservationPeriodBeginDate.Format("2006-01-02"),
		ReservationPeriodEndDate:   round.ReservationPeriodEndDate.Format("2006-01-02"),
		Version:                    round.Version,
	}
	if round.HandledAt != nil {
		v := round.HandledAt.Format(time.RFC3339)
		resp.HandledAt = &v
	}
	if round.SentAt != nil {
		v := round.SentAt.Format(time.RFC3339)
		resp.SentAt = &v
	}
	for _, ru := range round.ReservationUnits {
		resp.ReservationUnitIDs = append(resp.ReservationUnitIDs, ru.ReservationUnitID)
	}
	return resp
}
