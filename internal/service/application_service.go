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
	ErrApplicationNotFound = errors.New("application not found")
	ErrSectionNotFound     = errors.New("application section not found")
	ErrRoundNotOpen        = errors.New("the application period is not open")
	ErrApplicationSent     = errors.New("application has already been sent")
	ErrApplicationEmpty    = errors.New("application needs at least one section before sending")
	ErrSectionAllocated    = errors.New("section already has allocations and cannot be deleted")
	ErrBadWeekday          = errors.New("unknown day of the week")
	ErrDurationInverted    = errors.New("min duration cannot exceed max duration")
)

// ApplicationService application lifecycle business interface
type ApplicationService interface {
	Create(ctx context.Context, rc *permission.RoleContext, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error)
	Get(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationResponse, error)
	ListByRound(ctx context.Context, rc *permission.RoleContext, roundID string, offset, limit int) (*dto.ApplicationListResponse, error)
	ListOwn(ctx context.Context, rc *permission.RoleContext) ([]dto.ApplicationResponse, error)
	Send(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationResponse, error)
	Cancel(ctx context.Context, rc *permission.RoleContext, id string) error

	AddSection(ctx context.Context, rc *permission.RoleContext, applicationID string, req *dto.CreateSectionRequest) (*dto.SectionResponse, error)
	UpdateSection(ctx context.Context, rc *permission.RoleContext, sectionID string, req *dto.UpdateSectionRequest) (*dto.SectionResponse, error)
	DeleteSection(ctx context.Context, rc *permission.RoleContext, sectionID string) error
}

type applicationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewApplicationService creates an ApplicationService instance.
func NewApplicationService(repo *repository.Repository, logger *zap.Logger) ApplicationService {
	return &applicationService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════════════
// application lifecycle
// ════════════════════════════════════════════════════════════════════

func (s *applicationService) Create(ctx context.Context, rc *permission.RoleContext, req *dto.CreateApplicationRequest) (*dto.ApplicationResponse, error) {
	if rc.IsAnonymousOrInactive() {
		return nil, ErrPermissionDenied
	}

	round, err := s.repo.ApplicationRound.GetByID(ctx, req.ApplicationRoundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if round.Status(time.Now()) != model.RoundStatusOpen {
		return nil, ErrRoundNotOpen
	}

	app := &model.Application{
		ApplicationRoundID: round.ApplicationRoundID,
		UserID:             rc.UserID,
	}
	if err := s.repo.Application.Create(ctx, app); err != nil {
		s.logger.Error("failed to create application", zap.Error(err))
		return nil, err
	}
	return s.applicationToResponse(ctx, app, round)
}

func (s *applicationService) Get(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationResponse, error) {
	app, round, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if !permission.CanViewApplication(rc, app.UserID, applicationUnitIDs(app)) {
		return nil, ErrPermissionDenied
	}
	return s.applicationToResponse(ctx, app, round)
}

func (s *applicationService) ListByRound(ctx context.Context, rc *permission.RoleContext, roundID string, offset, limit int) (*dto.ApplicationListResponse, error) {
	round, err := s.repo.ApplicationRound.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	if !permission.CanManageApplicationRound(rc, round.UnitIDs()) {
		return nil, ErrPermissionDenied
	}

	apps, total, err := s.repo.Application.ListByRound(ctx, roundID, offset, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.ApplicationListResponse{Total: total}
	for i := range apps {
		r, err := s.applicationToResponse(ctx, &apps[i], round)
		if err != nil {
			return nil, err
		}
		resp.Applications = append(resp.Applications, *r)
	}
	return resp, nil
}

func (s *applicationService) ListOwn(ctx context.Context, rc *permission.RoleContext) ([]dto.ApplicationResponse, error) {
	if rc.IsAnonymousOrInactive() {
		return nil, ErrPermissionDenied
	}

	apps, err := s.repo.Application.ListByUser(ctx, rc.UserID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		r, err := s.applicationToResponse(ctx, &apps[i], apps[i].ApplicationRound)
		if err != nil {
			return nil, err
		}
		resp = append(resp, *r)
	}
	return resp, nil
}

func (s *applicationService) Send(ctx context.Context, rc *permission.RoleContext, id string) (*dto.ApplicationResponse, error) {
	app, round, err := s.loadApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	periodOpen := round != nil && round.Status(time.Now()) == model.RoundStatusOpen
	if !permission.CanManageApplication(rc, app.UserID, applicationUnitIDs(app), periodOpen) {
		return nil, ErrPermissionDenied
	}
	if !periodOpen {
		return nil, ErrRoundNotOpen
	}
	if app.SentAt != nil {
		return nil, ErrApplicationSent
	}
	if len(app.Sections) == 0 {
		return nil, ErrApplicationEmpty
	}

	now := time.Now()
	app.SentAt = &now
	if err := s.repo.Application.Update(ctx, app); err != nil {
		return nil, err
	}
	return s.applicationToResponse(ctx, app, round)
}

func (s *applicationService) Cancel(ctx context.Context, rc *permission.RoleContext, id string) error {
	app, round, err := s.loadApplication(ctx, id)
	if err != nil {
		return err
	}

	periodOpen := round != nil && round.Status(time.Now()) == model.RoundStatusOpen
	if !permission.CanManageApplication(rc, app.UserID, applicationUnitIDs(app), periodOpen) {
		return ErrPermissionDenied
	}

	now := time.Now()
	app.CancelledAt = &now
	return s.repo.Application.Update(ctx, app)
}

// ════════════════════════════════════════════════════════════════════
// sections
// ════════════════════════════════════════════════════════════════════

func (s *applicationService) AddSection(ctx context.Context, rc *permission.RoleContext, applicationID string, req *dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	app, round, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	periodOpen := round != nil && round.Status(time.Now()) == model.RoundStatusOpen
	if !permission.CanManageApplication(rc, app.UserID, applicationUnitIDs(app), periodOpen) {
		return nil, ErrPermissionDenied
	}

	if req.ReservationMinDurationMinutes > req.ReservationMaxDurationMinutes {
		return nil, ErrDurationInverted
	}
	beginDate, err := time.Parse("2006-01-02", req.ReservationsBeginDate)
	if err != nil {
		return nil, ErrBadTimeFormat
	}
	endDate, err := time.Parse("2006-01-02", req.ReservationsEndDate)
	if err != nil {
		return nil, ErrBadTimeFormat
	}

	ranges, err := rangesFromRequest(req.SuitableTimeRanges)
	if err != nil {
		return nil, err
	}

	section := &model.ApplicationSection{
		ApplicationID:                 app.ApplicationID,
		Name:                          req.Name,
		NumPersons:                    req.NumPersons,
		ReservationsBeginDate:         beginDate,
		ReservationsEndDate:           endDate,
		ReservationMinDurationMinutes: req.ReservationMinDurationMinutes,
		ReservationMaxDurationMinutes: req.ReservationMaxDurationMinutes,
		AppliedReservationsPerWeek:    req.AppliedReservationsPerWeek,
	}

	err = s.repo.Atomic(func(tx *repository.Repository) error {
		if err := tx.Section.Create(ctx, section); err != nil {
			return err
		}
		if err := tx.SuitableTimeRange.ReplaceForSection(ctx, section.ApplicationSectionID, ranges); err != nil {
			return err
		}
		options := make([]model.ReservationUnitOption, 0, len(req.ReservationUnitOptions))
		for _, opt := range req.ReservationUnitOptions {
			options = append(options, model.ReservationUnitOption{
				ReservationUnitID: opt.ReservationUnitID,
				PreferredOrder:    opt.PreferredOrder,
			})
		}
		return tx.Option.ReplaceForSection(ctx, section.ApplicationSectionID, options)
	})
	if err != nil {
		s.logger.Error("failed to create application section", zap.Error(err))
		return nil, err
	}

	return s.sectionResponse(ctx, section.ApplicationSectionID, round)
}

func (s *applicationService) UpdateSection(ctx context.Context, rc *permission.RoleContext, sectionID string, req *dto.UpdateSectionRequest) (*dto.SectionResponse, error) {
	section, app, round, err := s.loadSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	periodOpen := round != nil && round.Status(time.Now()) == model.RoundStatusOpen
	if !permission.CanManageApplication(rc, app.UserID, applicationUnitIDs(app), periodOpen) {
		return nil, ErrPermissionDenied
	}

	if req.Name != nil {
		section.Name = *req.Name
	}
	if req.NumPersons != nil {
		section.NumPersons = *req.NumPersons
	}
	if req.ReservationsBeginDate != nil {
		d, err := time.Parse("2006-01-02", *req.ReservationsBeginDate)
		if err != nil {
			return nil, ErrBadTimeFormat
		}
		section.ReservationsBeginDate = d
	}
	if req.ReservationsEndDate != nil {
		d, err := time.Parse("2006-01-02", *req.ReservationsEndDate)
		if err != nil {
			return nil, ErrBadTimeFormat
		}
		section.ReservationsEndDate = d
	}
	if req.ReservationMinDurationMinutes != nil {
		section.ReservationMinDurationMinutes = *req.ReservationMinDurationMinutes
	}
	if req.ReservationMaxDurationMinutes != nil {
		section.ReservationMaxDurationMinutes = *req.ReservationMaxDurationMinutes
	}
	if section.ReservationMinDurationMinutes > section.ReservationMaxDurationMinutes {
		return nil, ErrDurationInverted
	}
	if req.AppliedReservationsPerWeek != nil {
		section.AppliedReservationsPerWeek = *req.AppliedReservationsPerWeek
	}

	err = s.repo.Atomic(func(tx *repository.Repository) error {
		if err := tx.Section.Update(ctx, section); err != nil {
			return err
		}
		if req.SuitableTimeRanges != nil {
			ranges, err := rangesFromRequest(req.SuitableTimeRanges)
			if err != nil {
				return err
			}
			if err := tx.SuitableTimeRange.ReplaceForSection(ctx, sectionID, ranges); err != nil {
				return err
			}
		}
		if req.ReservationUnitOptions != nil {
			options := make([]model.ReservationUnitOption, 0, len(req.ReservationUnitOptions))
			for _, opt := range req.ReservationUnitOptions {
				options = append(options, model.ReservationUnitOption{
					ReservationUnitID: opt.ReservationUnitID,
					PreferredOrder:    opt.PreferredOrder,
				})
			}
			if err := tx.Option.ReplaceForSection(ctx, sectionID, options); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.sectionResponse(ctx, sectionID, round)
}

// DeleteSection removes a section. Only sections that allocation has not
// touched yet may go: any allocated slot or locked/rejected option blocks
// the delete.
func (s *applicationService) DeleteSection(ctx context.Context, rc *permission.RoleContext, sectionID string) error {
	section, app, round, err := s.loadSection(ctx, sectionID)
	if err != nil {
		return err
	}

	periodOpen := round != nil && round.Status(time.Now()) == model.RoundStatusOpen
	if !permission.CanManageApplication(rc, app.UserID, applicationUnitIDs(app), periodOpen) {
		return ErrPermissionDenied
	}

	count, err := s.repo.AllocatedSlot.CountBySection(ctx, sectionID)
	if err != nil {
		return err
	}
	roundStatus := model.RoundStatusOpen
	if round != nil {
		roundStatus = round.Status(time.Now())
	}
	if section.Status(roundStatus, count) != model.SectionStatusUnallocated {
		return ErrSectionAllocated
	}

	return s.repo.Section.Delete(ctx, sectionID)
}

// ════════════════════════════════════════════════════════════════════
// helpers
// ════════════════════════════════════════════════════════════════════

func (s *applicationService) loadApplication(ctx context.Context, id string) (*model.Application, *model.ApplicationRound, error) {
	app, err := s.repo.Application.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrApplicationNotFound
		}
		return nil, nil, err
	}
	round := app.ApplicationRound
	if round == nil {
		round, err = s.repo.ApplicationRound.GetByID(ctx, app.ApplicationRoundID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
	}
	return app, round, nil
}

func (s *applicationService) loadSection(ctx context.Context, sectionID string) (*model.ApplicationSection, *model.Application, *model.ApplicationRound, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrSectionNotFound
		}
		return nil, nil, nil, err
	}
	app, round, err := s.loadApplication(ctx, section.ApplicationID)
	if err != nil {
		return nil, nil, nil, err
	}
	return section, app, round, nil
}

// applicationUnitIDs collects the owning unit ids across every reservation
// unit option of the application's sections. An application with no options
// can only be seen by its owner and general-scope staff.
func applicationUnitIDs(app *model.Application) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, section := range app.Sections {
		for _, opt := range section.ReservationUnitOptions {
			if opt.ReservationUnit == nil {
				continue
			}
			unitID := opt.ReservationUnit.UnitID
			if !seen[unitID] {
				seen[unitID] = true
				ids = append(ids, unitID)
			}
		}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func rangesFromRequest(reqs []dto.SuitableTimeRangeRequest) ([]model.SuitableTimeRange, error) {
	ranges := make([]model.SuitableTimeRange, 0, len(reqs))
	for _, r := range reqs {
		day := model.Weekday(r.DayOfTheWeek)
		if !day.IsValid() {
			return nil, ErrBadWeekday
		}
		ranges = append(ranges, model.SuitableTimeRange{
			Priority:     r.Priority,
			DayOfTheWeek: day,
			BeginTime:    r.BeginTime,
			EndTime:      r.EndTime,
		})
	}
	return ranges, nil
}

func (s *applicationService) applicationToResponse(ctx context.Context, app *model.Application, round *model.ApplicationRound) (*dto.ApplicationResponse, error) {
	roundStatus := model.RoundStatusOpen
	if round != nil {
		roundStatus = round.Status(time.Now())
	}

	resp := &dto.ApplicationResponse{
		ID:                 app.ApplicationID,
		ApplicationRoundID: app.ApplicationRoundID,
		UserID:             app.UserID,
		Status:             string(app.Status(roundStatus)),
		CreatedAt:          app.CreatedAt.Format(time.RFC3339),
	}
	if app.SentAt != nil {
		v := app.SentAt.Format(time.RFC3339)
		resp.SentAt = &v
	}
	if app.CancelledAt != nil {
		v := app.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &v
	}

	for i := range app.Sections {
		section := &app.Sections[i]
		count, err := s.repo.AllocatedSlot.CountBySection(ctx, section.ApplicationSectionID)
		if err != nil {
			return nil, err
		}
		resp.Sections = append(resp.Sections, sectionToResponse(section, roundStatus, count))
	}
	return resp, nil
}

func (s *applicationService) sectionResponse(ctx context.Context, sectionID string, round *model.ApplicationRound) (*dto.SectionResponse, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.AllocatedSlot.CountBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	roundStatus := model.RoundStatusOpen
	if round != nil {
		roundStatus = round.Status(time.Now())
	}
	resp := sectionToResponse(section, roundStatus, count)
	return &resp, nil
}

func sectionToResponse(section *model.ApplicationSection, roundStatus model.RoundStatus, allocationCount int) dto.SectionResponse {
	resp := dto.SectionResponse{
		ID:                            section.ApplicationSectionID,
		ApplicationID:                 section.ApplicationID,
		Name:                          section.Name,
		NumPersons:                    section.NumPersons,
		ReservationsBeginDate:         section.ReservationsBeginDate.Format("2006-01-02"),
		ReservationsEndDate:           section.ReservationsEndDate.Format("2006-01-02"),
		ReservationMinDurationMinutes: section.ReservationMinDurationMinutes,
		ReservationMaxDurationMinutes: section.ReservationMaxDurationMinutes,
		AppliedReservationsPerWeek:    section.AppliedReservationsPerWeek,
		Status:                        string(section.Status(roundStatus, allocationCount)),
	}
	for _, r := range section.SuitableTimeRanges {
		resp.SuitableTimeRanges = append(resp.SuitableTimeRanges, dto.SuitableTimeRangeResponse{
			ID:           r.SuitableTimeRangeID,
			Priority:     r.Priority,
			DayOfTheWeek: string(r.DayOfTheWeek),
			BeginTime:    r.BeginTime,
			EndTime:      r.EndTime,
		})
	}
	for _, opt := range section.ReservationUnitOptions {
		optResp := dto.UnitOptionResponse{
			ID:                opt.ReservationUnitOptionID,
			ReservationUnitID: opt.ReservationUnitID,
			PreferredOrder:    opt.PreferredOrder,
			IsLocked:          opt.IsLocked,
			IsRejected:        opt.IsRejected,
		}
		for _, slot := range opt.AllocatedTimeSlots {
			optResp.AllocatedSlots = append(optResp.AllocatedSlots, allocatedSlotToResponse(&slot))
		}
		resp.ReservationUnitOptions = append(resp.ReservationUnitOptions, optResp)
	}
	return resp
}

func allocatedSlotToResponse(slot *model.AllocatedTimeSlot) dto.AllocatedSlotResponse {
	return dto.AllocatedSlotResponse{
		ID:                      slot.AllocatedTimeSlotID,
		ReservationUnitOptionID: slot.ReservationUnitOptionID,
		DayOfTheWeek:            string(slot.DayOfTheWeek),
		DayOfTheWeekNumber:      slot.DayOfTheWeekNumber(),
		BeginTime:               slot.BeginTime,
		EndTime:                 slot.EndTime,
		AllocatedTimeOfWeek:     slot.AllocatedTimeOfWeek(),
	}
}
