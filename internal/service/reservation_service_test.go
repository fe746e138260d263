package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/internal/permission"
)

func newResvService(db *mockDB) ReservationService {
	return NewReservationService(newTestRepo(db), zap.NewNop())
}

func viewerCtx(userID string, unitIDs ...string) *permission.RoleContext {
	return &permission.RoleContext{
		UserID:          userID,
		IsAuthenticated: true,
		IsActive:        true,
		UnitRoles:       map[permission.Role][]string{permission.RoleViewer: unitIDs},
	}
}

func seedReservationUnits(db *mockDB) {
	db.units["unit-1"] = &model.Unit{UnitID: "unit-1", Name: "Community centre"}
	db.rus["ru-1"] = &model.ReservationUnit{ReservationUnitID: "ru-1", UnitID: "unit-1", Name: "Hall A"}
	db.rus["ru-2"] = &model.ReservationUnit{ReservationUnitID: "ru-2", UnitID: "unit-1", Name: "Hall A side room"}
	// the side room shares a space chain with the hall
	db.affecting["ru-1"] = []string{"ru-2"}
	db.affecting["ru-2"] = []string{"ru-1"}
}

func at(hour int) time.Time {
	return time.Date(2027, 3, 10, hour, 0, 0, 0, time.UTC)
}

func reservationReq(ruID string, begin, end time.Time) *dto.CreateReservationRequest {
	return &dto.CreateReservationRequest{
		ReservationUnitID: ruID,
		BeginsAt:          begin.Format(time.RFC3339),
		EndsAt:            end.Format(time.RFC3339),
	}
}

// ── staff reservations ──

func TestCreateStaffReservation(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)

	resp, err := svc.CreateStaffReservation(context.Background(), handlerCtx("h1", "unit-1"), reservationReq("ru-1", at(10), at(12)))
	if err != nil {
		t.Fatalf("CreateStaffReservation: %v", err)
	}
	if resp.State != string(model.ReservationStateConfirmed) {
		t.Errorf("state = %s, want CONFIRMED", resp.State)
	}
	if resp.AccessType != string(model.AccessTypeUnrestricted) {
		t.Errorf("access type = %s, want UNRESTRICTED", resp.AccessType)
	}
}

func TestCreateStaffReservation_PermissionScopedToUnit(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)

	_, err := svc.CreateStaffReservation(context.Background(), handlerCtx("h1", "unit-other"), reservationReq("ru-1", at(10), at(12)))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestCreateStaffReservation_Validation(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(12), at(10))); !errors.Is(err, ErrReservationInverted) {
		t.Errorf("inverted: err = %v, want ErrReservationInverted", err)
	}

	bad := reservationReq("ru-1", at(10), at(12))
	bad.BeginsAt = "noonish"
	if _, err := svc.CreateStaffReservation(ctx, superCtx(), bad); !errors.Is(err, ErrBadTimeFormat) {
		t.Errorf("bad time: err = %v, want ErrBadTimeFormat", err)
	}

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("missing", at(10), at(12))); !errors.Is(err, ErrReservationUnitNotFound) {
		t.Errorf("unknown unit: err = %v, want ErrReservationUnitNotFound", err)
	}
}

// Intervals are half-open: a reservation ending at 12:00 does not collide
// with one starting at 12:00.
func TestCreateStaffReservation_Conflicts(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(10), at(12))); err != nil {
		t.Fatalf("first reservation: %v", err)
	}

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(11), at(13))); !errors.Is(err, ErrReservationConflict) {
		t.Errorf("overlap: err = %v, want ErrReservationConflict", err)
	}
	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(12), at(14))); err != nil {
		t.Errorf("back-to-back after: %v", err)
	}
	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(9), at(10))); err != nil {
		t.Errorf("back-to-back before: %v", err)
	}
}

func TestCreateStaffReservation_AffectingUnitBlocks(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-2", at(10), at(12))); err != nil {
		t.Fatalf("side room reservation: %v", err)
	}

	// the hall is blocked through the shared space chain
	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(11), at(13))); !errors.Is(err, ErrReservationConflict) {
		t.Errorf("err = %v, want ErrReservationConflict", err)
	}
}

func TestCreateStaffReservation_CancelledDoesNotBlock(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	db.reservations["resv-c"] = &model.Reservation{
		ReservationID:     "resv-c",
		ReservationUnitID: "ru-1",
		UserID:            "u1",
		State:             model.ReservationStateCancelled,
		AccessType:        model.AccessTypeUnrestricted,
		BeginsAt:          at(10),
		EndsAt:            at(12),
	}
	svc := newResvService(db)

	if _, err := svc.CreateStaffReservation(context.Background(), superCtx(), reservationReq("ru-1", at(10), at(12))); err != nil {
		t.Errorf("cancelled reservation blocked the slot: %v", err)
	}
}

// ── read and state ──

func TestGetReservation(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	created, err := svc.CreateStaffReservation(ctx, handlerCtx("h1", "unit-1"), reservationReq("ru-1", at(10), at(12)))
	if err != nil {
		t.Fatalf("CreateStaffReservation: %v", err)
	}

	if _, err := svc.Get(ctx, memberCtx("h1"), created.ID); err != nil {
		t.Errorf("owner: %v", err)
	}
	if _, err := svc.Get(ctx, memberCtx("stranger"), created.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("stranger: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.Get(ctx, viewerCtx("v1", "unit-1"), created.ID); err != nil {
		t.Errorf("unit viewer: %v", err)
	}
}

func TestSetReservationState(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	created, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-1", at(10), at(12)))
	if err != nil {
		t.Fatalf("CreateStaffReservation: %v", err)
	}

	// viewer can read but not manage
	if err := svc.SetState(ctx, viewerCtx("v1", "unit-1"), created.ID, model.ReservationStateDenied); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("viewer: err = %v, want ErrPermissionDenied", err)
	}

	if err := svc.SetState(ctx, handlerCtx("h1", "unit-1"), created.ID, model.ReservationStateDenied); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if db.reservations[created.ID].State != model.ReservationStateDenied {
		t.Errorf("state = %s, want DENIED", db.reservations[created.ID].State)
	}
}

func TestListAffecting(t *testing.T) {
	db := newMockDB()
	seedReservationUnits(db)
	svc := newResvService(db)
	ctx := context.Background()

	if _, err := svc.CreateStaffReservation(ctx, superCtx(), reservationReq("ru-2", at(10), at(12))); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	if _, err := svc.ListAffecting(ctx, memberCtx("u1"), "ru-1", at(0), at(23)); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("plain member: err = %v, want ErrPermissionDenied", err)
	}

	got, err := svc.ListAffecting(ctx, viewerCtx("v1", "unit-1"), "ru-1", at(0), at(23))
	if err != nil {
		t.Fatalf("ListAffecting: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("affecting count = %d, want 1", len(got))
	}
}

// ── seasonal series generation ──

func TestGenerateSeasonalSeries(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	// start from allocations only; generation creates the series
	db.series = make(map[string]*model.ReservationSeries)
	db.reservations = make(map[string]*model.Reservation)

	handled := time.Now()
	db.rounds[roundID].HandledAt = &handled
	// Mon 2027-01-04 .. Mon 2027-02-01 holds four Wednesdays
	db.rounds[roundID].ReservationPeriodBeginDate = time.Date(2027, 1, 4, 0, 0, 0, 0, time.UTC)
	db.rounds[roundID].ReservationPeriodEndDate = time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC)

	svc := newResvService(db)
	created, err := svc.GenerateSeasonalSeries(context.Background(), superCtx(), roundID)
	if err != nil {
		t.Fatalf("GenerateSeasonalSeries: %v", err)
	}
	if created != 4 {
		t.Errorf("created = %d, want 4", created)
	}
	if len(db.series) != 1 {
		t.Errorf("series count = %d, want 1", len(db.series))
	}

	for _, r := range db.reservations {
		if r.BeginsAt.Weekday() != time.Wednesday {
			t.Errorf("reservation on %s, want Wednesday", r.BeginsAt.Weekday())
		}
		if r.BeginsAt.Hour() != 17 || r.EndsAt.Hour() != 19 {
			t.Errorf("reservation %s-%s, want 17:00-19:00", r.BeginsAt, r.EndsAt)
		}
		if r.State != model.ReservationStateConfirmed {
			t.Errorf("state = %s, want CONFIRMED", r.State)
		}
		if r.UserID != "applicant-1" {
			t.Errorf("user = %s, want applicant-1", r.UserID)
		}
	}
}

func TestGenerateSeasonalSeries_RequiresHandledRound(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	svc := newResvService(db)

	if _, err := svc.GenerateSeasonalSeries(context.Background(), superCtx(), roundID); !errors.Is(err, ErrRoundNotHandled) {
		t.Errorf("err = %v, want ErrRoundNotHandled", err)
	}
}
