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

func superCtx() *permission.RoleContext {
	return &permission.RoleContext{UserID: "staff-1", IsAuthenticated: true, IsActive: true, IsSuperuser: true}
}

func memberCtx(userID string) *permission.RoleContext {
	return &permission.RoleContext{UserID: userID, IsAuthenticated: true, IsActive: true}
}

func handlerCtx(userID string, unitIDs ...string) *permission.RoleContext {
	return &permission.RoleContext{
		UserID:          userID,
		IsAuthenticated: true,
		IsActive:        true,
		UnitRoles:       map[permission.Role][]string{permission.RoleHandler: unitIDs},
	}
}

// fakeAccessCodeClient counts revocations and can be told to start failing
// after a number of successful calls.
type fakeAccessCodeClient struct {
	deleted  []string
	failFrom int // fail once len(deleted) reaches this; -1 never fails
}

func newFakeAccessCodeClient() *fakeAccessCodeClient {
	return &fakeAccessCodeClient{failFrom: -1}
}

func (f *fakeAccessCodeClient) DeleteAccessCode(_ context.Context, reservationID string) error {
	if f.failFrom >= 0 && len(f.deleted) >= f.failFrom {
		return errors.New("keyless entry service unavailable")
	}
	f.deleted = append(f.deleted, reservationID)
	return nil
}

// seedAllocatedRound builds a round whose application period ended a week
// ago, with one sent application, one section, one locked option carrying an
// allocated slot, and a seasonal series with two reservations. resv-1 holds
// an active access code, resv-2 does not.
func seedAllocatedRound(db *mockDB) string {
	db.units["unit-1"] = &model.Unit{UnitID: "unit-1", Name: "Community centre"}
	db.rus["ru-1"] = &model.ReservationUnit{ReservationUnitID: "ru-1", UnitID: "unit-1", Name: "Hall A"}

	now := time.Now()
	round := &model.ApplicationRound{
		ApplicationRoundID:         "round-1",
		Name:                       "Winter 2026",
		ApplicationPeriodBeginsAt:  now.AddDate(0, -2, 0),
		ApplicationPeriodEndsAt:    now.AddDate(0, 0, -7),
		ReservationPeriodBeginDate: now.AddDate(0, 1, 0),
		ReservationPeriodEndDate:   now.AddDate(0, 4, 0),
	}
	round.Version = 1
	db.rounds["round-1"] = round
	db.roundRUs["round-1"] = []string{"ru-1"}

	sent := now.AddDate(0, 0, -10)
	db.apps["app-1"] = &model.Application{
		ApplicationID:      "app-1",
		ApplicationRoundID: "round-1",
		UserID:             "applicant-1",
		SentAt:             &sent,
	}
	db.sections["section-1"] = &model.ApplicationSection{
		ApplicationSectionID:          "section-1",
		ApplicationID:                 "app-1",
		Name:                          "Junior practice",
		NumPersons:                    12,
		ReservationsBeginDate:         round.ReservationPeriodBeginDate,
		ReservationsEndDate:           round.ReservationPeriodEndDate,
		ReservationMinDurationMinutes: 60,
		ReservationMaxDurationMinutes: 120,
		AppliedReservationsPerWeek:    2,
	}
	db.options["opt-1"] = &model.ReservationUnitOption{
		ReservationUnitOptionID: "opt-1",
		ApplicationSectionID:    "section-1",
		ReservationUnitID:       "ru-1",
		PreferredOrder:          0,
		IsLocked:                true,
	}
	slotID := "slot-1"
	db.slots[slotID] = &model.AllocatedTimeSlot{
		AllocatedTimeSlotID:     slotID,
		ReservationUnitOptionID: "opt-1",
		DayOfTheWeek:            model.WeekdayWednesday,
		BeginTime:               "17:00",
		EndTime:                 "19:00",
	}

	seriesID := "series-1"
	db.series[seriesID] = &model.ReservationSeries{
		ReservationSeriesID: seriesID,
		AllocatedTimeSlotID: &slotID,
		ReservationUnitID:   "ru-1",
		UserID:              "applicant-1",
		SeriesType:          model.SeriesTypeSeasonal,
	}
	db.reservations["resv-1"] = &model.Reservation{
		ReservationID:       "resv-1",
		ReservationSeriesID: &seriesID,
		ReservationUnitID:   "ru-1",
		UserID:              "applicant-1",
		State:               model.ReservationStateConfirmed,
		AccessType:          model.AccessTypeAccessCode,
		BeginsAt:            now.AddDate(0, 1, 1),
		EndsAt:              now.AddDate(0, 1, 1).Add(2 * time.Hour),
	}
	db.reservations["resv-2"] = &model.Reservation{
		ReservationID:       "resv-2",
		ReservationSeriesID: &seriesID,
		ReservationUnitID:   "ru-1",
		UserID:              "applicant-1",
		State:               model.ReservationStateConfirmed,
		AccessType:          model.AccessTypeUnrestricted,
		BeginsAt:            now.AddDate(0, 1, 8),
		EndsAt:              now.AddDate(0, 1, 8).Add(2 * time.Hour),
	}
	return "round-1"
}

func newRoundService(db *mockDB, fake *fakeAccessCodeClient) ApplicationRoundService {
	return NewApplicationRoundService(newTestRepo(db), fake, zap.NewNop())
}

// ── create ──

func TestCreateRound(t *testing.T) {
	db := newMockDB()
	db.units["unit-1"] = &model.Unit{UnitID: "unit-1"}
	db.rus["ru-1"] = &model.ReservationUnit{ReservationUnitID: "ru-1", UnitID: "unit-1"}
	svc := newRoundService(db, newFakeAccessCodeClient())

	req := &dto.CreateApplicationRoundRequest{
		Name:                       "Summer 2027",
		ApplicationPeriodBeginsAt:  "2027-01-01T08:00:00Z",
		ApplicationPeriodEndsAt:    "2027-02-01T16:00:00Z",
		ReservationPeriodBeginDate: "2027-06-01",
		ReservationPeriodEndDate:   "2027-08-31",
		ReservationUnitIDs:         []string{"ru-1"},
	}

	resp, err := svc.Create(context.Background(), superCtx(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Status != string(model.RoundStatusUpcoming) {
		t.Errorf("status = %s, want UPCOMING", resp.Status)
	}
	if resp.Version != 1 {
		t.Errorf("version = %d, want 1", resp.Version)
	}
	if len(resp.ReservationUnitIDs) != 1 || resp.ReservationUnitIDs[0] != "ru-1" {
		t.Errorf("reservation unit ids = %v", resp.ReservationUnitIDs)
	}
}

func TestCreateRound_Validation(t *testing.T) {
	svc := newRoundService(newMockDB(), newFakeAccessCodeClient())
	ctx := context.Background()

	base := dto.CreateApplicationRoundRequest{
		Name:                       "r",
		ApplicationPeriodBeginsAt:  "2027-01-01T08:00:00Z",
		ApplicationPeriodEndsAt:    "2027-02-01T16:00:00Z",
		ReservationPeriodBeginDate: "2027-06-01",
		ReservationPeriodEndDate:   "2027-08-31",
	}

	bad := base
	bad.ApplicationPeriodBeginsAt = "tomorrow"
	if _, err := svc.Create(ctx, superCtx(), &bad); !errors.Is(err, ErrBadTimeFormat) {
		t.Errorf("bad time: err = %v, want ErrBadTimeFormat", err)
	}

	inverted := base
	inverted.ApplicationPeriodBeginsAt, inverted.ApplicationPeriodEndsAt =
		inverted.ApplicationPeriodEndsAt, inverted.ApplicationPeriodBeginsAt
	if _, err := svc.Create(ctx, superCtx(), &inverted); !errors.Is(err, ErrPeriodInverted) {
		t.Errorf("inverted period: err = %v, want ErrPeriodInverted", err)
	}

	if _, err := svc.Create(ctx, memberCtx("u1"), &base); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("plain member: err = %v, want ErrPermissionDenied", err)
	}
}

// ── handled / results-sent transitions ──

func TestMarkHandled(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	svc := newRoundService(db, newFakeAccessCodeClient())
	ctx := context.Background()

	resp, err := svc.MarkHandled(ctx, superCtx(), roundID)
	if err != nil {
		t.Fatalf("MarkHandled: %v", err)
	}
	if resp.Status != string(model.RoundStatusHandled) {
		t.Errorf("status = %s, want HANDLED", resp.Status)
	}
	if db.rounds[roundID].HandledAt == nil {
		t.Error("handled_at not persisted")
	}
	if db.rounds[roundID].Version != 2 {
		t.Errorf("version = %d, want 2", db.rounds[roundID].Version)
	}

	if _, err := svc.MarkHandled(ctx, superCtx(), roundID); !errors.Is(err, ErrRoundAlreadyHandled) {
		t.Errorf("second MarkHandled: err = %v, want ErrRoundAlreadyHandled", err)
	}
}

func TestMarkHandled_OpenRoundRejected(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	db.rounds[roundID].ApplicationPeriodEndsAt = time.Now().AddDate(0, 0, 7)
	svc := newRoundService(db, newFakeAccessCodeClient())

	if _, err := svc.MarkHandled(context.Background(), superCtx(), roundID); !errors.Is(err, ErrRoundNotInPast) {
		t.Errorf("err = %v, want ErrRoundNotInPast", err)
	}
}

func TestMarkResultsSent(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	svc := newRoundService(db, newFakeAccessCodeClient())
	ctx := context.Background()

	if _, err := svc.MarkResultsSent(ctx, superCtx(), roundID); !errors.Is(err, ErrRoundNotHandled) {
		t.Errorf("unhandled round: err = %v, want ErrRoundNotHandled", err)
	}

	handled := time.Now()
	db.rounds[roundID].HandledAt = &handled

	resp, err := svc.MarkResultsSent(ctx, superCtx(), roundID)
	if err != nil {
		t.Fatalf("MarkResultsSent: %v", err)
	}
	if resp.Status != string(model.RoundStatusResultsSent) {
		t.Errorf("status = %s, want RESULTS_SENT", resp.Status)
	}
	if db.rounds[roundID].SentAt == nil {
		t.Error("sent_at not persisted")
	}
}

func TestRoundTransitions_UnitHandler(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	svc := newRoundService(db, newFakeAccessCodeClient())
	ctx := context.Background()

	if _, err := svc.MarkHandled(ctx, handlerCtx("h1", "unit-other"), roundID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("foreign-unit handler: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := svc.MarkHandled(ctx, handlerCtx("h1", "unit-1"), roundID); err != nil {
		t.Errorf("own-unit handler: %v", err)
	}
}

// ── allocation reset ──

func TestResetAllocation_InAllocation(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	fake := newFakeAccessCodeClient()
	svc := newRoundService(db, fake)

	resp, err := svc.ResetAllocation(context.Background(), superCtx(), roundID)
	if err != nil {
		t.Fatalf("ResetAllocation: %v", err)
	}

	if resp.DeletedSlots != 1 {
		t.Errorf("deleted slots = %d, want 1", resp.DeletedSlots)
	}
	if resp.RevokedAccessCodes != 0 {
		t.Errorf("revoked codes = %d, want 0", resp.RevokedAccessCodes)
	}
	if len(fake.deleted) != 0 {
		t.Errorf("external revocations = %v, want none before handling", fake.deleted)
	}

	if len(db.slots) != 0 {
		t.Errorf("%d slots survived the reset", len(db.slots))
	}
	// generated series belong to the handled phase and stay put here
	if len(db.series) != 1 || len(db.reservations) != 2 {
		t.Errorf("series/reservations touched: %d series, %d reservations", len(db.series), len(db.reservations))
	}
	if db.options["opt-1"].IsLocked || db.options["opt-1"].IsRejected {
		t.Error("option markers not cleared")
	}
	if db.rounds[roundID].Version != 2 {
		t.Errorf("version = %d, want 2", db.rounds[roundID].Version)
	}
	if db.rounds[roundID].Status(time.Now()) != model.RoundStatusInAllocation {
		t.Errorf("status = %s, want IN_ALLOCATION", db.rounds[roundID].Status(time.Now()))
	}
}

func TestResetAllocation_HandledDropsSeries(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	handled := time.Now().AddDate(0, 0, -1)
	db.rounds[roundID].HandledAt = &handled
	fake := newFakeAccessCodeClient()
	svc := newRoundService(db, fake)

	resp, err := svc.ResetAllocation(context.Background(), superCtx(), roundID)
	if err != nil {
		t.Fatalf("ResetAllocation: %v", err)
	}

	if resp.RevokedAccessCodes != 1 {
		t.Errorf("revoked codes = %d, want 1", resp.RevokedAccessCodes)
	}
	// only resv-1 carries an access code; resv-2 is UNRESTRICTED
	if len(fake.deleted) != 1 || fake.deleted[0] != "resv-1" {
		t.Errorf("revoked reservations = %v, want [resv-1]", fake.deleted)
	}
	if resp.DeletedSlots != 0 {
		t.Errorf("deleted slots = %d, want 0", resp.DeletedSlots)
	}

	if len(db.series) != 0 || len(db.reservations) != 0 {
		t.Errorf("seasonal series survived: %d series, %d reservations", len(db.series), len(db.reservations))
	}
	// the allocation itself is the input for re-handling and must survive
	if len(db.slots) != 1 {
		t.Errorf("slot count = %d, want untouched 1", len(db.slots))
	}
	if !db.options["opt-1"].IsLocked {
		t.Error("option lock cleared, want untouched")
	}

	round := db.rounds[roundID]
	if round.HandledAt != nil {
		t.Error("handled_at not cleared")
	}
	if round.Status(time.Now()) != model.RoundStatusInAllocation {
		t.Errorf("status = %s, want IN_ALLOCATION", round.Status(time.Now()))
	}
	if round.Version != 2 {
		t.Errorf("version = %d, want 2", round.Version)
	}
}

func TestResetAllocation_ResultsSentClearsFlagsOnly(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	handled := time.Now().AddDate(0, 0, -2)
	sent := time.Now().AddDate(0, 0, -1)
	db.rounds[roundID].HandledAt = &handled
	db.rounds[roundID].SentAt = &sent
	db.apps["app-1"].ResultsReadyNotificationSentAt = &sent
	fake := newFakeAccessCodeClient()
	svc := newRoundService(db, fake)

	if _, err := svc.ResetAllocation(context.Background(), superCtx(), roundID); err != nil {
		t.Fatalf("ResetAllocation: %v", err)
	}

	round := db.rounds[roundID]
	if round.SentAt != nil {
		t.Error("sent_at not cleared")
	}
	if round.HandledAt == nil {
		t.Error("handled_at cleared, want kept")
	}
	if db.apps["app-1"].ResultsReadyNotificationSentAt != nil {
		t.Error("application results-ready flag not cleared")
	}
	if round.Status(time.Now()) != model.RoundStatusHandled {
		t.Errorf("status = %s, want HANDLED", round.Status(time.Now()))
	}

	// stepping back one status never deletes rows or touches the vendor
	if len(db.slots) != 1 || len(db.series) != 1 || len(db.reservations) != 2 {
		t.Errorf("rows deleted: %d slots, %d series, %d reservations",
			len(db.slots), len(db.series), len(db.reservations))
	}
	if len(fake.deleted) != 0 {
		t.Errorf("external revocations = %v, want none", fake.deleted)
	}
}

// A failed revocation must abort the reset before any local state changes,
// so a retry revokes the remaining codes and finishes the job.
func TestResetAllocation_RevocationFailureAborts(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	handled := time.Now().AddDate(0, 0, -1)
	db.rounds[roundID].HandledAt = &handled
	fake := newFakeAccessCodeClient()
	fake.failFrom = 0
	svc := newRoundService(db, fake)

	_, err := svc.ResetAllocation(context.Background(), superCtx(), roundID)
	if !errors.Is(err, ErrAccessCodeRevoke) {
		t.Fatalf("err = %v, want ErrAccessCodeRevoke", err)
	}

	if len(db.slots) != 1 {
		t.Error("slots deleted despite aborted reset")
	}
	if len(db.series) != 1 || len(db.reservations) != 2 {
		t.Error("seasonal series deleted despite aborted reset")
	}
	if !db.options["opt-1"].IsLocked {
		t.Error("option marker cleared despite aborted reset")
	}
	if db.rounds[roundID].HandledAt == nil {
		t.Error("handled_at cleared despite aborted reset")
	}
	if db.rounds[roundID].Version != 1 {
		t.Errorf("version = %d, want unchanged 1", db.rounds[roundID].Version)
	}
}

func TestResetAllocation_OpenRoundRejected(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	db.rounds[roundID].ApplicationPeriodEndsAt = time.Now().AddDate(0, 0, 7)
	svc := newRoundService(db, newFakeAccessCodeClient())

	if _, err := svc.ResetAllocation(context.Background(), superCtx(), roundID); !errors.Is(err, ErrRoundNotResettable) {
		t.Errorf("err = %v, want ErrRoundNotResettable", err)
	}
}

func TestResetAllocation_PermissionDenied(t *testing.T) {
	db := newMockDB()
	roundID := seedAllocatedRound(db)
	svc := newRoundService(db, newFakeAccessCodeClient())

	if _, err := svc.ResetAllocation(context.Background(), memberCtx("applicant-1"), roundID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestResetAllocation_UnknownRound(t *testing.T) {
	svc := newRoundService(newMockDB(), newFakeAccessCodeClient())

	if _, err := svc.ResetAllocation(context.Background(), superCtx(), "missing"); !errors.Is(err, ErrRoundNotFound) {
		t.Errorf("err = %v, want ErrRoundNotFound", err)
	}
}
