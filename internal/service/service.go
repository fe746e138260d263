package service

import (
	"go.uber.org/zap"

	"varaamo/backend/config"
	"varaamo/backend/internal/repository"
	"varaamo/backend/pkg/jwt"
)

// Service aggregate entry point for every business interface.
type Service struct {
	Auth             AuthService
	User             UserService
	Permission       PermissionService
	Unit             UnitService
	Application      ApplicationService
	ApplicationRound ApplicationRoundService
	Allocation       AllocationService
	Reservation      ReservationService
	Export           ExportService
}

// NewService creates the Service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) *Service {
	accessCode := NewPindoraClient(&cfg.Pindora, logger)

	return &Service{
		Auth:             NewAuthService(cfg, repo, jwtMgr, logger),
		User:             NewUserService(repo, logger),
		Permission:       NewPermissionService(repo, logger),
		Unit:             NewUnitService(repo, logger),
		Application:      NewApplicationService(repo, logger),
		ApplicationRound: NewApplicationRoundService(repo, accessCode, logger),
		Allocation:       NewAllocationService(repo, logger),
		Reservation:      NewReservationService(repo, logger),
		Export:           NewExportService(repo, logger),
	}
}
