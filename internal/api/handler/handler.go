package handler

import (
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/jwt"
	"varaamo/backend/pkg/redis"
)

// Handler aggregate of all HTTP handlers
type Handler struct {
	Auth             *AuthHandler
	User             *UserHandler
	Unit             *UnitHandler
	Application      *ApplicationHandler
	ApplicationRound *ApplicationRoundHandler
	Allocation       *AllocationHandler
	Reservation      *ReservationHandler
	Export           *ExportHandler
}

// NewHandler creates the Handler aggregate.
// jwtMgr and rdb are needed by logout to blacklist the presented tokens.
func NewHandler(svc *service.Service, jwtMgr *jwt.Manager, rdb *redis.Client) *Handler {
	return &Handler{
		Auth:             NewAuthHandler(svc.Auth, jwtMgr, rdb),
		User:             NewUserHandler(svc.User, svc.Permission),
		Unit:             NewUnitHandler(svc.Unit, svc.Permission),
		Application:      NewApplicationHandler(svc.Application, svc.Permission),
		ApplicationRound: NewApplicationRoundHandler(svc.ApplicationRound, svc.Permission),
		Allocation:       NewAllocationHandler(svc.Allocation, svc.Permission),
		Reservation:      NewReservationHandler(svc.Reservation, svc.Permission),
		Export:           NewExportHandler(svc.Export, svc.Permission),
	}
}
