package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"varaamo/backend/config"
	"varaamo/backend/internal/api/handler"
	"varaamo/backend/internal/api/middleware"
	"varaamo/backend/pkg/jwt"
	"varaamo/backend/pkg/redis"
)

// Setup builds the gin engine with all routes wired.
// Authorization beyond authentication lives in the service layer: unit and
// group scoped roles are resolved from the database per request, so there is
// no role middleware here.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// authentication, no token required
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 10, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// public catalog: anyone can browse venues and rounds
		v1.GET("/units", h.Unit.ListUnits)
		v1.GET("/reservation-units", h.Unit.ListReservationUnits)
		v1.GET("/application-rounds", h.ApplicationRound.ListRounds)
		v1.GET("/application-rounds/:id", h.ApplicationRound.GetRound)

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// users and roles
			users := authorized.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.POST("/:id/general-roles", h.User.AssignGeneralRole)
				users.DELETE("/:id/general-roles/:role", h.User.RevokeGeneralRole)
				users.POST("/:id/unit-roles", h.User.AssignUnitRole)
			}
			authorized.DELETE("/unit-roles/:id", h.User.RevokeUnitRole)

			// unit topology administration
			authorized.POST("/units", h.Unit.CreateUnit)
			authorized.POST("/unit-groups", h.Unit.CreateUnitGroup)
			authorized.GET("/unit-groups", h.Unit.ListUnitGroups)

			spaces := authorized.Group("/spaces")
			{
				spaces.POST("", h.Unit.CreateSpace)
				spaces.PUT("/:id/parent", h.Unit.UpdateSpaceParent)
				spaces.DELETE("/:id", h.Unit.DeleteSpace)
			}

			resources := authorized.Group("/resources")
			{
				resources.POST("", h.Unit.CreateResource)
				resources.DELETE("/:id", h.Unit.DeleteResource)
			}

			authorized.POST("/reservation-units", h.Unit.CreateReservationUnit)
			authorized.DELETE("/reservation-units/:id", h.Unit.ArchiveReservationUnit)
			authorized.GET("/reservation-units/:id/affecting-reservations", h.Reservation.ListAffecting)

			// application rounds
			rounds := authorized.Group("/application-rounds")
			{
				rounds.POST("", h.ApplicationRound.CreateRound)
				rounds.POST("/:id/mark-handled", h.ApplicationRound.MarkHandled)
				rounds.POST("/:id/mark-results-sent", h.ApplicationRound.MarkResultsSent)
				rounds.POST("/:id/reset-allocation", h.ApplicationRound.ResetAllocation)
				rounds.POST("/:id/generate-series", h.Reservation.GenerateSeasonalSeries)
				rounds.GET("/:id/applications", h.Application.ListByRound)
			}

			// applications
			applications := authorized.Group("/applications")
			{
				applications.POST("", h.Application.CreateApplication)
				applications.GET("/me", h.Application.ListOwnApplications)
				applications.GET("/:id", h.Application.GetApplication)
				applications.POST("/:id/send", h.Application.SendApplication)
				applications.POST("/:id/cancel", h.Application.CancelApplication)
				applications.POST("/:id/sections", h.Application.AddSection)
			}

			sections := authorized.Group("/application-sections")
			{
				sections.PUT("/:id", h.Application.UpdateSection)
				sections.DELETE("/:id", h.Application.DeleteSection)
			}

			// allocation phase
			allocations := authorized.Group("/allocations")
			{
				allocations.POST("", h.Allocation.CreateSlot)
				allocations.DELETE("/:id", h.Allocation.DeleteSlot)
			}

			options := authorized.Group("/reservation-unit-options")
			{
				options.POST("/:id/lock", h.Allocation.LockOption)
				options.POST("/:id/unlock", h.Allocation.UnlockOption)
				options.POST("/:id/reject", h.Allocation.RejectOption)
				options.POST("/:id/restore", h.Allocation.RestoreOption)
			}

			// reservations
			reservations := authorized.Group("/reservations")
			{
				reservations.POST("", h.Reservation.CreateStaffReservation)
				reservations.GET("/:id", h.Reservation.GetReservation)
				reservations.PUT("/:id/state", h.Reservation.SetReservationState)
			}

			// exports
			export := authorized.Group("/export")
			{
				export.GET("/application-rounds/:id/allocations", h.Export.ExportAllocations)
				export.GET("/reservations/calendar", h.Export.ExportReservationsICS)
			}
		}
	}

	return r
}
