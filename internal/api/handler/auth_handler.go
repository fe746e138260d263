package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/service"
	"varaamo/backend/pkg/jwt"
	"varaamo/backend/pkg/redis"
	"varaamo/backend/pkg/response"
)

// AuthHandler authentication HTTP handlers
type AuthHandler struct {
	authSvc service.AuthService
	jwtMgr  *jwt.Manager
	rdb     *redis.Client
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService, jwtMgr *jwt.Manager, rdb *redis.Client) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, jwtMgr: jwtMgr, rdb: rdb}
}

// Register self-registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Conflict(c, 11003, "email is already registered")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Login user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11001, "wrong email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(c, 11002, "account is disabled")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// RefreshToken exchanges a refresh token for a fresh pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenInvalid), errors.Is(err, jwt.ErrTokenExpired):
			response.Unauthorized(c, 11004, "refresh token is invalid or expired")
		case errors.Is(err, service.ErrAccountDisabled):
			response.Forbidden(c, 11002, "account is disabled")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Logout blacklists the presented tokens for their remaining lifetime
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	// body is optional: the refresh token can be handed in for revocation
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if h.rdb == nil {
		response.OK(c, nil)
		return
	}

	ctx := c.Request.Context()

	if v, exists := c.Get("token_claims"); exists {
		if claims, ok := v.(*jwt.Claims); ok && claims.ExpiresAt != nil {
			_ = h.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
		}
	}

	if req.RefreshToken != "" {
		if claims, err := h.jwtMgr.ParseToken(req.RefreshToken); err == nil && claims.ExpiresAt != nil {
			_ = h.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
		}
	}

	response.OK(c, nil)
}

// ChangePassword change own password
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11001, "old password is wrong")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 11005, "user not found")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}
