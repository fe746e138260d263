package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"varaamo/backend/config"
	"varaamo/backend/internal/dto"
	"varaamo/backend/internal/model"
	"varaamo/backend/pkg/jwt"
)

func newAuthService(db *mockDB) AuthService {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTL:          15 * time.Minute,
			RefreshTokenTTLDefault:  24 * time.Hour,
			RefreshTokenTTLRemember: 30 * 24 * time.Hour,
		},
	}
	return NewAuthService(cfg, newTestRepo(db), jwt.NewManager(&cfg.Auth), zap.NewNop())
}

func seedCredentials(db *mockDB, email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-1",
		FirstName:    "Maija",
		LastName:     "Meikäläinen",
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	db.users[user.UserID] = user
	return user
}

func TestRegister(t *testing.T) {
	db := newMockDB()
	svc := newAuthService(db)
	ctx := context.Background()

	req := &dto.RegisterRequest{
		FirstName: "Maija",
		LastName:  "Meikäläinen",
		Email:     "maija@example.com",
		Password:  "hunter2hunter2",
	}

	resp, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Email != req.Email {
		t.Errorf("email = %s, want %s", resp.Email, req.Email)
	}
	if !resp.IsActive {
		t.Error("new account not active")
	}
	if db.users[resp.ID].PasswordHash == req.Password {
		t.Error("password stored in the clear")
	}

	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email: err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	db := newMockDB()
	seedCredentials(db, "maija@example.com", "hunter2hunter2")
	svc := newAuthService(db)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("token pair incomplete")
	}
	if resp.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("expires_in = %d", resp.ExpiresIn)
	}
	if resp.User.ID != "user-1" {
		t.Errorf("user id = %s, want user-1", resp.User.ID)
	}
}

func TestLogin_Failures(t *testing.T) {
	db := newMockDB()
	user := seedCredentials(db, "maija@example.com", "hunter2hunter2")
	svc := newAuthService(db)
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	// unknown email reads the same as a wrong password
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}

	user.IsActive = false
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("disabled account: err = %v, want ErrAccountDisabled", err)
	}
}

func TestRefreshToken(t *testing.T) {
	db := newMockDB()
	user := seedCredentials(db, "maija@example.com", "hunter2hunter2")
	svc := newAuthService(db)
	ctx := context.Background()

	login, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("no access token after refresh")
	}

	// an access token is not accepted as a refresh token
	if _, err := svc.RefreshToken(ctx, login.AccessToken); !errors.Is(err, jwt.ErrTokenInvalid) {
		t.Errorf("access token: err = %v, want ErrTokenInvalid", err)
	}

	// deactivation kills the refresh flow
	user.IsActive = false
	if _, err := svc.RefreshToken(ctx, login.RefreshToken); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("disabled account: err = %v, want ErrAccountDisabled", err)
	}
}

func TestChangePassword(t *testing.T) {
	db := newMockDB()
	seedCredentials(db, "maija@example.com", "hunter2hunter2")
	svc := newAuthService(db)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, "user-1", &dto.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "correcthorsebattery",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong old password: err = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(ctx, "user-1", &dto.ChangePasswordRequest{
		OldPassword: "hunter2hunter2",
		NewPassword: "correcthorsebattery",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "correcthorsebattery"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "maija@example.com", Password: "hunter2hunter2"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("login with old password: err = %v, want ErrInvalidCredentials", err)
	}
}
