package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/internal/session"
	"github.com/addisrender/backend/internal/utils"
)

func init() {
	utils.SetJWTSecret("test-secret-for-services-testing")
}

func jwtCfg() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:            "test-secret-for-services-testing",
		ExpireHour:        24,
		RefreshExpireHour: 168,
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	user, err := svc.SignUp(&SignUpRequest{Email: "Client@Example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "client@example.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Role != "user" {
		t.Errorf("new accounts get role user, got %q", user.Role)
	}

	result, err := svc.SignIn(&SignInRequest{Email: "client@example.com", Password: "secret123"}, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("sign-in should issue both tokens")
	}
	if result.RedirectTo != "/" {
		t.Errorf("regular users land on /, got %q", result.RedirectTo)
	}

	claims, err := utils.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "dup@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, err := svc.SignUp(&SignUpRequest{Email: "DUP@example.com", Password: "other456"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "u@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, err := svc.SignIn(&SignInRequest{Email: "u@example.com", Password: "wrong"}, "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignIn_AdminRedirect(t *testing.T) {
	db := testDB(t)
	svc := NewAuthService(db, jwtCfg())

	if err := svc.CreateAdminIfNotExists(&config.AdminConfig{
		Email:    "admin@addisrender.com",
		Password: "admin-secret",
	}); err != nil {
		t.Fatalf("CreateAdminIfNotExists: %v", err)
	}

	result, err := svc.SignIn(&SignInRequest{Email: "admin@addisrender.com", Password: "admin-secret"}, "", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if result.RedirectTo != "/admin" {
		t.Errorf("admins land on /admin, got %q", result.RedirectTo)
	}
}

func TestCreateAdminIfNotExists_Idempotent(t *testing.T) {
	db := testDB(t)
	svc := NewAuthService(db, jwtCfg())

	cfg := &config.AdminConfig{Email: "admin@addisrender.com", Password: "pw123456"}
	if err := svc.CreateAdminIfNotExists(cfg); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := svc.CreateAdminIfNotExists(cfg); err != nil {
		t.Fatalf("second call: %v", err)
	}

	var count int64
	db.Model(&models.User{}).Where("role = ?", session.AdminRole).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one admin, got %d", count)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "r@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := svc.SignIn(&SignInRequest{Email: "r@example.com", Password: "secret123"}, "", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	refreshed, err := svc.Refresh(signIn.RefreshToken, "", "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == signIn.RefreshToken {
		t.Error("refresh must rotate the token")
	}

	// The old token is revoked by rotation
	if _, err := svc.Refresh(signIn.RefreshToken, "", ""); err == nil {
		t.Error("rotated token should be rejected")
	}

	// The new token still works
	if _, err := svc.Refresh(refreshed.RefreshToken, "", ""); err != nil {
		t.Errorf("new token should refresh: %v", err)
	}
}

func TestSignOut_RevokesToken(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "o@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := svc.SignIn(&SignInRequest{Email: "o@example.com", Password: "secret123"}, "", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := svc.SignOut(signIn.User.ID, signIn.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := svc.Refresh(signIn.RefreshToken, "", ""); err == nil {
		t.Error("revoked token should be rejected")
	}
}

func TestGatewayFor_CurrentSession(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "g@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := svc.SignIn(&SignInRequest{Email: "g@example.com", Password: "secret123"}, "", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	gw := svc.GatewayFor(signIn.AccessToken)
	sess, err := gw.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	if sess == nil || sess.Email != "g@example.com" {
		t.Fatalf("session = %+v", sess)
	}

	// A garbage token resolves to signed out, not an error
	anon, err := svc.GatewayFor("not.a.token").CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("CurrentSession with bad token: %v", err)
	}
	if anon != nil {
		t.Errorf("bad token should resolve anonymous, got %+v", anon)
	}
}

func TestGatewayFor_SessionChanges(t *testing.T) {
	svc := NewAuthService(testDB(t), jwtCfg())

	if _, err := svc.SignUp(&SignUpRequest{Email: "w@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	signIn, err := svc.SignIn(&SignInRequest{Email: "w@example.com", Password: "secret123"}, "", "")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	gw := svc.GatewayFor(signIn.AccessToken)

	got := make(chan session.Event, 4)
	unsubscribe := gw.SessionChanges(func(e session.Event) {
		got <- e
	})
	defer unsubscribe()

	if err := svc.SignOut(signIn.User.ID, signIn.RefreshToken); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	select {
	case ev := <-got:
		if ev.Session != nil {
			t.Errorf("sign-out event should carry a nil session, got %+v", ev.Session)
		}
		if ev.Seq == 0 {
			t.Error("event seq should be set")
		}
	case <-time.After(time.Second):
		t.Fatal("no session event received")
	}
}
