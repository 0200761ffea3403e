package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/internal/session"
	"github.com/addisrender/backend/internal/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService is the identity gateway: it verifies credentials, issues and
// rotates sessions, and pushes session-change events to the hub.
type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
	hub       *EventHub
	seq       atomic.Uint64
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{
		db:        db,
		jwtConfig: jwtCfg,
		hub:       GetEventHub(),
	}
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignInResult carries the issued session plus the post-login navigation
// target: admins land in the back office, everyone else on home.
type SignInResult struct {
	AccessToken     string       `json:"access_token"`
	AccessExpireAt  time.Time    `json:"access_expire_at"`
	RefreshToken    string       `json:"refresh_token"`
	RefreshExpireAt time.Time    `json:"refresh_expire_at"`
	User            *models.User `json:"user"`
	RedirectTo      string       `json:"redirect_to"`
}

type RefreshResult struct {
	AccessToken     string    `json:"access_token"`
	AccessExpireAt  time.Time `json:"access_expire_at"`
	RefreshToken    string    `json:"refresh_token"`
	RefreshExpireAt time.Time `json:"refresh_expire_at"`
}

// SessionChange is the hub payload for a session event.
type SessionChange struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	SignedIn bool   `json:"signed_in"`
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrUserDisabled       = errors.New("account is disabled")
)

// SignUp registers a new account. The first sign-in still goes through
// credential verification; no session is issued here.
func (s *AuthService) SignUp(req *SignUpRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:    email,
		Password: hashed,
		Username: strings.SplitN(email, "@", 2)[0],
		Role:     "user",
		IsActive: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// SignIn verifies credentials and issues an access token plus a rotated
// refresh token. A session-change event is pushed on success.
func (s *AuthService) SignIn(req *SignInRequest, clientIP, userAgent string) (*SignInResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	accessHours := s.jwtConfig.ExpireHour
	refreshHours := s.jwtConfig.RefreshExpireHour

	token, err := utils.GenerateToken(user.ID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshExpireAt := time.Now().Add(time.Duration(refreshHours) * time.Hour)
	refreshRecord := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   refreshHash,
		ExpiresAt:   refreshExpireAt,
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}
	if err := s.db.Create(&refreshRecord).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	s.db.Save(&user)

	redirectTo := "/"
	if user.Role == session.AdminRole {
		redirectTo = "/admin"
	}

	s.publishSessionChange(&user, true)

	return &SignInResult{
		AccessToken:     token,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    refreshToken,
		RefreshExpireAt: refreshExpireAt,
		User:            &user,
		RedirectTo:      redirectTo,
	}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(refreshToken, clientIP, userAgent string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token required")
	}

	hash := hashRefreshToken(refreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ?", hash).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid refresh token")
		}
		return nil, err
	}

	if stored.RevokedAt != nil {
		return nil, errors.New("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, errors.New("refresh token expired")
	}

	var user models.User
	if err := s.db.First(&user, stored.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessHours := s.jwtConfig.ExpireHour
	refreshHours := s.jwtConfig.RefreshExpireHour

	newAccessToken, err := utils.GenerateToken(user.ID, user.Email, user.Role, accessHours)
	if err != nil {
		return nil, err
	}

	newRefreshToken, newRefreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	newRefresh := models.RefreshToken{
		UserID:      user.ID,
		TokenHash:   newRefreshHash,
		ExpiresAt:   now.Add(time.Duration(refreshHours) * time.Hour),
		CreatedByIP: clientIP,
		UserAgent:   userAgent,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newRefresh).Error; err != nil {
			return err
		}
		return tx.Model(&stored).Updates(map[string]interface{}{
			"revoked_at":           now,
			"replaced_by_token_id": newRefresh.ID,
		}).Error
	}); err != nil {
		return nil, err
	}

	s.publishSessionChange(&user, true)

	return &RefreshResult{
		AccessToken:     newAccessToken,
		AccessExpireAt:  time.Now().Add(time.Duration(accessHours) * time.Hour),
		RefreshToken:    newRefreshToken,
		RefreshExpireAt: newRefresh.ExpiresAt,
	}, nil
}

// SignOut revokes the refresh token and pushes a signed-out event. The
// event is sent even when revocation finds nothing to revoke, so stores
// converge on signed-out regardless.
func (s *AuthService) SignOut(userID uint, refreshToken string) error {
	var revokeErr error
	if refreshToken != "" {
		hash := hashRefreshToken(refreshToken)
		now := time.Now()
		revokeErr = s.db.Model(&models.RefreshToken{}).
			Where("token_hash = ? AND revoked_at IS NULL", hash).
			Update("revoked_at", now).Error
	}

	s.hub.Publish(Event{
		Type:    EventSession,
		Seq:     s.seq.Add(1),
		UserID:  userID,
		Payload: SessionChange{UserID: userID, SignedIn: false},
	})

	return revokeErr
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileUpdate holds the fields a user may change on their own account.
type ProfileUpdate struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile applies a partial profile update and returns the user.
func (s *AuthService) UpdateProfile(userID uint, update *ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if update.Username != nil {
		changes["username"] = strings.TrimSpace(*update.Username)
	}
	if update.AvatarURL != nil {
		changes["avatar_url"] = strings.TrimSpace(*update.AvatarURL)
	}
	if len(changes) == 0 {
		return &user, nil
	}

	if err := s.db.Model(&user).Updates(changes).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the initial back-office account from config.
// Afterwards the role column alone decides admin access.
func (s *AuthService) CreateAdminIfNotExists(cfg *config.AdminConfig) error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", session.AdminRole).Count(&count)
	if count > 0 {
		return nil
	}

	password := cfg.Password
	if password == "" {
		// Random throwaway; operator resets it out of band
		password = uuid.New().String()
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    normalizeEmail(cfg.Email),
		Password: hashed,
		Username: "admin",
		Role:     session.AdminRole,
		IsActive: true,
	}
	return s.db.Create(&admin).Error
}

func (s *AuthService) publishSessionChange(user *models.User, signedIn bool) {
	s.hub.Publish(Event{
		Type:   EventSession,
		Seq:    s.seq.Add(1),
		UserID: user.ID,
		Payload: SessionChange{
			UserID:   user.ID,
			Email:    user.Email,
			Role:     user.Role,
			SignedIn: signedIn,
		},
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateRefreshToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, 32)
	if _, err = rand.Read(randomBytes); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(randomBytes)
	tokenHash = hashRefreshToken(token)
	return token, tokenHash, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// --- session.Gateway adapter ---

// tokenGateway adapts the auth service to the session.Gateway contract for
// one client connection identified by its access token.
type tokenGateway struct {
	svc   *AuthService
	token string
}

// GatewayFor returns a session gateway scoped to the given access token.
func (s *AuthService) GatewayFor(token string) session.Gateway {
	return &tokenGateway{svc: s, token: token}
}

func (g *tokenGateway) CurrentSession(ctx context.Context) (*session.Session, error) {
	if g.token == "" {
		return nil, nil
	}

	claims, err := utils.ParseToken(g.token)
	if err != nil {
		// Expired token means signed out, not failure
		return nil, nil
	}

	user, err := g.svc.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	return &session.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		Token:     g.token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (g *tokenGateway) SessionChanges(handler func(session.Event)) func() {
	claims, err := utils.ParseToken(g.token)
	if err != nil {
		return func() {}
	}

	clientID := "session-" + uuid.New().String()
	events := g.svc.hub.Subscribe(clientID, claims.UserID, EventSession)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				change, ok := ev.Payload.(SessionChange)
				if !ok {
					continue
				}
				var sess *session.Session
				if change.SignedIn {
					sess = &session.Session{
						UserID: change.UserID,
						Email:  change.Email,
						Role:   change.Role,
					}
				}
				handler(session.Event{Seq: ev.Seq, Session: sess})
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			g.svc.hub.Unsubscribe(clientID)
		})
	}
}
