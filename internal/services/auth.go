package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/utils"
	"gorm.io/gorm"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user is disabled")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrLDAPDisabled       = errors.New("LDAP sign-in is not enabled")
)

type AuthService struct {
	db          *gorm.DB
	ldapService *LDAPService
	jwtConfig   *config.JWTConfig
	now         func() time.Time
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig, ldapCfg *config.LDAPConfig) *AuthService {
	return &AuthService{
		db:          db,
		ldapService: NewLDAPService(ldapCfg),
		jwtConfig:   jwtCfg,
		now:         time.Now,
	}
}

type SignUpRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type SignInRequest struct {
	// Email for local accounts, directory username for LDAP.
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	AuthType string `json:"authType" form:"authType"` // local, ldap
}

type SignInResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      *models.User    `json:"user"`
	Session   *models.Session `json:"session"`
}

// SignUp creates a local account.
func (s *AuthService) SignUp(ctx context.Context, req *SignUpRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, &ValidationError{Errors: []FieldError{{Field: "email", Message: "Email is required"}}}
	}
	if len(req.Password) < MinPasswordLength {
		return nil, &ValidationError{Errors: []FieldError{{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength),
		}}}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hashed,
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// SignIn authenticates the user and opens a session.
func (s *AuthService) SignIn(ctx context.Context, req *SignInRequest, clientIP, userAgent string) (*SignInResult, error) {
	var user *models.User
	var err error

	authType := req.AuthType
	if authType == "" {
		authType = models.AuthTypeLocal
	}

	switch authType {
	case models.AuthTypeLocal:
		user, err = s.localAuth(ctx, req.Email, req.Password)
	case models.AuthTypeLDAP:
		user, err = s.ldapAuth(ctx, req.Email, req.Password)
	default:
		return nil, errors.New("invalid auth type")
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Duration(s.expireHours()) * time.Hour),
		IP:        clientIP,
		UserAgent: truncate(userAgent, 255),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.Model(user).Update("last_login", now).Error
	})
	if err != nil {
		return nil, err
	}
	user.LastLogin = &now

	token, err := utils.GenerateToken(session.ID, user.ID, user.Email, s.expireHours())
	if err != nil {
		return nil, err
	}

	return &SignInResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      user,
		Session:   session,
	}, nil
}

// SignOut revokes the session. Unknown or already revoked sessions are ignored.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", s.now().UTC()).Error
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) IsLDAPEnabled() bool {
	return s.ldapService.IsEnabled()
}

func (s *AuthService) expireHours() int {
	if s.jwtConfig == nil || s.jwtConfig.ExpireHour <= 0 {
		return 24 * 7
	}
	return s.jwtConfig.ExpireHour
}

func (s *AuthService) localAuth(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? AND auth_type = ?", normalizeEmail(email), models.AuthTypeLocal).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if !utils.CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *AuthService) ldapAuth(ctx context.Context, username, password string) (*models.User, error) {
	if !s.ldapService.IsEnabled() {
		return nil, ErrLDAPDisabled
	}

	ldapUser, err := s.ldapService.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(ldapUser.Email)
	if email == "" {
		email = normalizeEmail(ldapUser.Username + "@ldap.local")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err = db.Where("email = ?", email).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First sign-in provisions the account.
		user = models.User{
			Name:     ldapUser.Nickname,
			Email:    email,
			AuthType: models.AuthTypeLDAP,
			IsActive: true,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if user.AuthType != models.AuthTypeLDAP {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	if ldapUser.Nickname != "" && ldapUser.Nickname != user.Name {
		user.Name = ldapUser.Nickname
		if err := db.Model(&user).Update("name", user.Name).Error; err != nil {
			return nil, err
		}
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
