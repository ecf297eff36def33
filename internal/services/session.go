package services

import (
	"context"
	"errors"
	"time"

	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/utils"
	"gorm.io/gorm"
)

// ErrNoSession means the request carries no usable session.
var ErrNoSession = errors.New("no active session")

// Identity is the resolved caller of a request.
type Identity struct {
	User    *models.User
	Session *models.Session
}

// SessionService turns a session token into an Identity.
type SessionService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db, now: time.Now}
}

// Resolve validates token and loads its session and user. Every failure,
// including a store error, is reported as ErrNoSession wrapped with detail.
func (s *SessionService) Resolve(ctx context.Context, token string) (*Identity, error) {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, errors.Join(ErrNoSession, err)
	}

	var session models.Session
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", claims.SessionID).
		First(&session).Error; err != nil {
		return nil, errors.Join(ErrNoSession, err)
	}

	if session.UserID != claims.UserID {
		return nil, errors.Join(ErrNoSession, errors.New("session does not match token"))
	}
	if !session.Active(s.now()) {
		return nil, errors.Join(ErrNoSession, errors.New("session expired or revoked"))
	}
	if session.User == nil || !session.User.IsActive {
		return nil, errors.Join(ErrNoSession, ErrUserDisabled)
	}

	user := session.User
	session.User = nil
	return &Identity{User: user, Session: &session}, nil
}

// PurgeExpired deletes sessions that expired or were revoked more than
// grace ago. Returns the number of deleted rows.
func (s *SessionService) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-grace)
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
