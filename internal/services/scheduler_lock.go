package services

import (
	"context"
	"errors"
	"time"

	"github.com/runclub/backend/internal/models"
	"gorm.io/gorm"
)

// LockService hands out named, expiring locks backed by scheduler_locks.
type LockService struct {
	db    *gorm.DB
	owner string
	now   func() time.Time
}

func NewLockService(db *gorm.DB, owner string) *LockService {
	return &LockService{db: db, owner: owner, now: time.Now}
}

// Acquire takes the lock if it is free or expired. It reports false when
// another owner holds it.
func (l *LockService) Acquire(ctx context.Context, name, key string, ttl time.Duration) (bool, error) {
	now := l.now().UTC()
	db := l.db.WithContext(ctx)

	takeover := db.Model(&models.SchedulerLock{}).
		Where("lock_name = ? AND lock_key = ? AND (expires_at < ? OR locked_by = ?)", name, key, now, l.owner).
		Updates(map[string]interface{}{
			"locked_by":  l.owner,
			"locked_at":  now,
			"expires_at": now.Add(ttl),
		})
	if takeover.Error != nil {
		return false, takeover.Error
	}
	if takeover.RowsAffected > 0 {
		return true, nil
	}

	err := db.Create(&models.SchedulerLock{
		LockName:  name,
		LockKey:   key,
		LockedBy:  l.owner,
		LockedAt:  now,
		ExpiresAt: now.Add(ttl),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release drops the lock if this owner still holds it.
func (l *LockService) Release(ctx context.Context, name, key string) error {
	return l.db.WithContext(ctx).
		Where("lock_name = ? AND lock_key = ? AND locked_by = ?", name, key, l.owner).
		Delete(&models.SchedulerLock{}).Error
}
