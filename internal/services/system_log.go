package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	globalDBMu sync.RWMutex
	globalDB   *gorm.DB
)

// InitSystemLogger sets the store audit entries are written to. Until it is
// called, LogInfo and friends only reach the process log.
func InitSystemLogger(db *gorm.DB) {
	globalDBMu.Lock()
	defer globalDBMu.Unlock()
	globalDB = db
}

func LogInfo(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("info", module, action, message, userID, ip, userAgent, extra)
}

func LogWarning(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("warning", module, action, message, userID, ip, userAgent, extra)
}

func LogError(module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	writeLog("error", module, action, message, userID, ip, userAgent, extra)
}

func writeLog(level, module, action, message string, userID *uint, ip, userAgent string, extra interface{}) {
	globalDBMu.RLock()
	db := globalDB
	globalDBMu.RUnlock()
	if db == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.SystemLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		UserID:    userID,
		IP:        ip,
		UserAgent: truncate(userAgent, 500),
		Extra:     extraStr,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		logger.Warn().Err(err).Str("module", module).Str("action", action).Msg("failed to write system log")
	}
}

type SystemLogService struct {
	db *gorm.DB
}

func NewSystemLogService(db *gorm.DB) *SystemLogService {
	return &SystemLogService{db: db}
}

// RecentForUser returns a user's newest audit entries, newest first.
func (s *SystemLogService) RecentForUser(ctx context.Context, userID uint, limit int) ([]models.SystemLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []models.SystemLog
	query := s.db.WithContext(ctx).Model(&models.SystemLog{}).Where("user_id = ?", userID)
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CleanupOldLogs deletes logs older than the specified number of days
// Returns the number of deleted records
func (s *SystemLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoffTime := time.Now().UTC().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoffTime).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}
