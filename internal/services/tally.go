package services

import (
	"context"
	"time"

	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/pkg/logger"
	"gorm.io/gorm"
)

// TallyService credits finished runs to their participants' run counts.
type TallyService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTallyService(db *gorm.DB) *TallyService {
	return &TallyService{db: db, now: time.Now}
}

// DueRuns lists runs that have started and have not been tallied yet,
// oldest first.
func (s *TallyService) DueRuns(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Run{}).
		Where("starts_at < ? AND tallied_at IS NULL", s.now().UTC()).
		Order("starts_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// EnqueueDue queues a tally task for every due run and returns how many were
// queued.
func (s *TallyService) EnqueueDue(ctx context.Context, queue TaskQueue, limit int) (int, error) {
	ids, err := s.DueRuns(ctx, limit)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, id := range ids {
		if err := queue.Enqueue(ctx, &TallyTask{RunID: id}); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// TallyRun marks the run tallied and increments the run count of each
// participant, in one transaction. A run that is already tallied, has not
// started, or does not exist is left alone and reports zero.
func (s *TallyService) TallyRun(ctx context.Context, runID string) (int64, error) {
	now := s.now().UTC()
	var credited int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.Run{}).
			Where("id = ? AND tallied_at IS NULL AND starts_at < ?", runID, now).
			Update("tallied_at", now)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return nil
		}

		participants := tx.Model(&models.RunParticipant{}).Select("user_id").Where("run_id = ?", runID)
		res := tx.Model(&models.User{}).
			Where("id IN (?)", participants).
			UpdateColumn("run_count", gorm.Expr("run_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		credited = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credited, nil
}

// Process is the TallyProcessor for both queue kinds.
func (s *TallyService) Process(ctx context.Context, task *TallyTask) error {
	credited, err := s.TallyRun(ctx, task.RunID)
	if err != nil {
		logger.Error().Err(err).Str("run_id", task.RunID).Msg("[Tally] failed")
		return err
	}
	if credited > 0 {
		logger.Info().Str("run_id", task.RunID).Int64("credited", credited).Msg("[Tally] run credited")
	}
	return nil
}
