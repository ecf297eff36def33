package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/models"
	"gorm.io/gorm"
)

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: strings.Split(email, "@")[0], Email: email, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestRunService(db *gorm.DB) *RunService {
	s := NewRunService(db, time.UTC)
	s.now = func() time.Time { return testNow }
	return s
}

func validFields() *RunFields {
	return &RunFields{
		Title:           "Sunday Long Run",
		Description:     "Easy pace",
		Location:        "Riverside Park",
		Date:            "2030-06-02",
		Time:            "07:30",
		Distance:        "15km",
		Pace:            "5:30/km",
		MaxParticipants: "5",
	}
}

// insertRun stores a run directly, bypassing validation.
func insertRun(t *testing.T, db *gorm.DB, id string, organizer uint, startsAt time.Time, max int) *models.Run {
	t.Helper()
	startsAt = startsAt.UTC()
	run := &models.Run{
		ID:              id,
		Title:           "Run " + id,
		Location:        "Track",
		Date:            startsAt.Format(models.RunDateLayout),
		Time:            startsAt.Format(models.RunTimeLayout),
		StartsAt:        startsAt,
		MaxParticipants: max,
		OrganizerID:     organizer,
	}
	if err := db.Create(run).Error; err != nil {
		t.Fatalf("insert run: %v", err)
	}
	return run
}

func addParticipant(t *testing.T, db *gorm.DB, runID string, userID uint) {
	t.Helper()
	if err := db.Create(&models.RunParticipant{RunID: runID, UserID: userID}).Error; err != nil {
		t.Fatalf("add participant: %v", err)
	}
}

func participantCount(t *testing.T, db *gorm.DB, runID string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.RunParticipant{}).Where("run_id = ?", runID).Count(&n).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	return n
}
