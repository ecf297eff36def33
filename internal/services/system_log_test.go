package services

import (
	"context"
	"testing"

	"github.com/runclub/backend/internal/models"
)

func TestLogInfo_WritesSystemLog(t *testing.T) {
	db := newTestDB(t)
	InitSystemLogger(db)
	defer InitSystemLogger(nil)

	user := createUser(t, db, "ann@example.com")
	LogInfo("run", "join", "joined run", &user.ID, "10.0.0.1", "agent", map[string]string{"runId": "r1"})
	LogError("run", "join", "failed", nil, "", "", nil)

	var entries []models.SystemLog
	db.Order("id ASC").Find(&entries)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, expected 2", len(entries))
	}
	if entries[0].Level != "info" || entries[0].Extra != `{"runId":"r1"}` {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Level != "error" || entries[1].UserID != nil {
		t.Errorf("second entry = %+v", entries[1])
	}

	recent, err := NewSystemLogService(db).RecentForUser(context.Background(), user.ID, 10)
	if err != nil {
		t.Fatalf("RecentForUser() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Action != "join" {
		t.Errorf("recent = %+v", recent)
	}
}

func TestLogInfo_NoStoreIsNoop(t *testing.T) {
	InitSystemLogger(nil)
	LogInfo("run", "join", "nothing happens", nil, "", "", nil)
}
