package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/models"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name),
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

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.App.Timezone = "UTC"
	cfg.JWT.Secret = "test-secret"
	return cfg
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Name: strings.Split(email, "@")[0], Email: email, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// asUser stands in for the session gate.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.ContextUserID, user.ID)
			c.Set(middleware.ContextUser, user)
		}
		c.Next()
	}
}

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
	if err := db.Create(&models.RunParticipant{RunID: id, UserID: organizer}).Error; err != nil {
		t.Fatalf("add organizer: %v", err)
	}
	return run
}

func postForm(router http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return body
}

func futureDate() string {
	return time.Now().UTC().AddDate(1, 0, 0).Format(models.RunDateLayout)
}
