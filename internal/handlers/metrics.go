package handlers

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/services"
	"gorm.io/gorm"
)

var startTime = time.Now()

type MetricsHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
}

func NewMetricsHandler(db *gorm.DB, queue services.TaskQueue) *MetricsHandler {
	return &MetricsHandler{db: db, queue: queue}
}

// Metrics returns Prometheus-compatible text format metrics.
func (h *MetricsHandler) Metrics(c *gin.Context) {
	var b strings.Builder

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeGauge(&b, "runclub_uptime_seconds", "Time since server start in seconds", time.Since(startTime).Seconds())
	writeGauge(&b, "runclub_goroutines", "Number of active goroutines", float64(runtime.NumGoroutine()))
	writeGauge(&b, "runclub_memory_alloc_bytes", "Current heap allocation in bytes", float64(m.Alloc))
	writeGauge(&b, "runclub_gc_runs_total", "Total number of GC runs", float64(m.NumGC))

	queueAsync := 0.0
	if h.queue != nil && h.queue.IsAsync() {
		queueAsync = 1.0
	}
	writeGauge(&b, "runclub_queue_async_enabled", "Whether async queue (Redis) is enabled (1=yes, 0=no)", queueAsync)

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err == nil {
			stats := sqlDB.Stats()
			writeGauge(&b, "runclub_db_open_connections", "Number of open DB connections", float64(stats.OpenConnections))
			writeGauge(&b, "runclub_db_in_use_connections", "Number of in-use DB connections", float64(stats.InUse))
		}

		db := h.db.WithContext(c.Request.Context())
		now := time.Now().UTC()

		var runs, upcoming, untallied, participants, users int64
		db.Model(&models.Run{}).Count(&runs)
		db.Model(&models.Run{}).Where("starts_at > ?", now).Count(&upcoming)
		db.Model(&models.Run{}).Where("starts_at < ? AND tallied_at IS NULL", now).Count(&untallied)
		db.Model(&models.RunParticipant{}).Count(&participants)
		db.Model(&models.User{}).Where("is_active = ?", true).Count(&users)

		writeGauge(&b, "runclub_runs_total", "Total number of runs", float64(runs))
		writeGauge(&b, "runclub_runs_upcoming", "Runs that have not started yet", float64(upcoming))
		writeGauge(&b, "runclub_runs_untallied", "Started runs waiting for the tally job", float64(untallied))
		writeGauge(&b, "runclub_participations_total", "Total run participations", float64(participants))
		writeGauge(&b, "runclub_users_active", "Number of active users", float64(users))
	}

	c.Data(200, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %g\n\n", name, value)
}
