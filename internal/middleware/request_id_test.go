package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/runclub/backend/pkg/logger"
)

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.RequestIDKey))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("generated id %q is not a uuid", id)
	}
	if w.Body.String() != id {
		t.Errorf("context id %q does not match header %q", w.Body.String(), id)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "client-abc")
	router.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "client-abc" {
		t.Errorf("caller id should be echoed, got %q", got)
	}
}
