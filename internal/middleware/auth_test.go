package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	tokens map[string]*services.Identity
	calls  int
}

func (r *stubResolver) Resolve(_ context.Context, token string) (*services.Identity, error) {
	r.calls++
	if id, ok := r.tokens[token]; ok {
		return id, nil
	}
	return nil, services.ErrNoSession
}

func newStubResolver() *stubResolver {
	return &stubResolver{tokens: map[string]*services.Identity{
		"good": {
			User:    &models.User{ID: 7, Email: "ann@example.com"},
			Session: &models.Session{ID: "sess-1", UserID: 7},
		},
	}}
}

func gateRouter(resolver SessionResolver) *gin.Engine {
	router := gin.New()
	router.Use(SessionGate(resolver, []string{"/dashboard", "/profile"}, "/auth/login"))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	}
	router.GET("/dashboard", handler)
	router.GET("/dashboard/stats", handler)
	router.GET("/dashboards", handler)
	router.GET("/runs-listing", handler)
	return router
}

func TestSessionGate_RedirectsAnonymousOnProtectedPaths(t *testing.T) {
	router := gateRouter(newStubResolver())

	for _, path := range []string{"/dashboard", "/dashboard/stats"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusFound, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/auth/login" {
			t.Errorf("%s: Location = %q, expected /auth/login", path, loc)
		}
	}
}

func TestSessionGate_PassesPublicPaths(t *testing.T) {
	router := gateRouter(newStubResolver())

	for _, path := range []string{"/runs-listing", "/dashboards"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusOK, w.Code)
		}
	}
}

func TestSessionGate_BearerAndCookie(t *testing.T) {
	resolver := newStubResolver()
	router := gateRouter(resolver)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("bearer: expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "good"})
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("cookie: expected status %d, got %d", http.StatusOK, w.Code)
	}

	if resolver.calls != 2 {
		t.Errorf("resolver called %d times, expected once per request", resolver.calls)
	}
}

func TestSessionGate_InvalidTokenIsAnonymous(t *testing.T) {
	router := gateRouter(newStubResolver())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/dashboard", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Errorf("expected status %d, got %d", http.StatusFound, w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/runs-listing", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("public path: expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestSessionGate_CustomCookieName(t *testing.T) {
	router := gin.New()
	router.Use(SessionGate(newStubResolver(), nil, "/auth/login", WithCookieName("rc_session")))
	router.GET("/me", func(c *gin.Context) {
		if GetSession(c) == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.String(http.StatusOK, GetSession(c).ID)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.AddCookie(&http.Cookie{Name: "rc_session", Value: "good"})
	router.ServeHTTP(w, req)
	if w.Body.String() != "sess-1" {
		t.Errorf("expected session from custom cookie, got %d %q", w.Code, w.Body.String())
	}
}

func TestRequireSession(t *testing.T) {
	router := gin.New()
	router.Use(SessionGate(newStubResolver(), nil, "/auth/login"))
	router.GET("/api/user/runs", RequireSession(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/runs/join", RequireSessionPage("/auth/login"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/user/runs", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("api: expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/runs/join", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/auth/login" {
		t.Errorf("form: expected redirect to login, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/user/runs", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("signed in: expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if GetUserID(c) != 0 || GetUser(c) != nil || GetSession(c) != nil {
		t.Error("getters should return zero values without a session")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		expect string
	}{
		{"bearer", "Bearer abc", "", "abc"},
		{"lowercase scheme", "bearer abc", "", "abc"},
		{"basic falls back to cookie", "Basic xyz", "from-cookie", "from-cookie"},
		{"cookie only", "", "from-cookie", "from-cookie"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request, _ = http.NewRequest("GET", "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tt.cookie})
			}
			if got := TokenFromRequest(c, DefaultCookieName); got != tt.expect {
				t.Errorf("TokenFromRequest() = %q, expected %q", got, tt.expect)
			}
		})
	}
}

func TestIsProtectedPath(t *testing.T) {
	prefixes := []string{"/dashboard", "/profile/"}
	cases := map[string]bool{
		"/dashboard":       true,
		"/dashboard/":      true,
		"/dashboard/x":     true,
		"/profile":         true,
		"/profiles":        false,
		"/":                false,
		"/runs-listing":    false,
		"/api/auth/signin": false,
	}
	for path, expect := range cases {
		if got := IsProtectedPath(path, prefixes); got != expect {
			t.Errorf("IsProtectedPath(%q) = %v, expected %v", path, got, expect)
		}
	}
}

