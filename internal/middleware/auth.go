package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/response"
)

const (
	ContextUserID  = "user_id"
	ContextUser    = "user"
	ContextSession = "session"

	DefaultCookieName = "session_token"
)

// SessionResolver turns a session token into the caller's identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*services.Identity, error)
}

type gateOptions struct {
	cookieName string
}

type GateOption func(*gateOptions)

// WithCookieName sets the cookie the session token is read from.
func WithCookieName(name string) GateOption {
	return func(o *gateOptions) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// SessionGate resolves the session once per request and stores the user and
// session in the context. Anonymous requests to a protected path are
// redirected to loginPath; every other request passes through.
func SessionGate(resolver SessionResolver, protectedPaths []string, loginPath string, opts ...GateOption) gin.HandlerFunc {
	o := gateOptions{cookieName: DefaultCookieName}
	for _, opt := range opts {
		opt(&o)
	}

	return func(c *gin.Context) {
		if token := TokenFromRequest(c, o.cookieName); token != "" {
			if id, err := resolver.Resolve(c.Request.Context(), token); err == nil {
				c.Set(ContextUserID, id.User.ID)
				c.Set(ContextUser, id.User)
				c.Set(ContextSession, id.Session)
			}
		}

		if GetUser(c) == nil && IsProtectedPath(c.Request.URL.Path, protectedPaths) {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

// IsProtectedPath reports whether path is one of prefixes or below one.
func IsProtectedPath(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// TokenFromRequest reads a bearer token, falling back to the session cookie.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireSession rejects anonymous API requests with 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSessionPage redirects anonymous page and form requests to loginPath.
func RequireSessionPage(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		if v, ok := id.(uint); ok {
			return v
		}
	}
	return 0
}

// GetUser returns the signed-in user, or nil.
func GetUser(c *gin.Context) *models.User {
	if v, exists := c.Get(ContextUser); exists {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// GetSession returns the current session, or nil.
func GetSession(c *gin.Context) *models.Session {
	if v, exists := c.Get(ContextSession); exists {
		if s, ok := v.(*models.Session); ok {
			return s
		}
	}
	return nil
}
