package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/logger"
	"github.com/runclub/backend/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	authCfg     config.AuthConfig
	ldapEnabled bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	authService := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)
	return &AuthHandler{
		authService: authService,
		authCfg:     cfg.Auth,
		ldapEnabled: authService.IsLDAPEnabled(),
	}
}

// SignUp creates a local account
// POST /api/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req services.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "a valid email and a password are required")
		return
	}

	user, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(c, verr.Error())
		case errors.Is(err, services.ErrEmailTaken):
			response.Conflict(c, "An account with this email already exists")
		default:
			logger.FromContext(c).Error().Err(err).Msg("sign-up failed")
			response.ServerError(c, services.GenericRetryMessage)
		}
		return
	}

	response.Created(c, user)
}

// SignIn opens a session and sets the session cookie
// POST /api/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req services.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "email and password are required")
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			response.Unauthorized(c, "Invalid email or password")
		case errors.Is(err, services.ErrUserDisabled):
			response.Unauthorized(c, "This account is disabled")
		case errors.Is(err, services.ErrLDAPDisabled):
			response.BadRequest(c, "LDAP sign-in is not enabled")
		default:
			logger.FromContext(c).Error().Err(err).Str("auth_type", req.AuthType).Msg("sign-in failed")
			response.ServerError(c, services.GenericRetryMessage)
		}
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.Success(c, result)
}

// SignOut revokes the current session and clears the cookie
// POST /api/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	if session := middleware.GetSession(c); session != nil {
		if err := h.authService.SignOut(c.Request.Context(), session.ID); err != nil {
			logger.FromContext(c).Error().Err(err).Msg("sign-out failed")
			response.ServerError(c, services.GenericRetryMessage)
			return
		}
	}
	h.clearSessionCookie(c)
	response.Success(c, gin.H{"signedOut": true})
}

// GetSession returns the current user and session, both null when anonymous
// GET /api/auth/session
func (h *AuthHandler) GetSession(c *gin.Context) {
	response.Success(c, gin.H{
		"user":    middleware.GetUser(c),
		"session": middleware.GetSession(c),
	})
}

// GetAuthConfig returns authentication configuration
// GET /api/auth/config
func (h *AuthHandler) GetAuthConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"ldapEnabled": h.ldapEnabled,
		"loginPath":   h.authCfg.LoginPath,
		"cookieName":  h.cookieName(),
	})
}

func (h *AuthHandler) cookieName() string {
	if h.authCfg.CookieName == "" {
		return middleware.DefaultCookieName
	}
	return h.authCfg.CookieName
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), token, maxAge, "/", "", h.authCfg.CookieSecure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), "", -1, "/", "", h.authCfg.CookieSecure, true)
}
