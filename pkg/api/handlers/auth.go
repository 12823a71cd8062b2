package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/bharathj0410/leadrabbit/config"
	apierrors "github.com/bharathj0410/leadrabbit/pkg/api/errors"
	apimw "github.com/bharathj0410/leadrabbit/pkg/api/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/auth"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/metrics"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	cfg        *config.Config
	openTenant auth.TenantOpener
	blacklist  *auth.TokenBlacklist
	metrics    *metrics.Metrics
	validator  *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, openTenant auth.TenantOpener, blacklist *auth.TokenBlacklist, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		openTenant: openTenant,
		blacklist:  blacklist,
		metrics:    m,
		validator:  validator.New(),
	}
}

// Login verifies credentials and opens a cookie session. The tenant claim in
// the issued token pins every later request to the database the user logged
// in against.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ts := h.openTenant(req.Tenant)

	user, err := ts.Users().FindByEmail(ctx, req.Email)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		if h.metrics != nil {
			h.metrics.RecordLoginAttempt(false)
		}
		// Same response either way, so callers cannot enumerate accounts.
		return apierrors.Respond(c, domain.NewUnauthorizedError("invalid email or password"))
	}

	expiration := time.Duration(h.cfg.JWTExpirationMinutes) * time.Minute
	token, err := auth.GenerateJWT(user.Email, user.Role, ts.Name(), h.cfg.JWTSecret, expiration)
	if err != nil {
		return apierrors.Respond(c, domain.NewInternalError(err))
	}

	if err := ts.Users().SetOnline(ctx, user.Email, true); err != nil {
		return apierrors.Respond(c, err)
	}

	c.SetCookie(h.sessionCookie(token, expiration))

	if h.metrics != nil {
		h.metrics.RecordLoginAttempt(true)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the current session token and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	ac := apimw.GetAuthContext(c)
	token, _ := c.Get(apimw.TokenKey).(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if h.blacklist != nil && token != "" {
		expiration := time.Duration(h.cfg.JWTExpirationMinutes) * time.Minute
		if err := h.blacklist.Add(ctx, token, expiration); err != nil {
			return apierrors.Respond(c, domain.NewInternalError(err))
		}
	}

	if err := ac.Tenant.Users().SetOnline(ctx, ac.Email, false); err != nil {
		return apierrors.Respond(c, err)
	}

	c.SetCookie(h.sessionCookie("", -time.Hour))

	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the authenticated user document.
func (h *AuthHandler) Me(c echo.Context) error {
	ac := apimw.GetAuthContext(c)
	return c.JSON(http.StatusOK, ac.User)
}

// Heartbeat records presence for the online indicator.
func (h *AuthHandler) Heartbeat(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := ac.Tenant.Users().Heartbeat(ctx, ac.Email); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Agents lists the tenant's agent accounts. Admin only (enforced by route
// middleware).
func (h *AuthHandler) Agents(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	agents, err := ac.Tenant.Users().ListAgents(ctx)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": agents})
}

func (h *AuthHandler) sessionCookie(token string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     apimw.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.APIEnvironment == "production",
		SameSite: http.SameSiteLaxMode,
	}
}
