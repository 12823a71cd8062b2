package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/bharathj0410/leadrabbit/pkg/api/errors"
	apimw "github.com/bharathj0410/leadrabbit/pkg/api/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/calendar"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/tenant"
)

// CalendarHandler handles the Google Calendar connection endpoints
type CalendarHandler struct {
	service     *calendar.Service
	directory   *tenant.Directory
	frontendURL string
	log         logger.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(service *calendar.Service, directory *tenant.Directory, frontendURL string, log logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		service:     service,
		directory:   directory,
		frontendURL: frontendURL,
		log:         log,
	}
}

// Connect starts the OAuth flow and returns the authorization URL.
func (h *CalendarHandler) Connect(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	returnPath := c.QueryParam("return_path")
	if returnPath == "" || !strings.HasPrefix(returnPath, "/") {
		returnPath = "/settings"
	}

	authURL, err := h.service.AuthURL(ac.Tenant.Name(), ac.Email, returnPath)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"url": authURL})
}

// Callback completes the OAuth flow. The browser lands here straight from
// Google, outside any session, so identity comes from the signed state and
// every failure redirects back to the frontend instead of rendering an error
// page.
func (h *CalendarHandler) Callback(c echo.Context) error {
	st, err := h.service.DecodeCallbackState(c.QueryParam("state"))
	if err != nil {
		h.log.Warn("calendar callback rejected", "error", err)
		return c.Redirect(http.StatusFound, h.redirectURL("/settings", "error"))
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		// User declined on the consent screen.
		h.log.Info("calendar authorization declined", "user", st.Email, "reason", errParam)
		return c.Redirect(http.StatusFound, h.redirectURL(st.ReturnPath, "declined"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	ts := h.directory.ResolveByName(st.Tenant)

	if err := h.service.HandleCallback(ctx, ts, st, c.QueryParam("code")); err != nil {
		h.log.Error("calendar callback failed", "user", st.Email, "error", err)
		return c.Redirect(http.StatusFound, h.redirectURL(st.ReturnPath, "error"))
	}

	return c.Redirect(http.StatusFound, h.redirectURL(st.ReturnPath, "connected"))
}

// Disconnect drops the caller's calendar connection.
func (h *CalendarHandler) Disconnect(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Disconnect(ctx, ac.Tenant, ac.Email); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"connected": false})
}

// Status reports whether the caller has a calendar connected.
func (h *CalendarHandler) Status(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	if ac.User.GoogleCal == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"connected": false})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"connected":    true,
		"google_email": ac.User.GoogleCal.GoogleEmail,
		"connected_at": ac.User.GoogleCal.ConnectedAt,
	})
}

func (h *CalendarHandler) redirectURL(returnPath, status string) string {
	base := strings.TrimSuffix(h.frontendURL, "/")
	if returnPath == "" || !strings.HasPrefix(returnPath, "/") {
		returnPath = "/settings"
	}

	sep := "?"
	if strings.Contains(returnPath, "?") {
		sep = "&"
	}
	return base + returnPath + sep + "calendar=" + url.QueryEscape(status)
}
