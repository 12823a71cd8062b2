package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/v2/bson"

	apierrors "github.com/bharathj0410/leadrabbit/pkg/api/errors"
	apimw "github.com/bharathj0410/leadrabbit/pkg/api/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/jobs"
)

// IntegrationHandler handles polled-source integration admin endpoints
type IntegrationHandler struct {
	cron *jobs.CronManager
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(cron *jobs.CronManager) *IntegrationHandler {
	return &IntegrationHandler{cron: cron}
}

// List returns the tenant's integration accounts with their watermarks.
func (h *IntegrationHandler) List(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	accounts, err := ac.Tenant.Integrations().List(ctx)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"data": accounts})
}

// SetActive enables or disables an integration account.
func (h *IntegrationHandler) SetActive(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, domain.NewValidationError("invalid integration id"))
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := ac.Tenant.Integrations().SetActive(ctx, id, req.Active); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"active":  req.Active,
	})
}

// TriggerSync runs the caller's tenant through the same sync pass the
// scheduler runs.
func (h *IntegrationHandler) TriggerSync(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Minute)
	defer cancel()

	result, err := h.cron.RunAcresSyncForTenant(ctx, ac.Tenant)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"leadsProcessed": result.LeadsProcessed,
	})
}
