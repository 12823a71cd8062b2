package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apierrors "github.com/bharathj0410/leadrabbit/pkg/api/errors"
	apimw "github.com/bharathj0410/leadrabbit/pkg/api/middleware"
	"github.com/bharathj0410/leadrabbit/pkg/leads"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// LeadHandler handles lead CRUD and embedded sub-document endpoints
type LeadHandler struct {
	service   *leads.Service
	validator *validator.Validate
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(service *leads.Service) *LeadHandler {
	return &LeadHandler{
		service:   service,
		validator: validator.New(),
	}
}

// List returns a filtered, paginated page of leads scoped to the caller.
func (h *LeadHandler) List(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	filter := models.LeadFilter{
		Status:     models.LeadStatus(c.QueryParam("status")),
		Source:     c.QueryParam("source"),
		AssignedTo: c.QueryParam("assigned_to"),
		Search:     c.QueryParam("search"),
		Page:       page,
		Limit:      limit,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	resp, err := h.service.List(ctx, ac.Tenant, ac.User, filter)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Get returns one lead by id.
func (h *LeadHandler) Get(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.Get(ctx, ac.Tenant, ac.User, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, lead)
}

// Create records a manually entered lead.
func (h *LeadHandler) Create(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	var req models.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lead, err := h.service.Create(ctx, ac.Tenant, ac.User, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusCreated, lead)
}

// UpdateStatus normalizes and stores a lead status.
func (h *LeadHandler) UpdateStatus(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := h.service.UpdateStatus(ctx, ac.Tenant, ac.User, c.Param("id"), req.Status)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  status,
	})
}

// UpsertEngagement creates or updates an embedded engagement and returns the
// re-sorted list.
func (h *LeadHandler) UpsertEngagement(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	var req models.EngagementRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	engagements, err := h.service.UpsertEngagement(ctx, ac.Tenant, ac.User, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"engagements": engagements,
	})
}

// DeleteEngagement removes an embedded engagement.
func (h *LeadHandler) DeleteEngagement(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	engagements, err := h.service.DeleteEngagement(ctx, ac.Tenant, ac.User, c.Param("id"), c.Param("engagementId"))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"engagements": engagements,
	})
}

// RecordMeeting schedules a meeting and its calendar event.
func (h *LeadHandler) RecordMeeting(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	var req models.MeetingRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	// Calendar round trip included, so a longer deadline than plain CRUD.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	meeting, err := h.service.RecordMeeting(ctx, ac.Tenant, ac.User, c.Param("id"), req)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"meeting": meeting,
	})
}

// ToggleFavorite flips the caller's favorite flag for a lead.
func (h *LeadHandler) ToggleFavorite(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	favorited, err := h.service.ToggleFavorite(ctx, ac.Tenant, ac.User, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":   true,
		"favorited": favorited,
	})
}

// Assign routes a lead to an agent. Admin only (enforced by route middleware).
func (h *LeadHandler) Assign(c echo.Context) error {
	ac := apimw.GetAuthContext(c)

	var req models.AssignLeadRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BindError(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Assign(ctx, ac.Tenant, ac.User, c.Param("id"), req.AgentEmail); err != nil {
		return apierrors.Respond(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
