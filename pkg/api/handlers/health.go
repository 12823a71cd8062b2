package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bharathj0410/leadrabbit/pkg/cache"
	"github.com/bharathj0410/leadrabbit/pkg/database"
)

// HealthHandler reports service liveness and dependency reachability
type HealthHandler struct {
	db    *database.Client
	cache *cache.Client
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Client, cache *cache.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check pings Mongo and Redis. Degraded dependencies surface as 503 so load
// balancers stop routing here.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{
		"mongo": "ok",
		"redis": "ok",
	}

	if err := h.db.Ping(ctx); err != nil {
		checks["mongo"] = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "unreachable"
			status = http.StatusServiceUnavailable
		}
	} else {
		checks["redis"] = "disabled"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	return c.JSON(status, map[string]interface{}{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}
