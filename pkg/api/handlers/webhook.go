package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/bharathj0410/leadrabbit/pkg/api/errors"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/ingest"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/metrics"
	"github.com/bharathj0410/leadrabbit/pkg/models"
	"github.com/bharathj0410/leadrabbit/pkg/tenant"
)

// maxWebhookBody caps inbound webhook payloads at 1 MiB.
const maxWebhookBody = 1 << 20

// WebhookHandler receives push deliveries from lead sources. The webhook id
// in the path is the shared secret routing the delivery to a tenant; an
// unknown id is a 404 before any payload parsing happens.
type WebhookHandler struct {
	directory   *tenant.Directory
	facebook    *ingest.FacebookAdapter
	magicbricks *ingest.MagicbricksAdapter
	log         logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(directory *tenant.Directory, facebook *ingest.FacebookAdapter, magicbricks *ingest.MagicbricksAdapter, log logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		directory:   directory,
		facebook:    facebook,
		magicbricks: magicbricks,
		log:         log,
	}
}

// Receive handles POST /webhook/:source/:webhookId.
func (h *WebhookHandler) Receive(c echo.Context) error {
	source := c.Param("source")
	webhookID := c.Param("webhookId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	ts, customer, err := h.directory.ResolveByWebhookID(ctx, source, webhookID)
	if err != nil {
		if domain.IsNotFound(err) {
			metrics.WebhookRejections.WithLabelValues(source, "unknown_id").Inc()
		}
		return apierrors.Respond(c, err)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return apierrors.Respond(c, domain.NewBadRequestError("unreadable request body"))
	}

	var result *ingest.Result
	switch source {
	case models.SourceFacebook:
		if !h.facebook.VerifySignature(body, c.Request().Header.Get("X-Hub-Signature-256")) {
			metrics.WebhookRejections.WithLabelValues(source, "bad_signature").Inc()
			return apierrors.Respond(c, domain.NewBadRequestError("invalid signature"))
		}
		result, err = h.facebook.Ingest(ctx, ts, body)
	case models.SourceMagicbricks:
		result, err = h.magicbricks.Ingest(ctx, ts, body)
	default:
		return apierrors.Respond(c, domain.NewNotFoundError("webhook source"))
	}

	if err != nil {
		if domain.GetErrorCode(err) == domain.ErrCodeBadRequest {
			metrics.WebhookRejections.WithLabelValues(source, "bad_payload").Inc()
		}
		h.log.Warn("webhook rejected",
			"source", source, "tenant", ts.Name(), "error", err)
		return apierrors.Respond(c, err)
	}

	if result.LeadsProcessed > 0 {
		metrics.LeadsIngested.WithLabelValues(source, ts.Name()).Add(float64(result.LeadsProcessed))
	}

	h.log.Info("webhook processed",
		"source", source,
		"customer", customer.CustomerName,
		"leads_processed", result.LeadsProcessed,
	)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":        true,
		"leadsProcessed": result.LeadsProcessed,
		"message":        "processed",
	})
}
