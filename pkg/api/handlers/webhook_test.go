package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharathj0410/leadrabbit/pkg/database"
	"github.com/bharathj0410/leadrabbit/pkg/ingest"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
	"github.com/bharathj0410/leadrabbit/pkg/tenant"
)

type stubRegistry struct {
	customer *models.Customer
}

func (r *stubRegistry) FindByWebhookID(ctx context.Context, source, webhookID string) (*models.Customer, error) {
	return r.customer, nil
}

func (r *stubRegistry) List(ctx context.Context) ([]models.Customer, error) {
	if r.customer == nil {
		return nil, nil
	}
	return []models.Customer{*r.customer}, nil
}

// newWebhookDirectory builds a directory over a client that never dials.
// The tests below only exercise paths that return before any database
// operation runs.
func newWebhookDirectory(t *testing.T, registry *stubRegistry) *tenant.Directory {
	t.Helper()
	db, err := database.NewClient("mongodb://localhost:27017")
	require.NoError(t, err)
	return tenant.NewDirectory(db, registry, "leadrabbit")
}

func newWebhookHandler(t *testing.T, registry *stubRegistry) *WebhookHandler {
	t.Helper()
	return NewWebhookHandler(
		newWebhookDirectory(t, registry),
		ingest.NewFacebookAdapter("app-secret", logger.Nop()),
		ingest.NewMagicbricksAdapter("mb-token", logger.Nop()),
		logger.Nop(),
	)
}

func invokeWebhook(h *WebhookHandler, source, webhookID, body string, headers map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/webhook/:source/:webhookId")
	c.SetParamNames("source", "webhookId")
	c.SetParamValues(source, webhookID)

	_ = h.Receive(c)
	return rec
}

func TestWebhookReceive_UnknownIDIs404(t *testing.T) {
	h := newWebhookHandler(t, &stubRegistry{})

	rec := invokeWebhook(h, models.SourceFacebook, "nope", `{"object":"page"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestWebhookReceive_FacebookBadSignatureIs400(t *testing.T) {
	h := newWebhookHandler(t, &stubRegistry{customer: &models.Customer{
		CustomerName: "Acme Realty",
		DatabaseName: "customer_acme",
		Webhooks:     map[string]string{models.SourceFacebook: "wh-1"},
	}})

	rec := invokeWebhook(h, models.SourceFacebook, "wh-1", `{"object":"page"}`, map[string]string{
		"X-Hub-Signature-256": "sha256=deadbeef",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestWebhookReceive_FacebookMissingSignatureIs400(t *testing.T) {
	h := newWebhookHandler(t, &stubRegistry{customer: &models.Customer{DatabaseName: "customer_acme"}})

	rec := invokeWebhook(h, models.SourceFacebook, "wh-1", `{"object":"page"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookReceive_UnknownSourceIs404(t *testing.T) {
	h := newWebhookHandler(t, &stubRegistry{customer: &models.Customer{DatabaseName: "customer_acme"}})

	rec := invokeWebhook(h, "linkedin", "wh-1", `{}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
