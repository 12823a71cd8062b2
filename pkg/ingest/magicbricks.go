package ingest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"strings"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// MagicbricksAdapter ingests MagicBricks lead pushes. The envelope carries a
// shared auth token instead of a body signature.
type MagicbricksAdapter struct {
	authToken string
	log       logger.Logger
}

// NewMagicbricksAdapter creates the MagicBricks adapter.
func NewMagicbricksAdapter(authToken string, log logger.Logger) *MagicbricksAdapter {
	if log == nil {
		log = logger.Default()
	}
	return &MagicbricksAdapter{authToken: authToken, log: log}
}

type magicbricksPayload struct {
	Token string `json:"token"`
	Leads []struct {
		QueryID      string `json:"queryId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Mobile       string `json:"mobile"`
		ProjectName  string `json:"projectName"`
		CityName     string `json:"cityName"`
		PropertyType string `json:"propertyType"`
		QueryInfo    string `json:"queryInfo"`
	} `json:"leads"`
}

// Ingest processes a MagicBricks push. A missing or wrong token rejects the
// whole batch; a lead without a queryId is skipped.
func (a *MagicbricksAdapter) Ingest(ctx context.Context, tenant domain.TenantStore, body []byte) (*Result, error) {
	var payload magicbricksPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewBadRequestError("malformed webhook payload")
	}

	if a.authToken == "" ||
		subtle.ConstantTimeCompare([]byte(payload.Token), []byte(a.authToken)) != 1 {
		return nil, domain.NewBadRequestError("invalid webhook token")
	}

	acct, err := activeIntegration(ctx, tenant, models.SourceMagicbricks)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		a.log.Info("magicbricks integration inactive, ignoring delivery", "tenant", tenant.Name())
		return &Result{}, nil
	}

	repo := tenant.Leads()
	processed := 0

	for _, entry := range payload.Leads {
		if entry.QueryID == "" {
			a.log.Warn("skipping magicbricks entry without queryId", "tenant", tenant.Name())
			continue
		}

		lead := &models.Lead{
			Source: models.SourceMagicbricks,
			Status: models.StatusNew,
			Name:   strings.TrimSpace(entry.Name),
			Email:  NormalizeEmail(entry.Email),
			Phone:  NormalizePhone(entry.Mobile),
			MetaData: map[string]string{
				models.MetaExternalQueryID: entry.QueryID,
				"projectName":              entry.ProjectName,
				"cityName":                 entry.CityName,
				"propertyType":             entry.PropertyType,
				"queryInfo":                entry.QueryInfo,
			},
		}

		inserted, err := insertIfNew(ctx, repo, lead, a.log)
		if err != nil {
			return nil, err
		}
		if inserted {
			processed++
		}
	}

	return &Result{LeadsProcessed: processed}, nil
}
