package ingest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// FacebookAdapter ingests Lead Ads webhook pushes. The envelope is
// authenticated with the X-Hub-Signature-256 HMAC before anything is parsed.
type FacebookAdapter struct {
	appSecret string
	log       logger.Logger
}

// NewFacebookAdapter creates the Facebook Lead Ads adapter.
func NewFacebookAdapter(appSecret string, log logger.Logger) *FacebookAdapter {
	if log == nil {
		log = logger.Default()
	}
	return &FacebookAdapter{appSecret: appSecret, log: log}
}

type facebookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string            `json:"field"`
			Value facebookLeadValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type facebookLeadValue struct {
	LeadgenID   string `json:"leadgen_id"`
	FormID      string `json:"form_id"`
	PageID      string `json:"page_id"`
	CreatedTime int64  `json:"created_time"`
	FieldData   []struct {
		Name   string   `json:"name"`
		Values []string `json:"values"`
	} `json:"field_data"`
}

// VerifySignature checks the X-Hub-Signature-256 header against the raw body.
func (a *FacebookAdapter) VerifySignature(body []byte, header string) bool {
	if a.appSecret == "" || header == "" {
		return false
	}

	expected := strings.TrimPrefix(header, "sha256=")
	mac := hmac.New(sha256.New, []byte(a.appSecret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(computed), []byte(expected))
}

// Ingest processes a verified webhook body. Entries without a leadgen id are
// skipped with a warning; they never abort the batch.
func (a *FacebookAdapter) Ingest(ctx context.Context, tenant domain.TenantStore, body []byte) (*Result, error) {
	var payload facebookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewBadRequestError("malformed webhook payload")
	}
	if payload.Object != "page" {
		return nil, domain.NewBadRequestError("unexpected webhook object")
	}

	acct, err := activeIntegration(ctx, tenant, models.SourceFacebook)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		a.log.Info("facebook integration inactive, ignoring delivery", "tenant", tenant.Name())
		return &Result{}, nil
	}

	repo := tenant.Leads()
	processed := 0

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "leadgen" {
				continue
			}
			lead, ok := a.normalize(change.Value)
			if !ok {
				a.log.Warn("skipping malformed facebook entry", "tenant", tenant.Name(), "form_id", change.Value.FormID)
				continue
			}

			inserted, err := insertIfNew(ctx, repo, lead, a.log)
			if err != nil {
				return nil, err
			}
			if inserted {
				processed++
			}
		}
	}

	return &Result{LeadsProcessed: processed}, nil
}

func (a *FacebookAdapter) normalize(v facebookLeadValue) (*models.Lead, bool) {
	if v.LeadgenID == "" {
		return nil, false
	}

	lead := &models.Lead{
		Source: models.SourceFacebook,
		Status: models.StatusNew,
		MetaData: map[string]string{
			models.MetaExternalQueryID: v.LeadgenID,
			"formId":                   v.FormID,
			"pageId":                   v.PageID,
		},
	}

	for _, field := range v.FieldData {
		if len(field.Values) == 0 {
			continue
		}
		value := field.Values[0]
		switch strings.ToLower(field.Name) {
		case "full_name", "name":
			lead.Name = strings.TrimSpace(value)
		case "email":
			lead.Email = NormalizeEmail(value)
		case "phone_number", "phone":
			lead.Phone = NormalizePhone(value)
		default:
			lead.MetaData[field.Name] = value
		}
	}

	return lead, true
}
