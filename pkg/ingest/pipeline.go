// Package ingest converts source-specific payloads into normalized lead
// records with at-most-one insertion per external identifier. Adapters share
// the same shape: validate the envelope, resolve the tenant's active
// integration, normalize entries, and dedupe on
// (source, metaData.externalQueryId). A malformed entry is logged and
// skipped; only an invalid envelope rejects the whole batch.
package ingest

import (
	"context"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// Result reports how many leads a batch actually inserted.
type Result struct {
	LeadsProcessed int `json:"leads_processed"`
}

// defaultPhoneRegion is the region hint for numbers without a country code.
const defaultPhoneRegion = "IN"

// NormalizeEmail lower-cases and trims a contact email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone formats a phone number as E.164 when it parses, otherwise
// returns the trimmed input unchanged. Ingestion never drops an entry over
// an unparseable phone.
func NormalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	num, err := phonenumbers.Parse(trimmed, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return trimmed
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// insertIfNew inserts the lead unless one with the same
// (source, externalQueryId) already exists. Returns whether an insert
// happened. Webhook redeliveries and overlapping poll windows both funnel
// through here, which is the idempotence guarantee.
func insertIfNew(ctx context.Context, repo domain.LeadRepository, lead *models.Lead, log logger.Logger) (bool, error) {
	externalID := lead.ExternalQueryID()
	if externalID == "" {
		log.Warn("skipping entry without external id", "source", lead.Source)
		return false, nil
	}

	existing, err := repo.FindByExternalID(ctx, lead.Source, externalID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		log.Debug("duplicate lead skipped", "source", lead.Source, "external_id", externalID)
		return false, nil
	}

	if err := repo.Insert(ctx, lead); err != nil {
		if domain.GetErrorCode(err) == domain.ErrCodeConflict {
			// Concurrent delivery inserted it first.
			log.Debug("duplicate lead skipped on insert", "source", lead.Source, "external_id", externalID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// activeIntegration returns the tenant's active account for the source, or
// nil when the integration is disabled. A disabled integration is not an
// error; the tenant may have turned it off after registering the webhook.
func activeIntegration(ctx context.Context, tenant domain.TenantStore, source string) (*models.IntegrationAccount, error) {
	return tenant.Integrations().ActiveBySource(ctx, source)
}
