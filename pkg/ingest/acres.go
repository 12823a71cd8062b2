package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// AcresClient fetches a window of leads from the 99acres XNET API.
type AcresClient interface {
	FetchLeads(ctx context.Context, username, password string, from, to time.Time) ([]byte, error)
}

// AcresAdapter polls 99acres on a schedule. The upstream API restricts query
// windows, so each run covers a bounded span and the lastSync watermark only
// advances after the whole window processed cleanly — a failed run leaves
// the next run to re-request the same window, relying on dedupe.
type AcresAdapter struct {
	client      AcresClient
	maxWindow   time.Duration
	maxLookback time.Duration
	log         logger.Logger
}

// NewAcresAdapter creates the 99acres polling adapter.
func NewAcresAdapter(client AcresClient, maxWindow, maxLookback time.Duration, log logger.Logger) *AcresAdapter {
	if log == nil {
		log = logger.Default()
	}
	return &AcresAdapter{
		client:      client,
		maxWindow:   maxWindow,
		maxLookback: maxLookback,
		log:         log,
	}
}

type acresResponse struct {
	XMLName      xml.Name    `xml:"Response"`
	ActionStatus string      `xml:"ActionStatus"`
	Message      string      `xml:"Message"`
	Leads        []acresLead `xml:"Leads>Lead"`
}

type acresLead struct {
	QueryID    string `xml:"QueryId"`
	Name       string `xml:"Name"`
	Email      string `xml:"Email"`
	Phone      string `xml:"Phone"`
	PropertyID string `xml:"PropertyId"`
	QueryInfo  string `xml:"QueryInfo"`
	CityName   string `xml:"CityName"`
	Verified   string `xml:"IsVerified"`
	QueryTime  string `xml:"QueryTime"`
}

// SyncWindow is the bounded time span a single run covers.
type SyncWindow struct {
	From time.Time
	To   time.Time
}

// ComputeWindow clamps the poll window: it starts at the watermark but never
// further back than maxLookback, and spans at most maxWindow, never past now.
// The deliberate overlap with already-processed time tolerates clock skew and
// dropped deliveries; dedupe absorbs the replays.
func ComputeWindow(lastSync, now time.Time, maxLookback, maxWindow time.Duration) SyncWindow {
	from := now.Add(-maxLookback)
	if lastSync.After(from) {
		from = lastSync
	}

	to := from.Add(maxWindow)
	if to.After(now) {
		to = now
	}

	return SyncWindow{From: from, To: to}
}

// Sync runs one poll for the tenant. Zero leads is a normal outcome; an
// upstream or persistence failure returns with the watermark untouched.
func (a *AcresAdapter) Sync(ctx context.Context, tenant domain.TenantStore, now time.Time) (*Result, error) {
	acct, err := activeIntegration(ctx, tenant, models.SourceAcres99)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		a.log.Debug("99acres integration inactive", "tenant", tenant.Name())
		return &Result{}, nil
	}

	window := ComputeWindow(acct.LastSync, now, a.maxLookback, a.maxWindow)
	if !window.From.Before(window.To) {
		return &Result{}, nil
	}

	raw, err := a.client.FetchLeads(ctx, acct.Username, acct.Password, window.From, window.To)
	if err != nil {
		return nil, domain.NewUpstreamError("99acres", err)
	}

	var resp acresResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, domain.NewUpstreamError("99acres", err)
	}
	if !strings.EqualFold(resp.ActionStatus, "Success") {
		return nil, domain.NewUpstreamError("99acres", fmt.Errorf("action status %q: %s", resp.ActionStatus, resp.Message))
	}

	repo := tenant.Leads()
	processed := 0

	for _, entry := range resp.Leads {
		if entry.QueryID == "" {
			a.log.Warn("skipping 99acres entry without QueryId", "tenant", tenant.Name())
			continue
		}

		lead := &models.Lead{
			Source: models.SourceAcres99,
			Status: models.StatusNew,
			Name:   strings.TrimSpace(entry.Name),
			Email:  NormalizeEmail(entry.Email),
			Phone:  NormalizePhone(entry.Phone),
			MetaData: map[string]string{
				models.MetaExternalQueryID: entry.QueryID,
				"propertyId":               entry.PropertyID,
				"queryInfo":                entry.QueryInfo,
				"cityName":                 entry.CityName,
				"isVerified":               entry.Verified,
				"queryTime":                entry.QueryTime,
			},
		}

		inserted, err := insertIfNew(ctx, repo, lead, a.log)
		if err != nil {
			// Already-inserted leads stay; the unchanged watermark makes the
			// next run re-request this window and dedupe them.
			return nil, err
		}
		if inserted {
			processed++
		}
	}

	// Watermark advancement is the last step, after the whole window
	// processed without error.
	if err := tenant.Integrations().AdvanceLastSync(ctx, acct.ID, window.To); err != nil {
		return nil, err
	}

	a.log.Info("99acres sync completed",
		"tenant", tenant.Name(),
		"from", window.From.Format(time.RFC3339),
		"to", window.To.Format(time.RFC3339),
		"leads_processed", processed,
	)
	return &Result{LeadsProcessed: processed}, nil
}

// HTTPAcresClient talks to the 99acres XNET endpoint.
type HTTPAcresClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAcresClient creates the real API client.
func NewHTTPAcresClient(baseURL string) *HTTPAcresClient {
	return &HTTPAcresClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchLeads requests the query window. The API takes DD-MM-YYYY HH:MM
// bounds and returns an XML body.
func (c *HTTPAcresClient) FetchLeads(ctx context.Context, username, password string, from, to time.Time) ([]byte, error) {
	params := url.Values{}
	params.Set("username", username)
	params.Set("password", password)
	params.Set("start_date", from.Format("02-01-2006 15:04"))
	params.Set("end_date", to.Format("02-01-2006 15:04"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/getleads?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
