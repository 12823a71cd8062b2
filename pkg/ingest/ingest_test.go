package ingest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/logger"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// --- mocks ---

type mockLeadRepo struct{ mock.Mock }

func (m *mockLeadRepo) Insert(ctx context.Context, lead *models.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockLeadRepo) FindByID(ctx context.Context, id bson.ObjectID, scope models.OwnerScope) (*models.Lead, error) {
	return leadResult(m.Called(ctx, id, scope))
}

func (m *mockLeadRepo) FindByExternalID(ctx context.Context, source, externalQueryID string) (*models.Lead, error) {
	return leadResult(m.Called(ctx, source, externalQueryID))
}

func (m *mockLeadRepo) List(ctx context.Context, f models.LeadFilter) ([]models.Lead, int64, error) {
	args := m.Called(ctx, f)
	return nil, args.Get(1).(int64), args.Error(2)
}

func (m *mockLeadRepo) SetStatus(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, status models.LeadStatus) (int64, error) {
	args := m.Called(ctx, id, scope, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLeadRepo) AppendEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error) {
	return leadResult(m.Called(ctx, id, scope, e))
}

func (m *mockLeadRepo) UpdateEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error) {
	return leadResult(m.Called(ctx, id, scope, e))
}

func (m *mockLeadRepo) RemoveEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, engagementID string) (*models.Lead, error) {
	return leadResult(m.Called(ctx, id, scope, engagementID))
}

func (m *mockLeadRepo) AppendMeeting(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, meeting models.Meeting) (*models.Lead, error) {
	return leadResult(m.Called(ctx, id, scope, meeting))
}

func (m *mockLeadRepo) Assign(ctx context.Context, id bson.ObjectID, agentEmail string) (int64, error) {
	args := m.Called(ctx, id, agentEmail)
	return args.Get(0).(int64), args.Error(1)
}

func leadResult(args mock.Arguments) (*models.Lead, error) {
	var l *models.Lead
	if v := args.Get(0); v != nil {
		l = v.(*models.Lead)
	}
	return l, args.Error(1)
}

type mockIntegrationRepo struct{ mock.Mock }

func (m *mockIntegrationRepo) ActiveBySource(ctx context.Context, source string) (*models.IntegrationAccount, error) {
	args := m.Called(ctx, source)
	var acct *models.IntegrationAccount
	if v := args.Get(0); v != nil {
		acct = v.(*models.IntegrationAccount)
	}
	return acct, args.Error(1)
}

func (m *mockIntegrationRepo) List(ctx context.Context) ([]models.IntegrationAccount, error) {
	args := m.Called(ctx)
	var accts []models.IntegrationAccount
	if v := args.Get(0); v != nil {
		accts = v.([]models.IntegrationAccount)
	}
	return accts, args.Error(1)
}

func (m *mockIntegrationRepo) SetActive(ctx context.Context, id bson.ObjectID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockIntegrationRepo) AdvanceLastSync(ctx context.Context, id bson.ObjectID, ts time.Time) error {
	return m.Called(ctx, id, ts).Error(0)
}

type fakeTenant struct {
	leads        *mockLeadRepo
	integrations *mockIntegrationRepo
}

func (t *fakeTenant) Name() string                               { return "tenant_test" }
func (t *fakeTenant) Leads() domain.LeadRepository               { return t.leads }
func (t *fakeTenant) Users() domain.UserRepository               { return nil }
func (t *fakeTenant) Integrations() domain.IntegrationRepository { return t.integrations }

func newFakeTenant() *fakeTenant {
	return &fakeTenant{leads: new(mockLeadRepo), integrations: new(mockIntegrationRepo)}
}

type fakeAcresClient struct {
	body []byte
	err  error

	from, to time.Time
	calls    int
}

func (c *fakeAcresClient) FetchLeads(ctx context.Context, username, password string, from, to time.Time) ([]byte, error) {
	c.calls++
	c.from, c.to = from, to
	return c.body, c.err
}

// --- normalization ---

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "+919876543210"},
		{"+91 98765 43210", "+919876543210"},
		{"  9876543210  ", "+919876543210"},
		{"12345", "12345"},   // unparseable, kept as entered
		{"call me", "call me"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ravi@example.com", NormalizeEmail("  Ravi@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

// --- window clamping ---

func TestComputeWindow(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	lookback := 7 * 24 * time.Hour
	window := 6 * time.Hour

	t.Run("watermark inside lookback", func(t *testing.T) {
		last := now.Add(-2 * time.Hour)
		w := ComputeWindow(last, now, lookback, window)
		assert.Equal(t, last, w.From)
		assert.Equal(t, now, w.To) // clamped to now, not last+6h
	})

	t.Run("stale watermark clamped to lookback", func(t *testing.T) {
		last := now.Add(-30 * 24 * time.Hour)
		w := ComputeWindow(last, now, lookback, window)
		assert.Equal(t, now.Add(-lookback), w.From)
		assert.Equal(t, now.Add(-lookback).Add(window), w.To)
	})

	t.Run("zero watermark", func(t *testing.T) {
		w := ComputeWindow(time.Time{}, now, lookback, window)
		assert.Equal(t, now.Add(-lookback), w.From)
	})

	t.Run("watermark at now yields empty window", func(t *testing.T) {
		w := ComputeWindow(now, now, lookback, window)
		assert.False(t, w.From.Before(w.To))
	})
}

// --- facebook ---

func signFacebook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestFacebookVerifySignature(t *testing.T) {
	adapter := NewFacebookAdapter("topsecret", logger.Nop())
	body := []byte(`{"object":"page"}`)

	assert.True(t, adapter.VerifySignature(body, signFacebook("topsecret", body)))
	assert.False(t, adapter.VerifySignature(body, signFacebook("wrong", body)))
	assert.False(t, adapter.VerifySignature(body, ""))
	assert.False(t, adapter.VerifySignature([]byte("tampered"), signFacebook("topsecret", body)))

	unconfigured := NewFacebookAdapter("", logger.Nop())
	assert.False(t, unconfigured.VerifySignature(body, signFacebook("", body)))
}

const facebookBody = `{
	"object": "page",
	"entry": [{
		"changes": [{
			"field": "leadgen",
			"value": {
				"leadgen_id": "lg-1",
				"form_id": "f-1",
				"page_id": "p-1",
				"field_data": [
					{"name": "full_name", "values": ["Ravi Kumar"]},
					{"name": "email", "values": ["Ravi@Example.com"]},
					{"name": "phone_number", "values": ["9876543210"]},
					{"name": "budget", "values": ["50L"]}
				]
			}
		}]
	}]
}`

func TestFacebookIngest_InsertsNormalizedLead(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceFacebook).
		Return(&models.IntegrationAccount{Source: models.SourceFacebook, IsActive: true}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceFacebook, "lg-1").Return(nil, nil)

	var inserted *models.Lead
	tenant.leads.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(1).(*models.Lead) }).
		Return(nil)

	res, err := NewFacebookAdapter("s", logger.Nop()).Ingest(context.Background(), tenant, []byte(facebookBody))

	assert.NoError(t, err)
	assert.Equal(t, 1, res.LeadsProcessed)
	assert.Equal(t, "Ravi Kumar", inserted.Name)
	assert.Equal(t, "ravi@example.com", inserted.Email)
	assert.Equal(t, "+919876543210", inserted.Phone)
	assert.Equal(t, "lg-1", inserted.ExternalQueryID())
	assert.Equal(t, "50L", inserted.MetaData["budget"])
	assert.Equal(t, models.StatusNew, inserted.Status)
}

func TestFacebookIngest_DuplicateSkipped(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceFacebook).
		Return(&models.IntegrationAccount{IsActive: true}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceFacebook, "lg-1").
		Return(&models.Lead{Source: models.SourceFacebook}, nil)

	res, err := NewFacebookAdapter("s", logger.Nop()).Ingest(context.Background(), tenant, []byte(facebookBody))

	assert.NoError(t, err)
	assert.Equal(t, 0, res.LeadsProcessed)
	tenant.leads.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestFacebookIngest_ConcurrentInsertTreatedAsDuplicate(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceFacebook).
		Return(&models.IntegrationAccount{IsActive: true}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceFacebook, "lg-1").Return(nil, nil)
	tenant.leads.On("Insert", mock.Anything, mock.Anything).
		Return(domain.NewConflictError("lead already exists"))

	res, err := NewFacebookAdapter("s", logger.Nop()).Ingest(context.Background(), tenant, []byte(facebookBody))

	assert.NoError(t, err)
	assert.Equal(t, 0, res.LeadsProcessed)
}

func TestFacebookIngest_EnvelopeRejected(t *testing.T) {
	tenant := newFakeTenant()
	adapter := NewFacebookAdapter("s", logger.Nop())

	_, err := adapter.Ingest(context.Background(), tenant, []byte(`{"object":"user"}`))
	assert.Equal(t, domain.ErrCodeBadRequest, domain.GetErrorCode(err))

	_, err = adapter.Ingest(context.Background(), tenant, []byte(`not json`))
	assert.Equal(t, domain.ErrCodeBadRequest, domain.GetErrorCode(err))
}

func TestFacebookIngest_InactiveIntegrationIgnoresDelivery(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceFacebook).Return(nil, nil)

	res, err := NewFacebookAdapter("s", logger.Nop()).Ingest(context.Background(), tenant, []byte(facebookBody))

	assert.NoError(t, err)
	assert.Equal(t, 0, res.LeadsProcessed)
	tenant.leads.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestFacebookIngest_EntryWithoutLeadgenIDSkipped(t *testing.T) {
	body := `{
		"object": "page",
		"entry": [{
			"changes": [
				{"field": "leadgen", "value": {"field_data": [{"name": "email", "values": ["a@b.c"]}]}},
				{"field": "leadgen", "value": {"leadgen_id": "lg-2"}}
			]
		}]
	}`

	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceFacebook).
		Return(&models.IntegrationAccount{IsActive: true}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceFacebook, "lg-2").Return(nil, nil)
	tenant.leads.On("Insert", mock.Anything, mock.Anything).Return(nil)

	res, err := NewFacebookAdapter("s", logger.Nop()).Ingest(context.Background(), tenant, []byte(body))

	assert.NoError(t, err)
	assert.Equal(t, 1, res.LeadsProcessed)
}

// --- magicbricks ---

const magicbricksBody = `{
	"token": "shared-token",
	"leads": [{
		"queryId": "mb-1",
		"name": "Priya",
		"email": "Priya@Example.com",
		"mobile": "9876543210",
		"projectName": "Green Acres",
		"cityName": "Pune"
	}]
}`

func TestMagicbricksIngest_TokenMismatchRejectsBatch(t *testing.T) {
	tenant := newFakeTenant()
	adapter := NewMagicbricksAdapter("shared-token", logger.Nop())

	_, err := adapter.Ingest(context.Background(), tenant, []byte(`{"token":"wrong","leads":[]}`))

	assert.Equal(t, domain.ErrCodeBadRequest, domain.GetErrorCode(err))
	tenant.integrations.AssertNotCalled(t, "ActiveBySource", mock.Anything, mock.Anything)
}

func TestMagicbricksIngest_UnconfiguredTokenRejectsEverything(t *testing.T) {
	adapter := NewMagicbricksAdapter("", logger.Nop())

	_, err := adapter.Ingest(context.Background(), newFakeTenant(), []byte(`{"token":"","leads":[]}`))

	assert.Equal(t, domain.ErrCodeBadRequest, domain.GetErrorCode(err))
}

func TestMagicbricksIngest_InsertsNormalizedLead(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceMagicbricks).
		Return(&models.IntegrationAccount{IsActive: true}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceMagicbricks, "mb-1").Return(nil, nil)

	var inserted *models.Lead
	tenant.leads.On("Insert", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { inserted = args.Get(1).(*models.Lead) }).
		Return(nil)

	res, err := NewMagicbricksAdapter("shared-token", logger.Nop()).Ingest(context.Background(), tenant, []byte(magicbricksBody))

	assert.NoError(t, err)
	assert.Equal(t, 1, res.LeadsProcessed)
	assert.Equal(t, "priya@example.com", inserted.Email)
	assert.Equal(t, "+919876543210", inserted.Phone)
	assert.Equal(t, "Green Acres", inserted.MetaData["projectName"])
}

// --- 99acres ---

const acresXML = `<?xml version="1.0"?>
<Response>
	<ActionStatus>Success</ActionStatus>
	<Leads>
		<Lead>
			<QueryId>q-1</QueryId>
			<Name>Ravi</Name>
			<Email>Ravi@Example.com</Email>
			<Phone>9876543210</Phone>
			<PropertyId>prop-9</PropertyId>
			<CityName>Mumbai</CityName>
		</Lead>
		<Lead>
			<QueryId></QueryId>
			<Name>No ID</Name>
		</Lead>
	</Leads>
</Response>`

func TestAcresSync_AdvancesWatermarkAfterCleanRun(t *testing.T) {
	acctID := bson.NewObjectID()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).
		Return(&models.IntegrationAccount{
			ID:       acctID,
			Source:   models.SourceAcres99,
			Username: "u",
			Password: "p",
			IsActive: true,
			LastSync: now.Add(-2 * time.Hour),
		}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceAcres99, "q-1").Return(nil, nil)
	tenant.leads.On("Insert", mock.Anything, mock.Anything).Return(nil)
	tenant.integrations.On("AdvanceLastSync", mock.Anything, acctID, now).Return(nil)

	client := &fakeAcresClient{body: []byte(acresXML)}
	adapter := NewAcresAdapter(client, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	res, err := adapter.Sync(context.Background(), tenant, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.LeadsProcessed) // the entry without a QueryId is skipped
	assert.Equal(t, now.Add(-2*time.Hour), client.from)
	assert.Equal(t, now, client.to)
	tenant.integrations.AssertCalled(t, "AdvanceLastSync", mock.Anything, acctID, now)
}

func TestAcresSync_FetchFailureLeavesWatermark(t *testing.T) {
	now := time.Now()
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).
		Return(&models.IntegrationAccount{ID: bson.NewObjectID(), IsActive: true, LastSync: now.Add(-time.Hour)}, nil)

	client := &fakeAcresClient{err: errors.New("connection reset")}
	adapter := NewAcresAdapter(client, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	_, err := adapter.Sync(context.Background(), tenant, now)

	assert.Equal(t, domain.ErrCodeUpstream, domain.GetErrorCode(err))
	tenant.integrations.AssertNotCalled(t, "AdvanceLastSync", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcresSync_UpstreamFailureStatusLeavesWatermark(t *testing.T) {
	now := time.Now()
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).
		Return(&models.IntegrationAccount{ID: bson.NewObjectID(), IsActive: true, LastSync: now.Add(-time.Hour)}, nil)

	client := &fakeAcresClient{body: []byte(`<Response><ActionStatus>Failure</ActionStatus><Message>bad credentials</Message></Response>`)}
	adapter := NewAcresAdapter(client, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	_, err := adapter.Sync(context.Background(), tenant, now)

	assert.Equal(t, domain.ErrCodeUpstream, domain.GetErrorCode(err))
	tenant.integrations.AssertNotCalled(t, "AdvanceLastSync", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcresSync_InsertFailureLeavesWatermark(t *testing.T) {
	now := time.Now()
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).
		Return(&models.IntegrationAccount{ID: bson.NewObjectID(), IsActive: true, LastSync: now.Add(-time.Hour)}, nil)
	tenant.leads.On("FindByExternalID", mock.Anything, models.SourceAcres99, "q-1").Return(nil, nil)
	tenant.leads.On("Insert", mock.Anything, mock.Anything).
		Return(domain.NewDatabaseUnavailableError(errors.New("server selection timeout")))

	adapter := NewAcresAdapter(&fakeAcresClient{body: []byte(acresXML)}, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	_, err := adapter.Sync(context.Background(), tenant, now)

	assert.Error(t, err)
	tenant.integrations.AssertNotCalled(t, "AdvanceLastSync", mock.Anything, mock.Anything, mock.Anything)
}

func TestAcresSync_InactiveIntegrationNoops(t *testing.T) {
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).Return(nil, nil)

	client := &fakeAcresClient{}
	adapter := NewAcresAdapter(client, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	res, err := adapter.Sync(context.Background(), tenant, time.Now())

	assert.NoError(t, err)
	assert.Equal(t, 0, res.LeadsProcessed)
	assert.Equal(t, 0, client.calls)
}

func TestAcresSync_EmptyWindowSkipsFetch(t *testing.T) {
	now := time.Now()
	tenant := newFakeTenant()
	tenant.integrations.On("ActiveBySource", mock.Anything, models.SourceAcres99).
		Return(&models.IntegrationAccount{IsActive: true, LastSync: now}, nil)

	client := &fakeAcresClient{}
	adapter := NewAcresAdapter(client, 6*time.Hour, 7*24*time.Hour, logger.Nop())

	res, err := adapter.Sync(context.Background(), tenant, now)

	assert.NoError(t, err)
	assert.Equal(t, 0, res.LeadsProcessed)
	assert.Equal(t, 0, client.calls)
}
