package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// LeadRepository defines data access operations on a tenant's lead collection.
// Every mutating call takes an OwnerScope; a non-admin scope restricts the
// match to leads assigned to that actor, so zero matches covers both "absent"
// and "not owned".
type LeadRepository interface {
	Insert(ctx context.Context, lead *models.Lead) error
	FindByID(ctx context.Context, id bson.ObjectID, scope models.OwnerScope) (*models.Lead, error)
	FindByExternalID(ctx context.Context, source, externalQueryID string) (*models.Lead, error)
	List(ctx context.Context, f models.LeadFilter) ([]models.Lead, int64, error)
	SetStatus(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, status models.LeadStatus) (int64, error)
	AppendEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error)
	UpdateEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, e models.Engagement) (*models.Lead, error)
	RemoveEngagement(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, engagementID string) (*models.Lead, error)
	AppendMeeting(ctx context.Context, id bson.ObjectID, scope models.OwnerScope, m models.Meeting) (*models.Lead, error)
	Assign(ctx context.Context, id bson.ObjectID, agentEmail string) (int64, error)
}

// UserRepository defines data access operations on a tenant's users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
	SetOnline(ctx context.Context, email string, online bool) error
	Heartbeat(ctx context.Context, email string) error
	ToggleFavorite(ctx context.Context, email string, leadID bson.ObjectID) (bool, error)
	SetGoogleCalendar(ctx context.Context, email string, gc *models.GoogleCalendar) error
	ListAgents(ctx context.Context) ([]models.User, error)
}

// IntegrationRepository defines access to a tenant's polled-source accounts.
type IntegrationRepository interface {
	ActiveBySource(ctx context.Context, source string) (*models.IntegrationAccount, error)
	List(ctx context.Context) ([]models.IntegrationAccount, error)
	SetActive(ctx context.Context, id bson.ObjectID, active bool) error
	AdvanceLastSync(ctx context.Context, id bson.ObjectID, ts time.Time) error
}

// CustomerRegistry defines lookups against the super-admin tenant registry.
type CustomerRegistry interface {
	FindByWebhookID(ctx context.Context, source, webhookID string) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
}

// TenantStore is an open handle on one tenant's database.
type TenantStore interface {
	Name() string
	Leads() LeadRepository
	Users() UserRepository
	Integrations() IntegrationRepository
}

// EventCreator creates calendar events on behalf of a connected user.
type EventCreator interface {
	CreateEvent(ctx context.Context, tenant TenantStore, user *models.User, req models.CalendarEventRequest) (*models.CalendarEventResult, error)
}
