// Package tenant resolves customer identifiers to tenant database handles.
package tenant

import (
	"context"

	"github.com/bharathj0410/leadrabbit/pkg/database"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
	"github.com/bharathj0410/leadrabbit/pkg/store"
)

// Directory maps webhook ids and token claims to tenant databases.
type Directory struct {
	db        *database.Client
	registry  domain.CustomerRegistry
	defaultDB string
}

// NewDirectory creates a tenant directory backed by the customer registry.
// defaultDB is the single-tenant fallback database name used when token
// claims carry no tenant reference (pre-multitenancy deployments).
func NewDirectory(db *database.Client, registry domain.CustomerRegistry, defaultDB string) *Directory {
	return &Directory{
		db:        db,
		registry:  registry,
		defaultDB: defaultDB,
	}
}

// ResolveByWebhookID resolves the tenant whose registered webhook id for the
// given source matches exactly. A miss is NotFound, never a fallback tenant:
// defaulting here would write one customer's leads into another's database.
func (d *Directory) ResolveByWebhookID(ctx context.Context, source, webhookID string) (*store.Tenant, *models.Customer, error) {
	if webhookID == "" {
		return nil, nil, domain.NewNotFoundError("webhook")
	}

	customer, err := d.registry.FindByWebhookID(ctx, source, webhookID)
	if err != nil {
		return nil, nil, err
	}
	if customer == nil {
		return nil, nil, domain.NewNotFoundError("webhook")
	}

	return store.NewTenant(d.db.Database(customer.DatabaseName)), customer, nil
}

// ResolveByName opens a tenant database by name, falling back to the
// configured single-tenant default when the name is empty.
func (d *Directory) ResolveByName(name string) *store.Tenant {
	if name == "" {
		name = d.defaultDB
	}
	return store.NewTenant(d.db.Database(name))
}

// All returns a tenant handle for every registered customer, used by the
// polling sync job to fan out across tenants.
func (d *Directory) All(ctx context.Context) ([]*store.Tenant, error) {
	customers, err := d.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	tenants := make([]*store.Tenant, 0, len(customers))
	for _, c := range customers {
		tenants = append(tenants, store.NewTenant(d.db.Database(c.DatabaseName)))
	}
	return tenants, nil
}
