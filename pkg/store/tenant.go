// Package store implements the MongoDB persistence layer. One Tenant wraps
// one customer database; isolation between customers is purely the database
// name, so no collection here is ever shared across tenants.
package store

import (
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
)

// Collection names within a tenant database.
const (
	collLeads        = "leads"
	collUsers        = "users"
	collIntegrations = "integration_accounts"
)

// Tenant is an open handle on one customer's database.
type Tenant struct {
	db *mongo.Database
}

// NewTenant wraps a tenant database handle.
func NewTenant(db *mongo.Database) *Tenant {
	return &Tenant{db: db}
}

// Name returns the tenant database name.
func (t *Tenant) Name() string {
	return t.db.Name()
}

// Leads returns the tenant's lead repository.
func (t *Tenant) Leads() domain.LeadRepository {
	return &leadRepo{coll: t.db.Collection(collLeads)}
}

// Users returns the tenant's user repository.
func (t *Tenant) Users() domain.UserRepository {
	return &userRepo{coll: t.db.Collection(collUsers)}
}

// Integrations returns the tenant's integration-account repository.
func (t *Tenant) Integrations() domain.IntegrationRepository {
	return &integrationRepo{coll: t.db.Collection(collIntegrations)}
}
