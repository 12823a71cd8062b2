package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

const collCustomers = "customers"

// Registry is the super-admin customer registry, kept in its own database
// apart from every tenant database.
type Registry struct {
	coll *mongo.Collection
}

// NewRegistry wraps the registry database.
func NewRegistry(db *mongo.Database) *Registry {
	return &Registry{coll: db.Collection(collCustomers)}
}

// FindByWebhookID resolves a customer by an exact match on the webhook id
// registered for the given source. No match is (nil, nil); there is no
// default-tenant fallback here, a miss must surface as 404 upstream.
func (r *Registry) FindByWebhookID(ctx context.Context, source, webhookID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.coll.FindOne(ctx, bson.M{"webhooks." + source: webhookID}).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return &customer, nil
}

// List returns every registered customer.
func (r *Registry) List(ctx context.Context) ([]models.Customer, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	defer cursor.Close(ctx)

	customers := []models.Customer{}
	if err := cursor.All(ctx, &customers); err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}
	return customers, nil
}
