package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Customer is a registry entry mapping a tenant to its database and the
// webhook ids its lead sources push to. Stored in the super-admin registry
// database, never inside a tenant database.
type Customer struct {
	ID           bson.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	CustomerName string            `json:"customer_name" bson:"customer_name"`
	DatabaseName string            `json:"database_name" bson:"database_name"`
	Webhooks     map[string]string `json:"webhooks,omitempty" bson:"webhooks,omitempty"` // source -> webhook id
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
}
