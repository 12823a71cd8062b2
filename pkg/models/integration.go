package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// IntegrationAccount holds a tenant's credentials for a polled lead source
// (e.g. 99acres). LastSync is the watermark bounding the next poll window;
// it advances only after a window is processed without error.
type IntegrationAccount struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Source    string        `json:"source" bson:"source"`
	Username  string        `json:"username" bson:"username"`
	Password  string        `json:"-" bson:"password"`
	IsActive  bool          `json:"is_active" bson:"is_active"`
	LastSync  time.Time     `json:"last_sync,omitempty" bson:"last_sync,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}
