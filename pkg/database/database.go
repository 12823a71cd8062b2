package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bharathj0410/leadrabbit/pkg/domain"
)

// Client wraps the process-wide MongoDB connection pool. Connections are
// established lazily on first operation; a constructed Client is not a
// guarantee the server is reachable, so consumers must treat operation
// failures as DatabaseUnavailable rather than assuming connection success.
type Client struct {
	mongo *mongo.Client
}

// NewClient creates the MongoDB client. It fails fast only on configuration
// problems (empty or malformed URI), not on an unreachable server.
func NewClient(uri string) (*Client, error) {
	if uri == "" {
		return nil, domain.NewDatabaseUnavailableError(nil)
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetMaxPoolSize(50))
	if err != nil {
		return nil, domain.NewDatabaseUnavailableError(err)
	}

	return &Client{mongo: client}, nil
}

// Ping verifies the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.mongo.Ping(ctx, nil); err != nil {
		return domain.NewDatabaseUnavailableError(err)
	}
	return nil
}

// Database returns a handle on the named database.
func (c *Client) Database(name string) *mongo.Database {
	return c.mongo.Database(name)
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.mongo.Disconnect(ctx)
}
