package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Client owns the process-wide MongoDB connection. It connects on first use;
// a failed attempt is reported as *domain.UnavailableError and the next
// caller tries again.
type Client struct {
	uri    string
	dbName string

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewClient prepares a Client without dialing.
func NewClient(uri, dbName string) *Client {
	return &Client{uri: uri, dbName: dbName}
}

// NewFromClient wraps an already connected driver client.
func NewFromClient(c *mongo.Client, dbName string) *Client {
	return &Client{dbName: dbName, client: c, db: c.Database(dbName)}
}

// Database returns the connected database handle.
func (c *Client) Database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return c.db, nil
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(c.uri))
	if err != nil {
		return nil, &domain.UnavailableError{Backend: "mongodb", Err: err}
	}
	if err := mc.Ping(ctx, readpref.Primary()); err != nil {
		_ = mc.Disconnect(context.Background())
		slog.Error("MongoDB connection failed", "err", err)
		return nil, &domain.UnavailableError{Backend: "mongodb", Err: err}
	}
	slog.Info("MongoDB connection successful", "database", c.dbName)
	c.client = mc
	c.db = mc.Database(c.dbName)
	return c.db, nil
}

// Ping round-trips to the primary.
func (c *Client) Ping(ctx context.Context) error {
	db, err := c.Database(ctx)
	if err != nil {
		return err
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return &domain.UnavailableError{Backend: "mongodb", Err: err}
	}
	return nil
}

// Close disconnects if a connection was made.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client, c.db = nil, nil
	if err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}
