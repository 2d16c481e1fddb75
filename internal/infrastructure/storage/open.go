// Package storage builds the subscriber store selected by STORE_DRIVER.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-newsletter-signup/internal/application/subscription"
	"github.com/go-newsletter-signup/internal/config"
	"github.com/go-newsletter-signup/internal/domain"
	"github.com/go-newsletter-signup/internal/infrastructure/dynamo"
	"github.com/go-newsletter-signup/internal/infrastructure/memory"
	"github.com/go-newsletter-signup/internal/infrastructure/mongodb"
)

const mongoCollection = "subscribers"

// Repository is the full subscriber store surface the binaries use.
type Repository interface {
	subscription.SubscriberStore
	Scan(ctx context.Context) ([]domain.Subscriber, error)
	Ping(ctx context.Context) error
}

// Open constructs the configured store. The returned close function releases
// the backend connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Repository, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.StoreDriver {
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoSubscribersTbl)
		slog.Info("subscriber store ready", "driver", cfg.StoreDriver, "table", cfg.DynamoSubscribersTbl)
		return dynamo.NewSubscriberRepo(client, cfg.DynamoSubscribersTbl), noop, nil

	case config.StoreMongo:
		conn := mongodb.NewClient(cfg.MongoURI, cfg.DatabaseName)
		repo := mongodb.NewSubscriberRepo(conn, mongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			if !errors.Is(err, domain.ErrUnavailable) {
				return nil, conn.Close, err
			}
			// Requests report the outage; the index is created on the first insert.
			slog.Warn("MongoDB not reachable at startup", "err", err)
		}
		slog.Info("subscriber store ready", "driver", cfg.StoreDriver, "database", cfg.DatabaseName)
		return repo, conn.Close, nil

	case config.StoreMemory:
		slog.Warn("using in-memory subscriber store; data is lost on exit")
		return memory.NewSubscriberRepo(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
