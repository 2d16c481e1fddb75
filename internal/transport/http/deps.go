package http

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-newsletter-signup/internal/application/mailing"
	"github.com/go-newsletter-signup/internal/application/subscription"
	"github.com/go-newsletter-signup/internal/config"
	"github.com/go-newsletter-signup/internal/domain"
	"github.com/go-newsletter-signup/internal/pkg/metrics"
	"github.com/go-newsletter-signup/internal/pkg/token"
)

// SubscriberRepository is what the router requires from a subscriber store.
type SubscriberRepository interface {
	subscription.SubscriberStore
	Ping(ctx context.Context) error
}

// EventPublisher receives lifecycle events after state changes.
type EventPublisher interface {
	Publish(ctx context.Context, e domain.Event) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	SubscriberRepo SubscriberRepository
	Codec          *token.Codec
	Mail           *mailing.Dispatcher
	Events         EventPublisher // optional
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Site           *config.Site
}
