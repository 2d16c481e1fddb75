package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-newsletter-signup/internal/application/subscription"
	"github.com/go-newsletter-signup/internal/config"
	"github.com/go-newsletter-signup/internal/transport/http/handler"
	appmiddleware "github.com/go-newsletter-signup/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	svc := subscription.NewService(subscription.ServiceDeps{
		Store:       deps.SubscriberRepo,
		Codec:       deps.Codec,
		Mail:        deps.Mail,
		Events:      deps.Events,
		Metrics:     deps.Metrics,
		TokenMaxAge: cfg.TokenMaxAge,
	})

	pageH, err := handler.NewPageHandler(svc, deps.Site)
	if err != nil {
		return nil, err
	}
	subH := handler.NewSubscriptionHandler(svc)
	healthH := handler.NewHealthHandler(deps.SubscriberRepo)

	r.Get("/", pageH.Index)
	r.Get("/validate/{token}", pageH.Validate)
	r.Get("/health", healthH.Check)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RequireForm)
		r.Post("/submit_email", subH.SubmitEmail)
		r.Post("/submit_survey", subH.SubmitSurvey)
	})

	return r, nil
}
