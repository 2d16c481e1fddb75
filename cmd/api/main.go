package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/go-newsletter-signup/internal/application/mailing"
	"github.com/go-newsletter-signup/internal/config"
	"github.com/go-newsletter-signup/internal/infrastructure/mailgun"
	"github.com/go-newsletter-signup/internal/infrastructure/smtp"
	"github.com/go-newsletter-signup/internal/infrastructure/sns"
	"github.com/go-newsletter-signup/internal/infrastructure/storage"
	"github.com/go-newsletter-signup/internal/pkg/metrics"
	"github.com/go-newsletter-signup/internal/pkg/token"
	transporthttp "github.com/go-newsletter-signup/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from environment")
	}

	cfg := config.Load()
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	site, err := config.LoadSite(cfg.SiteConfigPath)
	if err != nil {
		return err
	}
	if cfg.SecretKey == config.DefaultSecretKey && cfg.IsProduction() {
		slog.Warn("SECRET_KEY is the development default; validation links are forgeable")
	}

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(context.Background()); err != nil {
			slog.Warn("close subscriber store", "err", err)
		}
	}()

	codec, err := token.NewEmailValidation([]byte(cfg.SecretKey))
	if err != nil {
		return err
	}

	mailer, err := newMailer(cfg, site)
	if err != nil {
		return err
	}
	dispatcher, err := mailing.NewDispatcher(mailer, site, cfg.PublicBaseURL, cfg.TokenMaxAge)
	if err != nil {
		return err
	}

	// Lifecycle events are optional; without a topic nothing is published.
	var events transporthttp.EventPublisher
	if cfg.SNSTopicARN != "" {
		client, err := sns.NewClient(ctx, cfg)
		if err != nil {
			slog.Warn("SNS publisher not available", "err", err)
		} else {
			events = sns.NewPublisher(client, cfg.SNSTopicARN)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, err := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		SubscriberRepo: store,
		Codec:          codec,
		Mail:           dispatcher,
		Events:         events,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Site:           site,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", srv.Addr, "env", cfg.AppEnv, "store", cfg.StoreDriver, "mail", cfg.MailDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func newMailer(cfg *config.Config, site *config.Site) (mailing.Mailer, error) {
	switch cfg.MailDriver {
	case config.MailSMTP:
		return smtp.NewMailer(cfg, site.SenderName), nil
	case config.MailMailgun:
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" {
			return nil, errors.New("MAIL_DRIVER=mailgun requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		return mailgun.NewMailer(cfg, site.SenderName), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_DRIVER %q", cfg.MailDriver)
	}
}
