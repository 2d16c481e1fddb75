// Command export writes every subscriber to S3 as one JSON-lines object.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/go-newsletter-signup/internal/application/export"
	"github.com/go-newsletter-signup/internal/config"
	s3infra "github.com/go-newsletter-signup/internal/infrastructure/s3"
	"github.com/go-newsletter-signup/internal/infrastructure/storage"
)

func main() {
	presign := flag.Duration("presign", 0, "also print a presigned download URL valid for this long (0 disables)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for the export")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, reading from environment")
	}
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, *presign); err != nil {
		slog.Error("export failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, presign time.Duration) error {
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore(context.Background()) }()

	client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	objects := s3infra.NewStore(client, cfg.S3BucketName)

	rep, err := export.NewService(store, objects, cfg.S3ExportPrefix).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d subscribers (%d validated, %d pending) to %s\n",
		rep.Total, rep.Validated, rep.Pending, rep.Location)

	if presign > 0 {
		u, err := objects.PresignedURL(ctx, rep.Key, presign)
		if err != nil {
			return err
		}
		fmt.Println(u)
	}
	return nil
}
