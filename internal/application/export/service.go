// Package export writes a snapshot of all subscribers to object storage as
// JSON lines. Validation tokens are never exported.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
)

const contentType = "application/x-ndjson"

// SubscriberScanner lists every stored subscriber.
type SubscriberScanner interface {
	Scan(ctx context.Context) ([]domain.Subscriber, error)
}

// ObjectUploader stores one object and returns its location.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

// Report summarizes one export run.
type Report struct {
	Key       string
	Location  string
	Total     int
	Validated int
	Pending   int
}

// record is the exported shape of a subscriber.
type record struct {
	Email              string     `json:"email"`
	EmailValidated     bool       `json:"email_validated"`
	ContentPreferences []string   `json:"content_preferences"`
	SignupDate         time.Time  `json:"signup_date"`
	ValidationDate     *time.Time `json:"validation_date"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type Service struct {
	store    SubscriberScanner
	uploader ObjectUploader
	prefix   string
	now      func() time.Time
}

func NewService(store SubscriberScanner, uploader ObjectUploader, prefix string) *Service {
	return &Service{store: store, uploader: uploader, prefix: prefix, now: time.Now}
}

// Key returns the object key for an export taken at t.
func (s *Service) Key(t time.Time) string {
	return s.prefix + "subscribers-" + t.UTC().Format("20060102T150405Z") + ".jsonl"
}

// Run scans the store and uploads the snapshot.
func (s *Service) Run(ctx context.Context) (Report, error) {
	subs, err := s.store.Scan(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("scan subscribers: %w", err)
	}

	var (
		buf bytes.Buffer
		rep Report
	)
	enc := json.NewEncoder(&buf)
	for i := range subs {
		sub := &subs[i]
		prefs := sub.ContentPreferences
		if prefs == nil {
			prefs = []string{}
		}
		if err := enc.Encode(record{
			Email:              sub.Email,
			EmailValidated:     sub.EmailValidated,
			ContentPreferences: prefs,
			SignupDate:         sub.SignupDate,
			ValidationDate:     sub.ValidationDate,
			UpdatedAt:          sub.UpdatedAt,
		}); err != nil {
			return Report{}, fmt.Errorf("encode subscriber %s: %w", sub.Email, err)
		}
		rep.Total++
		if sub.EmailValidated {
			rep.Validated++
		} else {
			rep.Pending++
		}
	}

	rep.Key = s.Key(s.now())
	rep.Location, err = s.uploader.Upload(ctx, rep.Key, bytes.NewReader(buf.Bytes()), contentType)
	if err != nil {
		return Report{}, fmt.Errorf("upload export: %w", err)
	}
	slog.InfoContext(ctx, "subscriber export uploaded",
		"location", rep.Location,
		"total", rep.Total,
		"validated", rep.Validated,
		"pending", rep.Pending,
	)
	return rep, nil
}
