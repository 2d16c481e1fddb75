package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertFind(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", now)))

	s, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.ValidationToken)
	assert.False(t, s.EmailValidated)

	_, err = r.Find(ctx, "b@x.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestInsert_Duplicate(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "t1", time.Now())))
	err := r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "t2", time.Now()))
	assert.True(t, errors.Is(err, domain.ErrDuplicateKey))
}

func TestInsert_ConcurrentSameEmailOnlyOneWins(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "t", time.Now())); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, r.Len())
}

func TestFind_ReturnsCopy(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", time.Now())))

	s, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	s.ContentPreferences = append(s.ContentPreferences, "mutated")
	s.EmailValidated = true

	again, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, again.ContentPreferences)
	assert.False(t, again.EmailValidated)
}

func TestUpdateFields(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", created)))

	n, err := r.UpdateFields(ctx, "a@x.com", domain.Fields{
		domain.FieldContentPreferences: []string{"Go", "Science"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Science"}, s.ContentPreferences)
	assert.Equal(t, "tok", s.ValidationToken)
	assert.True(t, s.UpdatedAt.After(created))
	assert.Equal(t, created, s.SignupDate)
}

func TestUpdateFields_NilRemoves(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", time.Now())))

	_, err := r.UpdateFields(ctx, "a@x.com", domain.Fields{
		domain.FieldValidationToken: nil,
		domain.FieldTokenCreatedAt:  nil,
	})
	require.NoError(t, err)
	s, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, s.ValidationToken)
	assert.Nil(t, s.TokenCreatedAt)
}

func TestUpdateFields_Missing(t *testing.T) {
	n, err := NewSubscriberRepo().UpdateFields(context.Background(), "a@x.com", domain.Fields{
		domain.FieldContentPreferences: []string{"Go"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestUpdateFields_ImmutableField(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", time.Now())))
	_, err := r.UpdateFields(ctx, "a@x.com", domain.Fields{domain.FieldSignupDate: time.Now()})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestMarkValidated_OnlyOnce(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber("a@x.com", "tok", time.Now())))

	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	ok, err := r.MarkValidated(ctx, "a@x.com", at)
	require.NoError(t, err)
	assert.True(t, ok)

	s, err := r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, s.EmailValidated)
	assert.Empty(t, s.ValidationToken)
	assert.Nil(t, s.TokenCreatedAt)
	require.NotNil(t, s.ValidationDate)
	assert.Equal(t, at, *s.ValidationDate)

	ok, err = r.MarkValidated(ctx, "a@x.com", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	s, err = r.Find(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, at, *s.ValidationDate)
}

func TestMarkValidated_Missing(t *testing.T) {
	ok, err := NewSubscriberRepo().MarkValidated(context.Background(), "a@x.com", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteAndScan(t *testing.T) {
	r := NewSubscriberRepo()
	ctx := context.Background()
	for _, e := range []string{"c@x.com", "a@x.com", "b@x.com"} {
		require.NoError(t, r.Insert(ctx, domain.NewPendingSubscriber(e, "t", time.Now())))
	}
	require.NoError(t, r.Delete(ctx, "b@x.com"))

	all, err := r.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a@x.com", all[0].Email)
	assert.Equal(t, "c@x.com", all[1].Email)
}
