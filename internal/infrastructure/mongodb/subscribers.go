package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-newsletter-signup/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriberRepo stores subscribers in one collection with a unique index on email.
type SubscriberRepo struct {
	conn       *Client
	collection string
	now        func() time.Time

	indexMu sync.Mutex
	indexed bool
}

func NewSubscriberRepo(conn *Client, collection string) *SubscriberRepo {
	return &SubscriberRepo{conn: conn, collection: collection, now: time.Now}
}

// EnsureIndexes creates the unique email index Insert relies on. Insert
// calls it too, so a server that was down at startup still gets the index.
func (r *SubscriberRepo) EnsureIndexes(ctx context.Context) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	return r.ensureIndex(ctx, coll)
}

func (r *SubscriberRepo) ensureIndex(ctx context.Context, coll *mongo.Collection) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()
	if r.indexed {
		return nil
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: domain.FieldEmail, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	r.indexed = true
	return nil
}

func (r *SubscriberRepo) Find(ctx context.Context, email string) (*domain.Subscriber, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}
	var s domain.Subscriber
	err = coll.FindOne(ctx, bson.M{domain.FieldEmail: email}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("subscriber not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber: %w", err)
	}
	return &s, nil
}

func (r *SubscriberRepo) Insert(ctx context.Context, s *domain.Subscriber) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	if err := r.ensureIndex(ctx, coll); err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, s)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("subscriber %s: %w", s.Email, domain.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// UpdateFields sets non-nil fields, unsets nil ones, and stamps updated_at.
func (r *SubscriberRepo) UpdateFields(ctx context.Context, email string, fields domain.Fields) (int64, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return 0, err
	}
	set := bson.M{domain.FieldUpdatedAt: r.now().UTC()}
	unset := bson.M{}
	for k, v := range fields {
		if v == nil {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := coll.UpdateOne(ctx, bson.M{domain.FieldEmail: email}, update)
	if err != nil {
		return 0, fmt.Errorf("update subscriber: %w", err)
	}
	return res.MatchedCount, nil
}

// MarkValidated flips a pending record in one filtered update.
func (r *SubscriberRepo) MarkValidated(ctx context.Context, email string, at time.Time) (bool, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}
	res, err := coll.UpdateOne(ctx,
		bson.M{domain.FieldEmail: email, domain.FieldEmailValidated: false},
		bson.M{
			"$set": bson.M{
				domain.FieldEmailValidated: true,
				domain.FieldValidationDate: at,
				domain.FieldUpdatedAt:      at,
			},
			"$unset": bson.M{
				domain.FieldValidationToken: "",
				domain.FieldTokenCreatedAt:  "",
			},
		},
	)
	if err != nil {
		return false, fmt.Errorf("mark validated: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *SubscriberRepo) Delete(ctx context.Context, email string) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	if _, err := coll.DeleteOne(ctx, bson.M{domain.FieldEmail: email}); err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}

// Scan returns every subscriber ordered by email.
func (r *SubscriberRepo) Scan(ctx context.Context) ([]domain.Subscriber, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: domain.FieldEmail, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("scan subscribers: %w", err)
	}
	var subs []domain.Subscriber
	if err := cur.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decode subscribers: %w", err)
	}
	return subs, nil
}

func (r *SubscriberRepo) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func (r *SubscriberRepo) coll(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(r.collection), nil
}
