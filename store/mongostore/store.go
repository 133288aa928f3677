package mongostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/session/core/session"
)

const defaultCollectionName = "sessions"

const createRetries = 8

// Store persists session records in a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

type config struct {
	collection string
}

// Option configures a Store.
type Option func(*config)

// WithCollectionName overrides the "sessions" collection name.
func WithCollectionName(name string) Option {
	return func(c *config) {
		c.collection = name
	}
}

// New creates a MongoDB-backed session store on the given database.
func New(db *mongo.Database, opts ...Option) *Store {
	cfg := config{collection: defaultCollectionName}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{coll: db.Collection(cfg.collection)}
}

// EnsureTTLIndex creates the TTL index that lets MongoDB evict expired
// records on its own. Eviction runs on the server's background sweep cycle
// (roughly once a minute), so reads still filter by deadline.
func (s *Store) EnsureTTLIndex(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("mongostore: ensure ttl index: %w", err)
	}
	return nil
}

type sessionDoc struct {
	ID        string     `bson:"_id"`
	Data      []byte     `bson:"data"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

func toDoc(rec *session.Record) (*sessionDoc, error) {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return nil, errors.Join(session.ErrEncode, err)
	}
	doc := &sessionDoc{ID: rec.ID.String(), Data: data}
	if !rec.ExpiresAt.IsZero() {
		t := rec.ExpiresAt
		doc.ExpiresAt = &t
	}
	return doc, nil
}

// Save upserts the record under its ID.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	doc, err := toDoc(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongostore: save: %w", err)
	}
	return nil
}

// Create inserts the record only if its ID is vacant, regenerating the ID on
// a duplicate key error. The record's ID field reflects the ID actually used.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	for range createRetries {
		doc, err := toDoc(rec)
		if err != nil {
			return err
		}
		if _, err := s.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				id, err := session.NewID()
				if err != nil {
					return err
				}
				rec.ID = id
				continue
			}
			return fmt.Errorf("mongostore: create: %w", err)
		}
		return nil
	}
	return session.ErrIDCollision
}

// Load fetches the record for the given ID. Both a missing document and an
// expired one yield (nil, nil): the TTL sweeper only runs periodically, so
// the deadline is enforced in the query as well.
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	filter := bson.M{
		"_id": id.String(),
		"$or": bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": bson.M{"$gt": time.Now()}},
		},
	}

	var doc sessionDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore: load: %w", err)
	}

	rec := session.Record{ID: id}
	if err := json.Unmarshal(doc.Data, &rec.Data); err != nil {
		return nil, errors.Join(session.ErrDecode, err)
	}
	if doc.ExpiresAt != nil {
		rec.ExpiresAt = *doc.ExpiresAt
	}
	return &rec, nil
}

// Delete removes the record. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("mongostore: delete: %w", err)
	}
	return nil
}

// DeleteExpired removes every record whose deadline has passed.
func (s *Store) DeleteExpired(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	if err != nil {
		return fmt.Errorf("mongostore: delete expired: %w", err)
	}
	return nil
}
