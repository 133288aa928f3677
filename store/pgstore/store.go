package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/session/core/session"
)

const defaultTableName = "sessions"

const createRetries = 8

// ErrInvalidTableName is returned when the configured table name contains
// characters outside [a-zA-Z0-9_.].
var ErrInvalidTableName = errors.New("pgstore: invalid table name")

var tableNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)?$`)

// DB is the subset of pgxpool.Pool the store depends on. It is satisfied by
// *pgxpool.Pool, *pgx.Conn, and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists session records in a PostgreSQL table.
type Store struct {
	db    DB
	table string
}

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides the "sessions" table name. An optional schema
// qualifier is allowed ("app.sessions").
func WithTableName(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// New creates a PostgreSQL-backed session store.
func New(db DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:    db,
		table: defaultTableName,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNameRe.MatchString(s.table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, s.table)
	}
	return s, nil
}

// Migrate creates the session table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			expires_at TIMESTAMPTZ
		)`, s.table)
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

// Save upserts the record under its ID.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return errors.Join(session.ErrEncode, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		s.table)
	if _, err := s.db.Exec(ctx, query, rec.ID.String(), data, expiresAtParam(rec)); err != nil {
		return fmt.Errorf("pgstore: save: %w", err)
	}
	return nil
}

// Create inserts the record only if its ID is vacant, regenerating the ID on
// collision. The record's ID field reflects the ID actually used.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return errors.Join(session.ErrEncode, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, s.table)

	for range createRetries {
		tag, err := s.db.Exec(ctx, query, rec.ID.String(), data, expiresAtParam(rec))
		if err != nil {
			return fmt.Errorf("pgstore: create: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		id, err := session.NewID()
		if err != nil {
			return err
		}
		rec.ID = id
	}
	return session.ErrIDCollision
}

// Load fetches the record for the given ID. Both a missing row and an expired
// one yield (nil, nil).
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	query := fmt.Sprintf(`
		SELECT data, expires_at FROM %s
		WHERE id = $1 AND (expires_at IS NULL OR expires_at > now())`, s.table)

	var (
		data      []byte
		expiresAt *time.Time
	)
	err := s.db.QueryRow(ctx, query, id.String()).Scan(&data, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: load: %w", err)
	}

	rec := session.Record{ID: id}
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return nil, errors.Join(session.ErrDecode, err)
	}
	if expiresAt != nil {
		rec.ExpiresAt = *expiresAt
	}
	return &rec, nil
}

// Delete removes the record. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table)
	if _, err := s.db.Exec(ctx, query, id.String()); err != nil {
		return fmt.Errorf("pgstore: delete: %w", err)
	}
	return nil
}

// DeleteExpired removes every record whose deadline has passed.
func (s *Store) DeleteExpired(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= now()`, s.table)
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("pgstore: delete expired: %w", err)
	}
	return nil
}

// expiresAtParam maps the zero deadline to SQL NULL.
func expiresAtParam(rec *session.Record) *time.Time {
	if rec.ExpiresAt.IsZero() {
		return nil
	}
	t := rec.ExpiresAt
	return &t
}
