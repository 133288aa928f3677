package memstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/session/core/session"
	"github.com/dmitrymomot/session/store/memstore"
)

func newRecord(t *testing.T, expiresAt time.Time) *session.Record {
	t.Helper()
	id, err := session.NewID()
	require.NoError(t, err)
	return &session.Record{
		ID:        id,
		Data:      map[string]json.RawMessage{"user_id": json.RawMessage(`42`)},
		ExpiresAt: expiresAt,
	}
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	rec := newRecord(t, time.Time{})
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.ID, got.ID)
	assert.JSONEq(t, `42`, string(got.Data["user_id"]))
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	rec := newRecord(t, time.Time{})
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, rec.ID)
	require.NoError(t, err)
	got.Data["user_id"] = json.RawMessage(`"tampered"`)

	again, err := store.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `42`, string(again.Data["user_id"]), "stored record must be isolated from callers")
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := memstore.New()

	id, err := session.NewID()
	require.NoError(t, err)

	got, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_LoadExpired(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	rec := newRecord(t, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "expired records are functionally absent")
}

func TestStore_CreateRegeneratesOnCollision(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	first := newRecord(t, time.Time{})
	require.NoError(t, store.Create(ctx, first))

	second := newRecord(t, time.Time{})
	second.ID = first.ID
	require.NoError(t, store.Create(ctx, second))

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, store.Len())
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	rec := newRecord(t, time.Time{})
	require.NoError(t, store.Save(ctx, rec))
	require.NoError(t, store.Delete(ctx, rec.ID))

	got, err := store.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Idempotent.
	require.NoError(t, store.Delete(ctx, rec.ID))
}

func TestStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	store := memstore.New()
	ctx := context.Background()

	expired := newRecord(t, time.Now().Add(-time.Minute))
	live := newRecord(t, time.Now().Add(time.Hour))
	eternal := newRecord(t, time.Time{})
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, eternal))

	require.NoError(t, store.DeleteExpired(ctx))
	assert.Equal(t, 2, store.Len())

	got, err := store.Load(ctx, eternal.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "records without expiry must survive the sweep")
}
