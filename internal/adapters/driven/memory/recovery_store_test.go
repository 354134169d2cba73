package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

func TestRecoveryStore_SaveLoadDelete(t *testing.T) {
	store := NewRecoveryStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	snap := &domain.RecoverySnapshot{SessionID: "s1", Subject: "Reading Comprehension"}
	require.NoError(t, store.Save(ctx, snap, time.Hour))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, store.Ping(ctx))
}

func TestRecoveryStore_Expiry(t *testing.T) {
	store := NewRecoveryStore()
	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &domain.RecoverySnapshot{SessionID: "s1"}, time.Minute))
	require.NoError(t, store.Save(ctx, &domain.RecoverySnapshot{SessionID: "s2"}, time.Hour))

	now = now.Add(2 * time.Minute)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Load(ctx, "s2")
	assert.NoError(t, err)

	// Saving sweeps expired entries
	now = now.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, &domain.RecoverySnapshot{SessionID: "s3"}, time.Hour))
	assert.Len(t, store.entries, 1)
}

func TestRecoveryStore_RequiresSession(t *testing.T) {
	err := NewRecoveryStore().Save(context.Background(), &domain.RecoverySnapshot{}, time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
