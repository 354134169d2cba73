package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

// connectTestDB connects to the database named by PASSAGE_TEST_DATABASE_URL,
// skipping the test when it is not set.
func connectTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("PASSAGE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PASSAGE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, DefaultConfig(url))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM annotation_records")
		_, _ = db.ExecContext(ctx, "DELETE FROM session_leases")
		_ = db.Close()
	})
	return db
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{URL: "postgres://localhost/passage", MaxOpenConns: 4}.withDefaults()
	assert.Equal(t, "postgres://localhost/passage", cfg.URL)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 2, cfg.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, time.Minute, cfg.ConnMaxIdleTime)
}

func TestRecordStore(t *testing.T) {
	db := connectTestDB(t)
	store := NewRecordStore(db)
	ctx := context.Background()

	_, err := store.Get(ctx, "pt1,passage1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rec := &domain.PersistedRecord{
		Annotated:    "<p>Alpha bravo.</p><p>Charlie delta.</p>",
		Paragraphs:   []string{"<p>Alpha bravo.</p>", "<p>Charlie delta.</p>"},
		LastModified: 200,
	}
	require.NoError(t, store.Put(ctx, "pt1,passage1", rec))

	got, err := store.Get(ctx, "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	err = store.Put(ctx, "pt1,passage1", &domain.PersistedRecord{Annotated: "<p>old</p>", LastModified: 100})
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	require.NoError(t, store.Put(ctx, "pt1,passage2", &domain.PersistedRecord{Annotated: "<p>x</p>", LastModified: 1}))
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pt1,passage1", "pt1,passage2"}, ids)

	require.NoError(t, store.Delete(ctx, "pt1,passage2"))
	n, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLeaseLock(t *testing.T) {
	db := connectTestDB(t)
	a := NewLeaseLock(db)
	b := NewLeaseLock(db)
	ctx := context.Background()

	ok, err := a.Acquire(ctx, "session:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Acquire(ctx, "session:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "holder renews its own lease")

	ok, err = b.Acquire(ctx, "session:s1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Error(t, b.Extend(ctx, "session:s1", time.Minute))

	require.NoError(t, b.Release(ctx, "session:s1"))
	assert.NoError(t, a.Extend(ctx, "session:s1", time.Minute), "release by another owner is ignored")

	require.NoError(t, a.Release(ctx, "session:s1"))
	ok, err = b.Acquire(ctx, "session:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
