package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

func newTestStore(t *testing.T) (*RecordStore, *DB) {
	t.Helper()
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRecordStore(db), db
}

func record(annotated string, lastModified int64) *domain.PersistedRecord {
	return &domain.PersistedRecord{
		Annotated:    annotated,
		Paragraphs:   []string{annotated},
		LastModified: lastModified,
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestOpen_Persistent(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	store := NewRecordStore(db)
	require.NoError(t, store.Put(context.Background(), "pt1,passage1", record("<p>a</p>", 1)))
	require.NoError(t, db.Close())

	db, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()

	rec, err := NewRecordStore(db).Get(context.Background(), "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", rec.Annotated)
}

func TestRecordStore_PutGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "pt1,passage1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.Put(ctx, "pt1,passage1", record("<p>a</p>", 10)))

	rec, err := store.Get(ctx, "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, record("<p>a</p>", 10), rec)
}

func TestRecordStore_LastWriterWins(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "pt1,passage1", record("<p>new</p>", 20)))

	err := store.Put(ctx, "pt1,passage1", record("<p>old</p>", 10))
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	rec, err := store.Get(ctx, "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, "<p>new</p>", rec.Annotated)

	require.NoError(t, store.Put(ctx, "pt1,passage1", record("<p>newer</p>", 30)))
	rec, err = store.Get(ctx, "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, "<p>newer</p>", rec.Annotated)
}

func TestRecordStore_ConcurrentPutsKeepNewest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(lm int64) {
			defer wg.Done()
			_ = store.Put(ctx, "pt1,passage1", record(fmt.Sprintf("<p>%d</p>", lm), lm))
		}(int64(i))
	}
	wg.Wait()

	rec, err := store.Get(ctx, "pt1,passage1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), rec.LastModified)
}

func TestRecordStore_ListDelete(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	// Keys outside the record prefix are not records
	require.NoError(t, db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("other_key"), []byte("x"))
	}))
	for _, id := range []string{"pt2,passage1", "pt1,passage2", "pt1,passage1"} {
		require.NoError(t, store.Put(ctx, id, record("<p>x</p>", 1)))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pt1,passage1", "pt1,passage2", "pt2,passage1"}, ids)

	require.NoError(t, store.Delete(ctx, "pt1,passage2"))
	_, err = store.Get(ctx, "pt1,passage2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("other_key"))
		return err
	}))
}

func TestRecordStore_Ping(t *testing.T) {
	store, db := newTestStore(t)

	assert.NoError(t, store.Ping(context.Background()))
	require.NoError(t, db.DB.Close())
	assert.Error(t, store.Ping(context.Background()))
}
