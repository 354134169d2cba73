package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
)

func TestPersistence_CommitWritesRecords(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	res := f.commit(t, "s1")

	assert.Equal(t, []string{passageID}, res.Written)
	assert.Empty(t, res.Stale)
	assert.True(t, res.OK())

	rec, err := f.persistence.Record(context.Background(), passageID)
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, rec.Annotated)
	require.Len(t, rec.Paragraphs, 2)
	assert.Contains(t, rec.Paragraphs[0], markOpen)
	assert.Equal(t, "<p>Charlie delta.</p>", rec.Paragraphs[1])
	assert.Positive(t, rec.LastModified)
}

func TestPersistence_CommitBoundary(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	ctx := context.Background()
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	_, err := f.persistence.Record(ctx, passageID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "mutation alone must not write through")

	f.commit(t, "s1")

	_, err = f.annotations.RemoveAnnotation(ctx, "s1", passageID, "0.1")
	require.NoError(t, err)

	rec, err := f.persistence.Record(ctx, passageID)
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, rec.Annotated, "prior record kept until the next commit")

	f.commit(t, "s1")
	rec, err = f.persistence.Record(ctx, passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, rec.Annotated)
}

func TestPersistence_CommitOutlivesCallerContext(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)

	ctx, cancel := context.WithCancel(context.Background())
	task, err := f.persistence.Commit(ctx, "s1")
	require.NoError(t, err)
	cancel()

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("commit did not finish")
	}
	res, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{passageID}, res.Written)
}

func TestPersistence_CommitUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.persistence.Commit(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPersistence_SupersededWritesDropped(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	ctx := context.Background()

	ws.Lock()
	pending, failed := f.bridge.capture(ws, ws.Store.IDs())
	ws.Unlock()
	require.Empty(t, failed)

	// The passage changes after the commit captured it.
	f.highlight(t, "s1", passageID, 6, 11)

	res := f.bridge.write(ctx, ws, pending)
	assert.Equal(t, []string{passageID}, res.Stale)
	assert.Empty(t, res.Written)
	assert.Zero(t, f.records.Puts[passageID])
}

func TestPersistence_WriteAfterResetDropped(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	ws.Lock()
	pending, _ := f.bridge.capture(ws, ws.Store.IDs())
	ws.Reset(f.clock.Now())
	ws.Unlock()

	res := f.bridge.write(context.Background(), ws, pending)
	assert.Equal(t, []string{passageID}, res.Stale)

	_, err := f.persistence.Record(context.Background(), passageID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "a reset must not be undone by an in-flight commit")
}

func TestPersistence_StoreKeepsNewerRecord(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	newer := &domain.PersistedRecord{
		Annotated:    bravoHighlighted,
		Paragraphs:   []string{"x"},
		LastModified: time.Now().Add(24 * time.Hour).UnixMilli(),
	}
	f.records.Seed(passageID, newer)

	res := f.commit(t, "s1")

	assert.Equal(t, []string{passageID}, res.Stale)
	rec, err := f.persistence.Record(context.Background(), passageID)
	require.NoError(t, err)
	assert.Equal(t, newer.LastModified, rec.LastModified)
}

func TestPersistence_FailuresAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.bind(t, "s1", 7, "pt1,passage2", "<p>Echo foxtrot.</p>")
	f.records.PutErr[passageID] = errors.New("disk full")
	failedBefore := testutil.ToFloat64(commitRecordsTotal.WithLabelValues("failed"))
	writtenBefore := testutil.ToFloat64(commitRecordsTotal.WithLabelValues("written"))

	res := f.commit(t, "s1")

	assert.Equal(t, []string{passageID}, res.Failed)
	assert.Equal(t, []string{"pt1,passage2"}, res.Written)
	assert.False(t, res.OK())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(commitRecordsTotal.WithLabelValues("failed")))
	assert.Equal(t, writtenBefore+1, testutil.ToFloat64(commitRecordsTotal.WithLabelValues("written")))
}

func TestPersistence_ExportImport(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.session(t, "s2")
	ctx := context.Background()
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	snap, err := f.persistence.Export(ctx, "s1")
	require.NoError(t, err)
	require.Contains(t, snap, passageID)
	assert.Equal(t, twoParagraphs, snap[passageID].Raw)
	assert.Equal(t, bravoHighlighted, snap[passageID].Annotated)

	res, err := f.persistence.Import(ctx, "s2", snap)
	require.NoError(t, err)
	assert.Equal(t, []string{passageID}, res.Imported)
	assert.Equal(t, []string{passageID}, res.Commit.Written)

	annotated, err := f.annotations.Annotated(ctx, "s2", passageID)
	require.NoError(t, err)
	assert.Equal(t, bravoHighlighted, annotated)
	original, err := f.annotations.Original(ctx, "s2", passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, original)
}

func TestPersistence_ImportRejectsBadSnapshot(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	f.bind(t, "s1", 5, passageID, twoParagraphs)

	_, err := f.persistence.Import(context.Background(), "s1", domain.Snapshot{
		"": {Raw: "<p>x</p>", Annotated: "<p>x</p>"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	annotated, err := f.annotations.Annotated(context.Background(), "s1", passageID)
	require.NoError(t, err)
	assert.Equal(t, twoParagraphs, annotated)
}

func TestPersistence_RecordMaintenance(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1")
	ctx := context.Background()
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.bind(t, "s1", 7, "pt1,passage2", "<p>Echo foxtrot.</p>")
	f.commit(t, "s1")

	ids, err := f.persistence.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pt1,passage1", "pt1,passage2"}, ids)

	require.NoError(t, f.persistence.ClearRecord(ctx, passageID))
	_, err = f.persistence.Record(ctx, passageID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := f.persistence.ClearRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, f.persistence.ClearRecord(ctx, ""), domain.ErrInvalidInput)
	_, err = f.persistence.Record(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NoError(t, f.persistence.Ping(ctx))
}

func TestPersistenceBridge_MirrorAndRecover(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	ctx := context.Background()
	f.bind(t, "s1", 5, passageID, twoParagraphs)
	f.highlight(t, "s1", passageID, 6, 11)

	mirrored, err := f.bridge.Mirror(ctx, ws)
	require.NoError(t, err)
	assert.True(t, mirrored)
	assert.Equal(t, 2*time.Hour, f.recovery.TTLs["s1"])

	mirrored, err = f.bridge.Mirror(ctx, ws)
	require.NoError(t, err)
	assert.False(t, mirrored, "unchanged workspace is not mirrored again")

	snap, err := f.bridge.Recover(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, readingSubj, snap.Subject)
	assert.Equal(t, passageID, snap.ActiveDocument)
	assert.Equal(t, map[string]string{"Reading Comprehension-0-5": passageID}, snap.Consumers)
	assert.Equal(t, bravoHighlighted, snap.Documents[passageID].Annotated)

	require.NoError(t, f.bridge.DropRecovery(ctx, "s1"))
	_, err = f.bridge.Recover(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestPersistenceBridge_MirrorFailureKeepsDirty(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	ws.MarkDirty()
	f.recovery.SaveErr = errors.New("timeout")

	_, err := f.bridge.Mirror(context.Background(), ws)
	require.Error(t, err)

	f.recovery.SaveErr = nil
	mirrored, err := f.bridge.Mirror(context.Background(), ws)
	require.NoError(t, err)
	assert.True(t, mirrored)
}

func TestPersistenceBridge_WithoutRecoveryStore(t *testing.T) {
	f := newFixture(t)
	ws := f.session(t, "s1")
	ws.MarkDirty()
	bridge := NewPersistenceBridge(PersistenceBridgeConfig{Records: f.records})

	mirrored, err := bridge.Mirror(context.Background(), ws)
	require.NoError(t, err)
	assert.False(t, mirrored)

	_, err = bridge.Recover(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, bridge.DropRecovery(context.Background(), "s1"))
}
