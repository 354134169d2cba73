package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driving"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
)

const (
	twoParagraphs = "<p>Alpha bravo.</p><p>Charlie delta.</p>"
	markOpen      = `<mark class="passage-highlight" data-passage-highlight="true">`
	markStruck    = `<mark class="passage-highlight" data-passage-highlight="true" style="text-decoration: line-through">`
	markClose     = "</mark>"
	passageID     = "pt1,passage1"
	readingSubj   = "Reading Comprehension"
)

// clock hands out strictly increasing times
type clock struct {
	mu  sync.Mutex
	cur time.Time
}

func newClock() *clock {
	return &clock{cur: time.Unix(1_700_000_000, 0)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Millisecond)
	return c.cur
}

type fixture struct {
	clock       *clock
	sessions    *runtime.Sessions
	records     *mocks.MockRecordStore
	recovery    *mocks.MockRecoveryStore
	bridge      *PersistenceBridge
	annotations driving.AnnotationService
	persistence driving.PersistenceService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:    newClock(),
		sessions: runtime.NewSessions(nil),
		records:  mocks.NewMockRecordStore(),
		recovery: mocks.NewMockRecoveryStore(),
	}
	f.bridge = NewPersistenceBridge(PersistenceBridgeConfig{
		Records:  f.records,
		Recovery: f.recovery,
		Now:      f.clock.Now,
	})
	f.annotations = NewAnnotationService(AnnotationServiceConfig{
		Sessions: f.sessions,
		Bridge:   f.bridge,
		Now:      f.clock.Now,
	})
	f.persistence = NewPersistenceService(f.sessions, f.bridge, nil)
	return f
}

// session registers an empty workspace displaying reading passages
func (f *fixture) session(t *testing.T, id string) *domain.Workspace {
	t.Helper()
	ws := domain.NewWorkspace(id, f.clock.Now())
	ws.SetSubject(readingSubj)
	f.sessions.Put(ws)
	return ws
}

func (f *fixture) bind(t *testing.T, sessionID string, item int, documentID, raw string) *domain.DocumentView {
	t.Helper()
	view, err := f.annotations.Bind(context.Background(), sessionID, domain.BindRequest{
		Consumer:   domain.ConsumerKey{Subject: readingSubj, TestIndex: 0, ItemIndex: item},
		DocumentID: documentID,
		Markup:     raw,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) highlight(t *testing.T, sessionID, documentID string, start, end int) *domain.AnnotationResult {
	t.Helper()
	res, err := f.annotations.Highlight(context.Background(), sessionID, documentID, domain.HighlightRequest{
		Offsets: &domain.OffsetSelection{Start: start, End: end},
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) commit(t *testing.T, sessionID string) domain.CommitResult {
	t.Helper()
	task, err := f.persistence.Commit(context.Background(), sessionID)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := task.Wait(ctx)
	require.NoError(t, err)
	return res
}
