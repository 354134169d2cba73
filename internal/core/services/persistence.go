package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driving"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
)

// PersistenceBridge moves annotation state between workspaces, the durable
// record store and the recovery mirror.
//
// Durable writes only happen on an explicit commit or import. Every write
// carries the LastModified of the state it was taken from; a write whose
// document has since been reset or changed again is dropped as stale.
type PersistenceBridge struct {
	records     driven.RecordStore
	recovery    driven.RecoveryStore
	recoveryTTL time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// PersistenceBridgeConfig holds configuration for the PersistenceBridge.
type PersistenceBridgeConfig struct {
	Records     driven.RecordStore
	Recovery    driven.RecoveryStore // optional; nil disables the recovery mirror
	RecoveryTTL time.Duration
	Concurrency int // parallel record writes per commit
	Logger      *slog.Logger
	Now         func() time.Time
}

// NewPersistenceBridge creates a new PersistenceBridge
func NewPersistenceBridge(cfg PersistenceBridgeConfig) *PersistenceBridge {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	ttl := cfg.RecoveryTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &PersistenceBridge{
		records:     cfg.Records,
		recovery:    cfg.Recovery,
		recoveryTTL: ttl,
		concurrency: concurrency,
		logger:      logger,
		now:         now,
	}
}

type pendingWrite struct {
	id  string
	doc *domain.DocumentState
	rec *domain.PersistedRecord
}

// CommitAll writes every document of the workspace to the record store.
// The records are captured before CommitAll returns; the writes run in the
// background and outlive ctx cancellation. Must not be called with the
// workspace lock held.
func (b *PersistenceBridge) CommitAll(ctx context.Context, ws *domain.Workspace) *domain.CommitTask {
	task := domain.NewCommitTask()

	ws.Lock()
	pending, failed := b.capture(ws, ws.Store.IDs())
	ws.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		start := time.Now()
		result := b.write(ctx, ws, pending)
		result.Failed = append(result.Failed, failed...)
		sort.Strings(result.Failed)
		commitDuration.Observe(time.Since(start).Seconds())

		level := slog.LevelInfo
		if !result.OK() {
			level = slog.LevelWarn
		}
		b.logger.Log(ctx, level, "commit finished",
			"session_id", ws.SessionID,
			"written", len(result.Written),
			"stale", len(result.Stale),
			"failed", len(result.Failed),
			"duration", time.Since(start),
		)
		task.Finish(result, nil)
	}()
	return task
}

// capture renders the records of ids. Expects the workspace lock to be held.
func (b *PersistenceBridge) capture(ws *domain.Workspace, ids []string) ([]pendingWrite, []string) {
	var (
		pending []pendingWrite
		failed  []string
	)
	for _, id := range ids {
		doc := ws.Store.Get(id)
		if doc == nil {
			continue
		}
		rec, err := doc.Record()
		if err != nil {
			b.logger.Error("failed to render record", "document_id", id, "error", err)
			commitRecordsTotal.WithLabelValues("failed").Inc()
			failed = append(failed, id)
			continue
		}
		pending = append(pending, pendingWrite{id: id, doc: doc, rec: rec})
	}
	return pending, failed
}

func (b *PersistenceBridge) write(ctx context.Context, ws *domain.Workspace, pending []pendingWrite) domain.CommitResult {
	var (
		mu     sync.Mutex
		result domain.CommitResult
		g      errgroup.Group
	)
	record := func(list *[]string, id, label string) {
		commitRecordsTotal.WithLabelValues(label).Inc()
		mu.Lock()
		*list = append(*list, id)
		mu.Unlock()
	}

	g.SetLimit(b.concurrency)
	for _, w := range pending {
		g.Go(func() error {
			if b.superseded(ws, w) {
				b.logger.Debug("dropping superseded write", "document_id", w.id)
				record(&result.Stale, w.id, "stale")
				return nil
			}
			err := b.records.Put(ctx, w.id, w.rec)
			switch {
			case err == nil:
				record(&result.Written, w.id, "written")
			case errors.Is(err, domain.ErrStaleWrite):
				b.logger.Debug("record store kept a newer record", "document_id", w.id)
				record(&result.Stale, w.id, "stale")
			default:
				b.logger.Error("failed to write record", "document_id", w.id, "error", err)
				record(&result.Failed, w.id, "failed")
			}
			// Per-document failures never abort the batch.
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Written)
	sort.Strings(result.Stale)
	sort.Strings(result.Failed)
	return result
}

// superseded reports whether the workspace moved on since w was captured
func (b *PersistenceBridge) superseded(ws *domain.Workspace, w pendingWrite) bool {
	ws.Lock()
	defer ws.Unlock()

	cur := ws.Store.Get(w.id)
	return cur != w.doc || cur.LastModified > w.rec.LastModified
}

// ImportAll merges snapshot into the workspace and writes the imported
// documents to the record store. Must not be called with the workspace lock held.
func (b *PersistenceBridge) ImportAll(ctx context.Context, ws *domain.Workspace, snapshot domain.Snapshot) (*domain.ImportResult, error) {
	ws.Lock()
	ids, err := ws.Store.ImportAll(snapshot)
	if err != nil {
		ws.Unlock()
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	ws.Touch(b.now(), true)
	pending, failed := b.capture(ws, ids)
	ws.Unlock()

	result := b.write(ctx, ws, pending)
	result.Failed = append(result.Failed, failed...)
	sort.Strings(result.Failed)

	b.logger.Info("snapshot imported", "session_id", ws.SessionID, "documents", len(ids))
	return &domain.ImportResult{Imported: ids, Commit: result}, nil
}

// LoadOne reads the durable record of a document. Absence is (nil, nil).
func (b *PersistenceBridge) LoadOne(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	rec, err := b.records.Get(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", documentID, err)
	}
	return rec, nil
}

// Record reads the durable record of a document, ErrNotFound if absent
func (b *PersistenceBridge) Record(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	return b.records.Get(ctx, documentID)
}

// Records lists the documents with a durable record
func (b *PersistenceBridge) Records(ctx context.Context) ([]string, error) {
	return b.records.List(ctx)
}

// ClearOne deletes the durable record of a document
func (b *PersistenceBridge) ClearOne(ctx context.Context, documentID string) error {
	if err := b.records.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", documentID, err)
	}
	return nil
}

// ClearAll deletes every durable annotation record
func (b *PersistenceBridge) ClearAll(ctx context.Context) (int, error) {
	n, err := b.records.DeleteAll(ctx)
	if err != nil {
		return n, fmt.Errorf("failed to delete records: %w", err)
	}
	b.logger.Info("records cleared", "count", n)
	return n, nil
}

// Ping checks the record store
func (b *PersistenceBridge) Ping(ctx context.Context) error {
	return b.records.Ping(ctx)
}

// Mirror writes the workspace to the recovery store if it changed since the
// last mirror. Reports whether a snapshot was written.
// Must not be called with the workspace lock held.
func (b *PersistenceBridge) Mirror(ctx context.Context, ws *domain.Workspace) (bool, error) {
	if b.recovery == nil {
		return false, nil
	}

	ws.Lock()
	if !ws.TakeDirty() {
		ws.Unlock()
		return false, nil
	}
	snap, err := ws.RecoverySnapshot(b.now())
	if err != nil {
		ws.MarkDirty()
		ws.Unlock()
		mirrorTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("failed to snapshot session %s: %w", ws.SessionID, err)
	}
	ws.Unlock()

	if err := b.recovery.Save(ctx, snap, b.recoveryTTL); err != nil {
		ws.Lock()
		ws.MarkDirty()
		ws.Unlock()
		mirrorTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("failed to mirror session %s: %w", ws.SessionID, err)
	}
	mirrorTotal.WithLabelValues("ok").Inc()
	return true, nil
}

// Recover reads the recovery snapshot of a session
func (b *PersistenceBridge) Recover(ctx context.Context, sessionID string) (*domain.RecoverySnapshot, error) {
	if b.recovery == nil {
		return nil, domain.ErrSessionNotFound
	}
	snap, err := b.recovery.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recover session %s: %w", sessionID, err)
	}
	return snap, nil
}

// DropRecovery deletes the recovery snapshot of a session
func (b *PersistenceBridge) DropRecovery(ctx context.Context, sessionID string) error {
	if b.recovery == nil {
		return nil
	}
	return b.recovery.Delete(ctx, sessionID)
}

// Ensure persistenceService implements PersistenceService
var _ driving.PersistenceService = (*persistenceService)(nil)

// persistenceService exposes the bridge per session
type persistenceService struct {
	sessions *runtime.Sessions
	bridge   *PersistenceBridge
	logger   *slog.Logger
}

// NewPersistenceService creates a new PersistenceService
func NewPersistenceService(sessions *runtime.Sessions, bridge *PersistenceBridge, logger *slog.Logger) driving.PersistenceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &persistenceService{sessions: sessions, bridge: bridge, logger: logger}
}

func (s *persistenceService) Commit(ctx context.Context, sessionID string) (*domain.CommitTask, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return s.bridge.CommitAll(ctx, ws), nil
}

func (s *persistenceService) Export(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	ws.Lock()
	defer ws.Unlock()
	return ws.Store.ExportAll()
}

func (s *persistenceService) Import(ctx context.Context, sessionID string, snapshot domain.Snapshot) (*domain.ImportResult, error) {
	ws, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	res, err := s.bridge.ImportAll(ctx, ws, snapshot)
	if err != nil {
		s.logger.Warn("import rejected", "session_id", sessionID, "error", err)
		return nil, err
	}
	return res, nil
}

func (s *persistenceService) Record(ctx context.Context, documentID string) (*domain.PersistedRecord, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.bridge.Record(ctx, documentID)
}

func (s *persistenceService) Records(ctx context.Context) ([]string, error) {
	return s.bridge.Records(ctx)
}

func (s *persistenceService) ClearRecord(ctx context.Context, documentID string) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}
	return s.bridge.ClearOne(ctx, documentID)
}

func (s *persistenceService) ClearRecords(ctx context.Context) (int, error) {
	return s.bridge.ClearAll(ctx)
}

func (s *persistenceService) Ping(ctx context.Context) error {
	return s.bridge.Ping(ctx)
}
