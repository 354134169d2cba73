package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/passage-highlights/internal/core/domain"
	"github.com/custodia-labs/passage-highlights/internal/core/ports/driven"
	"github.com/custodia-labs/passage-highlights/internal/core/services"
	"github.com/custodia-labs/passage-highlights/internal/runtime"
)

// Worker keeps the live sessions of this instance recoverable.
// On every sweep it mirrors changed workspaces to the recovery store,
// extends their session leases and evicts sessions idle for too long.
// An evicted session can still be resumed from its mirror until it expires.
type Worker struct {
	sessions *runtime.Sessions
	bridge   *services.PersistenceBridge
	leases   driven.DistributedLock
	logger   *slog.Logger

	// Configuration
	interval    time.Duration
	idleTimeout time.Duration
	leaseTTL    time.Duration
	now         func() time.Time

	// Internal state
	mu        sync.RWMutex
	running   bool
	lastSweep time.Time
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	Sessions    *runtime.Sessions
	Bridge      *services.PersistenceBridge
	Leases      driven.DistributedLock // optional
	Logger      *slog.Logger
	Interval    time.Duration // time between sweeps
	IdleTimeout time.Duration // sessions untouched for this long are evicted
	LeaseTTL    time.Duration
	Now         func() time.Time
}

// NewWorker creates a new recovery worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = time.Hour
	}
	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = 2 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Worker{
		sessions:    cfg.Sessions,
		bridge:      cfg.Bridge,
		leases:      cfg.Leases,
		logger:      logger,
		interval:    interval,
		idleTimeout: idle,
		leaseTTL:    leaseTTL,
		now:         now,
	}
}

// Start begins the sweep loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("recovery worker starting",
		"interval", w.interval,
		"idle_timeout", w.idleTimeout,
	)

	go func() {
		defer close(w.doneCh)
		w.loop(ctx)
	}()
	return nil
}

// Stop gracefully stops the worker after a final sweep.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("recovery worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("recovery worker context cancelled")
			return
		case <-w.stopCh:
			// Flush what changed since the last tick before going away.
			w.Sweep(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// SweepResult reports one sweep
type SweepResult struct {
	Mirrored int
	Evicted  int
	Failed   int
}

// Sweep mirrors, extends and evicts once.
func (w *Worker) Sweep(ctx context.Context) SweepResult {
	var res SweepResult
	now := w.now()

	for _, ws := range w.sessions.List() {
		logger := w.logger.With("session_id", ws.SessionID)

		mirrored, err := w.bridge.Mirror(ctx, ws)
		if err != nil {
			// Keep the session in memory: evicting it now would lose state.
			logger.Error("failed to mirror session", "error", err)
			res.Failed++
			continue
		}
		if mirrored {
			res.Mirrored++
		}

		if idle, evicted := w.evictIfIdle(ws, now); evicted {
			w.release(ctx, ws.SessionID, logger)
			logger.Info("idle session evicted", "idle", idle)
			res.Evicted++
			continue
		}
		w.extend(ctx, ws.SessionID, logger)
	}

	w.mu.Lock()
	w.lastSweep = now
	w.mu.Unlock()

	if res.Mirrored > 0 || res.Evicted > 0 || res.Failed > 0 {
		w.logger.Debug("sweep finished",
			"mirrored", res.Mirrored,
			"evicted", res.Evicted,
			"failed", res.Failed,
		)
	}
	return res
}

// evictIfIdle unregisters ws when it has been idle for the idle timeout and
// holds nothing unmirrored. Check and removal happen under the workspace
// lock: a request that touches the session first keeps it alive, one that
// comes later finds it gone.
func (w *Worker) evictIfIdle(ws *domain.Workspace, now time.Time) (time.Duration, bool) {
	ws.Lock()
	defer ws.Unlock()

	idle := now.Sub(ws.TouchedAt())
	if idle < w.idleTimeout || ws.Dirty() {
		return idle, false
	}
	return idle, w.sessions.RemoveIf(ws)
}

func (w *Worker) extend(ctx context.Context, sessionID string, logger *slog.Logger) {
	if w.leases == nil {
		return
	}
	if err := w.leases.Extend(ctx, services.LeaseName(sessionID), w.leaseTTL); err != nil {
		// The lease lapsed; take it again if nobody else did.
		acquired, acqErr := w.leases.Acquire(ctx, services.LeaseName(sessionID), w.leaseTTL)
		if acqErr != nil || !acquired {
			logger.Warn("session lease lost", "error", err)
		}
	}
}

func (w *Worker) release(ctx context.Context, sessionID string, logger *slog.Logger) {
	if w.leases == nil {
		return
	}
	if err := w.leases.Release(ctx, services.LeaseName(sessionID)); err != nil {
		logger.Warn("failed to release session lease", "error", err)
	}
}

// Health returns health status of the worker.
type Health struct {
	Running   bool      `json:"running"`
	Sessions  int       `json:"sessions"`
	LastSweep time.Time `json:"last_sweep,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return Health{
		Running:   w.running,
		Sessions:  w.sessions.Len(),
		LastSweep: w.lastSweep,
	}
}
