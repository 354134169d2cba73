// Package badger stores annotation records in an embedded BadgerDB.
// It is the default record backend of a single-instance deployment.
package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM (tests)
	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's own logs. Nil disables them.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs. 0 disables it.
	GCInterval     time.Duration
	GCDiscardRatio float64
}

// DefaultConfig returns defaults for a persistent database at path
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// DB wraps a BadgerDB instance with its garbage collection loop
type DB struct {
	*badger.DB
	logger *slog.Logger
	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens the database described by cfg and starts value log GC if
// configured. Callers must Close it.
func Open(cfg Config) (*DB, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	logger := cfg.Logger
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		logger = slog.Default()
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	wrapped := &DB{DB: db, logger: logger}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		wrapped.stopCh = make(chan struct{})
		wrapped.doneCh = make(chan struct{})
		go wrapped.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return wrapped, nil
}

func (d *DB) runGC(interval time.Duration, ratio float64) {
	defer close(d.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect
			if err := d.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				d.logger.Warn("badger value log GC error", "error", err)
			}
		}
	}
}

// Close stops garbage collection and closes the database
func (d *DB) Close() error {
	if d.stopCh != nil {
		close(d.stopCh)
		<-d.doneCh
		d.stopCh = nil
	}
	return d.DB.Close()
}
