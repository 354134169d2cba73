package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// DB is the connection pool shared by the record store and the lease lock.
type DB struct {
	*sql.DB
}

// Config configures the pool. Zero values fall back to DefaultConfig.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig sizes the pool for one process writing on commit only.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig(c.URL)
	if c.MaxOpenConns > 0 {
		d.MaxOpenConns = c.MaxOpenConns
	}
	if c.MaxIdleConns > 0 {
		d.MaxIdleConns = c.MaxIdleConns
	}
	if c.ConnMaxLifetime > 0 {
		d.ConnMaxLifetime = c.ConnMaxLifetime
	}
	if c.ConnMaxIdleTime > 0 {
		d.ConnMaxIdleTime = c.ConnMaxIdleTime
	}
	return d
}

// Connect opens the pool and creates the annotation_records and
// session_leases tables when missing.
func Connect(ctx context.Context, cfg Config) (*DB, error) {
	cfg = cfg.withDefaults()
	conn, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{DB: conn}, nil
}
