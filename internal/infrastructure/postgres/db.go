// Package postgres stores specifications and the product catalog in
// PostgreSQL. Match lists live in a JSONB column so a specification and its
// matches are always replaced in one row update.
package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Config holds connection pool settings
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects and verifies the database
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// jsonColumn maps a JSONB column onto T
type jsonColumn[T any] struct {
	Data T
}

func (c *jsonColumn[T]) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		var zero T
		c.Data = zero
		return nil
	case []byte:
		return json.Unmarshal(v, &c.Data)
	case string:
		return json.Unmarshal([]byte(v), &c.Data)
	default:
		return fmt.Errorf("jsonColumn.Scan: expected []byte, got %T", src)
	}
}

func (c jsonColumn[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(c.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
