// Package warehouse provides read-only access to the analytical data store.
// It is a separate database from the application store: the portal only ever
// issues parameterized SELECT statements against it, always through the
// access gateway.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/database"
)

// DefaultQueryTimeout bounds a single warehouse query so a slow statement
// cannot hold a pooled connection indefinitely.
const DefaultQueryTimeout = 15 * time.Second

// Config describes the warehouse connection and its pool limits.
type Config struct {
	Driver   string
	Path     string
	DSN      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// Executor is the analytical-store execution interface consumed by the
// access gateway. Implementations must bind all argument values; statement
// text never carries interpolated data.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// Store wraps a pooled warehouse connection.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// Open connects to the warehouse and applies pool limits.
func Open(cfg Config) (*Store, error) {
	db, err := database.Open(database.Config{
		Driver:   cfg.Driver,
		Path:     cfg.Path,
		DSN:      cfg.DSN,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Name:     cfg.Name,
		User:     cfg.User,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("warehouse: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("warehouse: obtain pool: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return NewStore(db, cfg.QueryTimeout), nil
}

// NewStore wraps an existing database handle, primarily for tests.
func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Query executes a parameterized statement under the configured timeout and
// returns the rows as column-keyed maps.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("warehouse: store is not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("warehouse: execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("warehouse: read columns: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("warehouse: scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normaliseValue(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("warehouse: iterate rows: %w", err)
	}

	return results, nil
}

// Ping verifies warehouse connectivity, used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("warehouse: store is not initialised")
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("warehouse: obtain pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Tables lists table and view names, backing the development-only schema
// exploration endpoint.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("warehouse: store is not initialised")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.db.WithContext(ctx).Migrator().GetTables()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Drivers report []byte for text columns; decode them so JSON responses carry
// strings instead of base64 blobs.
func normaliseValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
