// Package store selects and opens the entry storage backend.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ViniZap4/lumi-entries/domain"
	"github.com/ViniZap4/lumi-entries/store/migrations"
	"github.com/ViniZap4/lumi-entries/store/postgres"
	"github.com/ViniZap4/lumi-entries/store/sqlite"
)

// Store is the persistence service for entries. Implementations set
// CreatedAt/UpdatedAt themselves and return domain.ErrNotFound for
// missing ids and domain.ErrInvalid for rejected input.
type Store interface {
	List(ctx context.Context) ([]*domain.Note, error)
	Get(ctx context.Context, id int64) (*domain.Note, error)
	Create(ctx context.Context, in domain.NoteInput) (*domain.Note, error)
	Update(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

var (
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*postgres.Store)(nil)
)

// DialectOf reports which backend a database URL selects.
func DialectOf(url string) migrations.Dialect {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return migrations.Postgres
	}
	return migrations.SQLite
}

// Open connects to url, a postgres:// DSN or a SQLite file path. When
// migrate is set, pending migrations are applied first.
func Open(ctx context.Context, url string, migrate bool) (Store, error) {
	dialect := DialectOf(url)
	path := strings.TrimPrefix(url, "sqlite://")

	switch dialect {
	case migrations.Postgres:
		if migrate {
			if _, err := migrations.Up(dialect, url); err != nil {
				return nil, err
			}
		}
		return postgres.Open(ctx, url)
	default:
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		if migrate {
			if _, err := migrations.Up(dialect, path); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate %s: %w", path, err)
			}
		}
		return s, nil
	}
}
