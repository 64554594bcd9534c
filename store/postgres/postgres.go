// Package postgres stores entries in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ViniZap4/lumi-entries/domain"
)

const selectColumns = `id, title, content, created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) List(ctx context.Context) ([]*domain.Note, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Note, error) {
		return scanNote(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return notes, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Note, error) {
	return scanNote(s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = $1`, id))
}

func (s *Store) Create(ctx context.Context, in domain.NoteInput) (*domain.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO entries (title, content) VALUES ($1, $2) RETURNING `+selectColumns,
		in.Title, in.Content)
	note, err := scanNote(row)
	if err != nil {
		return nil, mapError("create entry", err)
	}
	return note, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE entries
		 SET title = COALESCE($1, title),
		     content = COALESCE($2, content),
		     updated_at = now()
		 WHERE id = $3
		 RETURNING `+selectColumns,
		patch.Title, patch.Content, id)
	note, err := scanNote(row)
	if err != nil {
		return nil, mapError(fmt.Sprintf("update entry %d", id), err)
	}
	return note, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var note domain.Note
	err := row.Scan(&note.ID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	note.CreatedAt = note.CreatedAt.UTC()
	note.UpdatedAt = note.UpdatedAt.UTC()
	return &note, nil
}

// mapError turns constraint failures into domain.ErrInvalid.
func mapError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.StringDataRightTruncationDataException,
			pgerrcode.CheckViolation,
			pgerrcode.NotNullViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalid, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
