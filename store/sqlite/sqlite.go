// Package sqlite stores entries in an embedded SQLite database (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ViniZap4/lumi-entries/domain"
)

const timeLayout = time.RFC3339Nano

const selectColumns = `id, title, content, created_at, updated_at`

type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database file at path. The schema is
// managed by the migrations package and is not created here.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path, now: time.Now}, nil
}

// uriEscaper escapes the characters that would end the path part of a
// SQLite URI filename; SQLite decodes %HH escapes when opening it.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func dsn(path string) string {
	u := url.URL{
		Scheme:   "file",
		Opaque:   uriEscaper.Replace(filepath.ToSlash(path)),
		RawQuery: "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
	}
	return u.String()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) List(ctx context.Context) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return notes, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM entries WHERE id = ?`, id)
	return scanNote(row)
}

func (s *Store) Create(ctx context.Context, in domain.NoteInput) (*domain.Note, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(timeLayout)
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO entries (title, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING `+selectColumns,
		in.Title, in.Content, now, now)
	note, err := scanNote(row)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	return note, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE entries
		 SET title = COALESCE(?, title),
		     content = COALESCE(?, content),
		     updated_at = ?
		 WHERE id = ?
		 RETURNING `+selectColumns,
		patch.Title, patch.Content, s.now().UTC().Format(timeLayout), id)
	return scanNote(row)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*domain.Note, error) {
	var (
		note               domain.Note
		createdAt, updated string
	)
	if err := row.Scan(&note.ID, &note.Title, &note.Content, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	var err error
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &note, nil
}

// parseTime accepts RFC 3339 and the "YYYY-MM-DD HH:MM:SS" form SQLite's
// datetime('now') produces.
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateTime, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}
