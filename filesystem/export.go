// filesystem/export.go
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ViniZap4/lumi-entries/domain"
)

// Source lists entries to export.
type Source interface {
	List(ctx context.Context) ([]*domain.Note, error)
}

// Sink receives imported entries.
type Sink interface {
	Create(ctx context.Context, in domain.NoteInput) (*domain.Note, error)
	Update(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)
}

func FileName(note *domain.Note) string {
	return strconv.FormatInt(note.ID, 10) + ".md"
}

// Export writes every entry of src to dir as <id>.md and returns the count.
func Export(ctx context.Context, src Source, dir string) (int, error) {
	notes, err := src.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}
	for _, note := range notes {
		if err := WriteNote(filepath.Join(dir, FileName(note)), note); err != nil {
			return 0, fmt.Errorf("export entry %d: %w", note.ID, err)
		}
	}
	return len(notes), nil
}

type ImportResult struct {
	Created int
	Updated int
	Skipped []string
}

// Import loads the notes in dir into dst. A note whose id already exists is
// updated in place; notes without an id, or whose id is unknown, are created.
func Import(ctx context.Context, dst Sink, dir string) (ImportResult, error) {
	var res ImportResult
	notes, skipped, err := ListNotes(dir)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped

	for _, note := range notes {
		in := domain.NoteInput{Title: note.Title, Content: note.Content}
		if err := in.Validate(); err != nil {
			res.Skipped = append(res.Skipped, FileName(note))
			continue
		}
		if note.ID > 0 {
			_, err := dst.Update(ctx, note.ID, domain.FullPatch(note.Title, note.Content))
			if err == nil {
				res.Updated++
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				return res, fmt.Errorf("import entry %d: %w", note.ID, err)
			}
		}
		if _, err := dst.Create(ctx, in); err != nil {
			return res, fmt.Errorf("import %q: %w", note.Title, err)
		}
		res.Created++
	}
	return res, nil
}
