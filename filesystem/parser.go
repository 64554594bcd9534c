// filesystem/parser.go
package filesystem

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ViniZap4/lumi-entries/domain"
)

var ErrNoFrontmatter = errors.New("missing frontmatter")

var delimiter = []byte("---\n")

// ParseNote splits a markdown document into its YAML frontmatter and body.
// The blank line WriteNote puts after the frontmatter is not part of the
// content.
func ParseNote(data []byte) (*domain.Note, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, delimiter) {
		return nil, ErrNoFrontmatter
	}
	rest := data[len(delimiter):]

	var front, body []byte
	switch {
	case bytes.HasPrefix(rest, delimiter):
		body = rest[len(delimiter):]
	default:
		end := bytes.Index(rest, []byte("\n---\n"))
		if end < 0 {
			if !bytes.HasSuffix(rest, []byte("\n---")) {
				return nil, ErrNoFrontmatter
			}
			end = len(rest) - len("\n---")
			front, body = rest[:end], nil
		} else {
			front, body = rest[:end], rest[end+len("\n---\n"):]
		}
	}

	note := &domain.Note{}
	if err := yaml.Unmarshal(front, note); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	note.Content = string(bytes.TrimPrefix(body, []byte("\n")))
	return note, nil
}

func ReadNote(path string) (*domain.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	note, err := ParseNote(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return note, nil
}

func FormatNote(note *domain.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(delimiter)

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(note); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	buf.Write(delimiter)
	buf.WriteString("\n")
	buf.WriteString(note.Content)
	return buf.Bytes(), nil
}

func WriteNote(path string, note *domain.Note) error {
	data, err := FormatNote(note)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ListNotes reads every .md file directly under dir, ordered by file name.
// Files that fail to parse are returned in skipped instead of aborting.
func ListNotes(dir string) (notes []*domain.Note, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		note, err := ReadNote(path)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		notes = append(notes, note)
	}
	return notes, skipped, nil
}
