// domain/note.go
package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the longest title, in characters, the service accepts.
const MaxTitleLength = 255

var (
	ErrNotFound = errors.New("entry not found")
	ErrInvalid  = errors.New("invalid entry")
)

type Note struct {
	ID        int64     `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Content   string    `json:"content" yaml:"-"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// NoteInput carries the fields a client may set when creating a note.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (in NoteInput) Validate() error {
	return validateTitle(in.Title)
}

// NotePatch is a partial update. Nil fields are left unchanged.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p NotePatch) Validate() error {
	if p.Title != nil {
		return validateTitle(*p.Title)
	}
	return nil
}

func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// Apply copies the set fields of p onto n.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
}

// FullPatch builds a patch that sets both editable fields.
func FullPatch(title, content string) NotePatch {
	return NotePatch{Title: &title, Content: &content}
}

func validateTitle(title string) error {
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return fmt.Errorf("%w: title is %d characters, max %d", ErrInvalid, n, MaxTitleLength)
	}
	return nil
}
