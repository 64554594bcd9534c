package autosave

import (
	"fmt"
	"time"
)

// FormatRelativeTime renders an elapsed duration as "now", "Nm", "Nh" or "Nd".
func FormatRelativeTime(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// Label is the text shown while s is displayed, empty for StatusIdle.
func (s Status) Label() string {
	switch s {
	case StatusSaving:
		return "Saving..."
	case StatusSaved:
		return "Saved"
	}
	return ""
}

// Label is the status line for the editor: the save status while one is
// shown, otherwise how long ago the active note was last persisted.
func (c *Controller) Label(now time.Time) string {
	c.mu.Lock()
	status, noteID, updatedAt := c.status, c.buf.noteID, c.base.updatedAt
	c.mu.Unlock()

	if label := status.Label(); label != "" {
		return label
	}
	if noteID == 0 || updatedAt.IsZero() {
		return ""
	}
	rel := FormatRelativeTime(now.Sub(updatedAt))
	if rel == "now" {
		return "Last edited just now"
	}
	return "Last edited " + rel + " ago"
}
