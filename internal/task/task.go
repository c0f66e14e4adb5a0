// Package task holds the task value type shared by the planning engine
// and the file store. The planning code treats tasks as immutable
// snapshots; only the store creates or mutates them.
package task

import (
	"strings"
	"time"
)

// DateFormat is the canonical on-disk form of a due date.
const DateFormat = "2006-01-02"

type Status string

const (
	StatusOpen Status = "Open"
	StatusDone Status = "Done"
)

type Task struct {
	ID        string     `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	Due       string     `yaml:"due" json:"due"`
	Status    Status     `yaml:"status" json:"status"`
	CreatedAt *time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt *time.Time `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`
}

func (t Task) Open() bool { return t.Status != StatusDone }

// IDShort returns at most n leading characters of the ID for display.
func (t Task) IDShort(n int) string {
	if len(t.ID) <= n {
		return t.ID
	}
	return t.ID[:n]
}

// ParseCanonical parses a stored due value. The second return is false
// when the value is not a valid canonical date; callers on read paths
// substitute their own fallback instead of failing.
func ParseCanonical(due string) (time.Time, bool) {
	due = strings.TrimSpace(due)
	if due == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateFormat, due)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Midnight truncates a time to its calendar date in the same location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole calendar days from a to b (negative
// when b is earlier). Both are reduced to their calendar dates first,
// so mixed locations cannot skew the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
