package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pkms/internal/plan"
)

type NoteMeta struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Tags        []string   `yaml:"tags" json:"tags"`
	LinkedTasks []string   `yaml:"linked_tasks" json:"linked_tasks"`
	CreatedAt   *time.Time `yaml:"created_at" json:"created_at"`
	ModifiedAt  *time.Time `yaml:"modified_at" json:"modified_at"`
}

type Note struct {
	NoteMeta
	Path string `json:"path"`
	Body string `json:"-"`
}

// NoteMatchConflictError provides details when a prefix matches more
// than one note. It still satisfies errors.Is(err, ErrConflict).
type NoteMatchConflictError struct {
	Prefix  string
	Matches []Note
}

func (e *NoteMatchConflictError) Error() string {
	return fmt.Sprintf("conflict: prefix %q matches %d notes", e.Prefix, len(e.Matches))
}

func (e *NoteMatchConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (w *Workspace) CreateNote(title, body string, tags []string) (*Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	now := timeNow()
	n := &Note{
		NoteMeta: NoteMeta{
			ID:         "note_" + newULID(),
			Title:      title,
			Tags:       normalizeTags(tags),
			CreatedAt:  &now,
			ModifiedAt: &now,
		},
		Body: strings.TrimRight(body, "\n"),
	}
	n.Path = filepath.Join(w.notesDir(), fmt.Sprintf("%s__%s.md", n.ID, slugify(title)))
	if err := w.writeNote(n); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotes returns notes in creation order (ULID filename order).
func (w *Workspace) ListNotes() ([]Note, error) {
	entries, err := os.ReadDir(w.notesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []Note
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		n, err := readNoteFile(filepath.Join(w.notesDir(), e.Name()))
		if err != nil {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return filepath.Base(out[i].Path) < filepath.Base(out[j].Path) })
	return out, nil
}

func (w *Workspace) GetNoteByPrefix(prefix string) (*Note, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty note id prefix", ErrInvalid)
	}
	notes, err := w.ListNotes()
	if err != nil {
		return nil, err
	}
	var hits []Note
	for _, n := range notes {
		if strings.HasPrefix(strings.ToLower(n.ID), prefix) {
			hits = append(hits, n)
		}
	}
	switch len(hits) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &hits[0], nil
	default:
		return nil, &NoteMatchConflictError{Prefix: prefix, Matches: hits}
	}
}

// UpdateNoteBody replaces a note's content.
func (w *Workspace) UpdateNoteBody(prefix, body string) (*Note, error) {
	n, err := w.GetNoteByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	n.Body = strings.TrimRight(body, "\n")
	return w.touchAndWrite(n)
}

func (w *Workspace) DeleteNote(prefix string) (*Note, error) {
	n, err := w.GetNoteByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(n.Path); err != nil {
		return nil, err
	}
	return n, nil
}

// SearchNotes matches title or body, case-insensitively.
func (w *Workspace) SearchNotes(query string) ([]Note, error) {
	notes, err := w.ListNotes()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Note
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Body), q) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (w *Workspace) AddNoteTag(prefix, tag string) (*Note, error) {
	n, err := w.GetNoteByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	n.Tags = normalizeTags(append(n.Tags, tag))
	return w.touchAndWrite(n)
}

func (w *Workspace) RemoveNoteTag(prefix, tag string) (*Note, error) {
	n, err := w.GetNoteByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	var kept []string
	for _, t := range n.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	n.Tags = kept
	return w.touchAndWrite(n)
}

func (w *Workspace) NotesByTag(tag string) ([]Note, error) {
	notes, err := w.ListNotes()
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []Note
	for _, n := range notes {
		for _, t := range n.Tags {
			if t == tag {
				out = append(out, n)
				break
			}
		}
	}
	return out, nil
}

// LinkNoteToTask records a task reference on the note. The task prefix
// must resolve uniquely; the stored link uses the full task ID.
func (w *Workspace) LinkNoteToTask(notePrefix, taskPrefix string) (*Note, error) {
	n, err := w.GetNoteByPrefix(notePrefix)
	if err != nil {
		return nil, err
	}
	t, err := w.GetTaskByPrefix(taskPrefix)
	if err != nil {
		return nil, err
	}
	for _, id := range n.LinkedTasks {
		if id == t.ID {
			return n, nil // already linked
		}
	}
	n.LinkedTasks = append(n.LinkedTasks, t.ID)
	return w.touchAndWrite(n)
}

// NoteRefs adapts stored notes for the planning engine's link
// suggestions.
func NoteRefs(notes []Note) []plan.NoteRef {
	out := make([]plan.NoteRef, 0, len(notes))
	for _, n := range notes {
		out = append(out, plan.NoteRef{ID: n.ID, Title: n.Title})
	}
	return out
}

func (w *Workspace) touchAndWrite(n *Note) (*Note, error) {
	now := timeNow()
	n.ModifiedAt = &now
	if err := w.writeNote(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (w *Workspace) writeNote(n *Note) error {
	return writeFrontmatterFile(n.Path, &n.NoteMeta, n.Body)
}

func readNoteFile(path string) (*Note, error) {
	var meta NoteMeta
	body, err := readFrontmatterFile(path, &meta)
	if err != nil {
		return nil, err
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("%w: missing note id", ErrInvalid)
	}
	return &Note{NoteMeta: meta, Path: path, Body: strings.TrimRight(body, "\n")}, nil
}

func normalizeTags(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.TrimLeft(s, "#@+")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
