// Package store persists tasks and notes as markdown files with YAML
// frontmatter under a workspace directory. It is the only package that
// touches disk; the planning engine only ever sees the snapshots it
// loads.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"pkms/internal/plan"
	"pkms/internal/task"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

// MatchConflictError provides details when an ID prefix matches more
// than one task. It still satisfies errors.Is(err, ErrConflict).
type MatchConflictError struct {
	Prefix  string
	Matches []task.Task
}

func (e *MatchConflictError) Error() string {
	return fmt.Sprintf("conflict: prefix %q matches %d tasks", e.Prefix, len(e.Matches))
}

func (e *MatchConflictError) Is(target error) bool {
	return target == ErrConflict
}

type Workspace struct {
	Root string
}

// Open points a workspace at root. Nothing is created until Init.
func Open(root string) *Workspace {
	return &Workspace{Root: expandHome(root)}
}

func (w *Workspace) Init() error {
	if err := os.MkdirAll(w.tasksDir(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(w.notesDir(), 0o755)
}

func (w *Workspace) tasksDir() string { return filepath.Join(w.Root, "tasks") }
func (w *Workspace) notesDir() string { return filepath.Join(w.Root, "notes") }

// storedTask couples a task with the file it was read from.
type storedTask struct {
	task.Task
	path string
}

// AddTask validates the due expression against today, then writes a new
// open task. An unrecognized expression propagates as *plan.ParseError;
// nothing is written in that case.
func (w *Workspace) AddTask(title, dueExpr string, today time.Time) (*task.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	due, err := plan.ParseToCanonical(dueExpr, today)
	if err != nil {
		return nil, err
	}

	now := timeNow()
	t := task.Task{
		ID:        "tsk_" + newULID(),
		Title:     title,
		Due:       due,
		Status:    task.StatusOpen,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	if err := w.writeTask(storedTask{Task: t, path: w.taskPath(t)}); err != nil {
		return nil, err
	}
	return &t, nil
}

func (w *Workspace) taskPath(t task.Task) string {
	return filepath.Join(w.tasksDir(), fmt.Sprintf("%s__%s.md", t.ID, slugify(t.Title)))
}

// ListTasks returns every task in insertion order. ULIDs are
// time-ordered, so filename order is creation order. Files that fail to
// parse are skipped; a bad row must not take down read paths.
func (w *Workspace) ListTasks() ([]task.Task, error) {
	stored, err := w.loadTasks()
	if err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(stored))
	for _, st := range stored {
		out = append(out, st.Task)
	}
	return out, nil
}

func (w *Workspace) loadTasks() ([]storedTask, error) {
	entries, err := os.ReadDir(w.tasksDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []storedTask
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".md") {
			continue
		}
		path := filepath.Join(w.tasksDir(), e.Name())
		st, err := readTaskFile(path)
		if err != nil {
			continue
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return filepath.Base(out[i].path) < filepath.Base(out[j].path) })
	return out, nil
}

// GetTaskByPrefix resolves a unique case-insensitive ID prefix.
func (w *Workspace) GetTaskByPrefix(prefix string) (*task.Task, error) {
	st, err := w.findTaskByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	t := st.Task
	return &t, nil
}

func (w *Workspace) findTaskByPrefix(prefix string) (*storedTask, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty id prefix", ErrInvalid)
	}
	stored, err := w.loadTasks()
	if err != nil {
		return nil, err
	}
	var hits []storedTask
	for _, st := range stored {
		if strings.HasPrefix(strings.ToLower(st.ID), prefix) {
			hits = append(hits, st)
		}
	}
	switch len(hits) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &hits[0], nil
	default:
		matches := make([]task.Task, 0, len(hits))
		for _, h := range hits {
			matches = append(matches, h.Task)
		}
		return nil, &MatchConflictError{Prefix: prefix, Matches: matches}
	}
}

// MarkDone flips the matched task to Done.
func (w *Workspace) MarkDone(prefix string) (*task.Task, error) {
	st, err := w.findTaskByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	now := timeNow()
	st.Status = task.StatusDone
	st.UpdatedAt = &now
	if err := w.writeTask(*st); err != nil {
		return nil, err
	}
	t := st.Task
	return &t, nil
}

// DeleteTask removes the matched task's file.
func (w *Workspace) DeleteTask(prefix string) (*task.Task, error) {
	st, err := w.findTaskByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(st.path); err != nil {
		return nil, err
	}
	t := st.Task
	return &t, nil
}

type EditTaskInput struct {
	Title   string // new title; empty leaves it unchanged
	DueExpr string // new due expression; empty leaves it unchanged
}

// EditTask updates title and/or due date. A new due expression is
// parsed strictly against today, same as AddTask.
func (w *Workspace) EditTask(prefix string, in EditTaskInput, today time.Time) (*task.Task, error) {
	st, err := w.findTaskByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.DueExpr) == "" {
		return nil, fmt.Errorf("%w: nothing to edit", ErrInvalid)
	}

	oldPath := st.path
	if title := strings.TrimSpace(in.Title); title != "" {
		st.Title = title
	}
	if expr := strings.TrimSpace(in.DueExpr); expr != "" {
		due, err := plan.ParseToCanonical(expr, today)
		if err != nil {
			return nil, err
		}
		st.Due = due
	}
	now := timeNow()
	st.UpdatedAt = &now

	// The filename carries the title slug; keep it in sync.
	st.path = w.taskPath(st.Task)
	if err := w.writeTask(*st); err != nil {
		return nil, err
	}
	if st.path != oldPath {
		_ = os.Remove(oldPath)
	}
	t := st.Task
	return &t, nil
}

// SearchTasks matches the query against titles, case-insensitively.
func (w *Workspace) SearchTasks(query string) ([]task.Task, error) {
	tasks, err := w.ListTasks()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var out []task.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (w *Workspace) writeTask(st storedTask) error {
	return writeFrontmatterFile(st.path, &st.Task, "")
}

func readTaskFile(path string) (*storedTask, error) {
	var t task.Task
	if _, err := readFrontmatterFile(path, &t); err != nil {
		return nil, err
	}
	if t.ID == "" {
		return nil, fmt.Errorf("%w: missing task id", ErrInvalid)
	}
	if t.Status != task.StatusDone {
		t.Status = task.StatusOpen
	}
	return &storedTask{Task: t, path: path}, nil
}

// One shared monotonic source: ULIDs minted within the same
// millisecond still come out strictly increasing, so filename order
// stays creation order. MonotonicEntropy is not safe for concurrent
// use, hence the mutex.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(randReader{}, 0)
)

func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(timeNow()), entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}
