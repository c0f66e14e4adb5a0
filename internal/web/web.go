// Package web serves the single-user dashboard: an HTML view of the
// urgency sections plus a small JSON API.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"pkms/internal/plan"
	"pkms/internal/store"
	"pkms/internal/task"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	WS   *store.Workspace
	Now  func() time.Time
	tmpl *template.Template
}

func NewServer(ws *store.Workspace) *Server {
	return &Server{
		WS:   ws,
		Now:  time.Now,
		tmpl: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
}

// Serve blocks on ListenAndServe.
func Serve(addr string, ws *store.Workspace) error {
	return http.ListenAndServe(addr, NewServer(ws).Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /add", s.handleAdd)
	mux.HandleFunc("POST /done/{id}", s.handleDone)
	mux.HandleFunc("POST /delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/tasks", s.handleAPITasks)
	mux.HandleFunc("GET /api/suggest", s.handleAPISuggest)
	return mux
}

type sectionBlock struct {
	Label string
	Class string
	Tasks []task.Task
}

type indexData struct {
	Sections []sectionBlock
	Summary  plan.Summary
	Warnings []string
	Error    string
	Title    string // re-filled form value after a rejected add
	Due      string
}

func sectionBlocks(s plan.PlanSections) []sectionBlock {
	var out []sectionBlock
	for _, b := range []sectionBlock{
		{Label: "Overdue", Class: "overdue", Tasks: s.Overdue},
		{Label: "Today", Class: "today", Tasks: s.Today},
		{Label: "Tomorrow", Tasks: s.Tomorrow},
		{Label: "Upcoming", Tasks: s.Upcoming},
	} {
		if len(b.Tasks) > 0 {
			out = append(out, b)
		}
	}
	return out
}

func (s *Server) today() time.Time { return task.Midnight(s.Now()) }

func (s *Server) render(w http.ResponseWriter, data indexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	today := s.today()
	s.render(w, indexData{
		Sections: sectionBlocks(plan.Sections(tasks, today)),
		Summary:  plan.Summarize(tasks, today),
		Warnings: plan.DeadlineConflicts(tasks),
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	due := strings.TrimSpace(r.FormValue("due"))
	if due == "" {
		due = "today"
	}
	_, err := s.WS.AddTask(title, due, s.today())
	if err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Rejected input re-renders the dashboard with the form filled in.
	var pe *plan.ParseError
	if !errors.As(err, &pe) && !errors.Is(err, store.ErrInvalid) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tasks, lerr := s.WS.ListTasks()
	if lerr != nil {
		http.Error(w, lerr.Error(), http.StatusInternalServerError)
		return
	}
	today := s.today()
	w.WriteHeader(http.StatusUnprocessableEntity)
	s.render(w, indexData{
		Sections: sectionBlocks(plan.Sections(tasks, today)),
		Summary:  plan.Summarize(tasks, today),
		Warnings: plan.DeadlineConflicts(tasks),
		Error:    err.Error(),
		Title:    title,
		Due:      due,
	})
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	if _, err := s.WS.MarkDone(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.WS.DeleteTask(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPITasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, tasks)
}

type suggestResponse struct {
	Task      *task.Task `json:"task,omitempty"`
	Rationale string     `json:"rationale"`
}

func (s *Server) handleAPISuggest(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	sg := plan.SuggestNextTask(tasks, s.today())
	writeJSON(w, suggestResponse{Task: sg.Task, Rationale: sg.Rationale})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
