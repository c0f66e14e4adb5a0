package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pkms/internal/store"
	"pkms/internal/task"
)

var refToday = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC) // Monday

func testServer(t *testing.T) (*store.Workspace, *Server) {
	t.Helper()
	ws := store.Open(t.TempDir())
	if err := ws.Init(); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(ws)
	srv.Now = func() time.Time { return refToday }
	return ws, srv
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexShowsSections(t *testing.T) {
	ws, srv := testServer(t)
	if _, err := ws.AddTask("Due now", "today", refToday); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.AddTask("Late", "2025-11-20", refToday); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Overdue", "Today", "Due now", "Late", "2 task(s)"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestIndexEmpty(t *testing.T) {
	_, srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Nothing urgent on the plan.") {
		t.Fatalf("body:\n%s", rec.Body.String())
	}
}

func TestAddRedirectsAndPersists(t *testing.T) {
	ws, srv := testServer(t)
	rec := postForm(srv.Handler(), "/add", url.Values{"title": {"Read paper"}, "due": {"next fri"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	tasks, _ := ws.ListTasks()
	if len(tasks) != 1 || tasks[0].Due != "2025-12-12" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestAddRejectedExpressionRerendersForm(t *testing.T) {
	ws, srv := testServer(t)
	rec := postForm(srv.Handler(), "/add", url.Values{"title": {"Vague"}, "due": {"someday"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "someday") || !strings.Contains(body, "Vague") {
		t.Fatalf("form values not re-filled:\n%s", body)
	}
	tasks, _ := ws.ListTasks()
	if len(tasks) != 0 {
		t.Fatal("rejected add still wrote a task")
	}
}

func TestDoneAndDelete(t *testing.T) {
	ws, srv := testServer(t)
	added, err := ws.AddTask("Finish", "today", refToday)
	if err != nil {
		t.Fatal(err)
	}

	rec := postForm(srv.Handler(), "/done/"+added.ID, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("done status = %d", rec.Code)
	}
	got, _ := ws.GetTaskByPrefix(added.ID)
	if got.Status != task.StatusDone {
		t.Fatal("task not marked done")
	}

	rec = postForm(srv.Handler(), "/delete/"+added.ID, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}
	tasks, _ := ws.ListTasks()
	if len(tasks) != 0 {
		t.Fatal("task survived delete")
	}
}

func TestDoneUnknownIDIs404(t *testing.T) {
	_, srv := testServer(t)
	rec := postForm(srv.Handler(), "/done/tsk_missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAPITasks(t *testing.T) {
	ws, srv := testServer(t)
	if _, err := ws.AddTask("JSON me", "tomorrow", refToday); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %s", ct)
	}
	var tasks []task.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Title != "JSON me" || tasks[0].Due != "2025-12-02" {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestAPITasksEmptyIsArray(t *testing.T) {
	_, srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("body = %q, want empty array", got)
	}
}

func TestAPISuggest(t *testing.T) {
	ws, srv := testServer(t)
	if _, err := ws.AddTask("Urgent", "today", refToday); err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/suggest", nil))
	var resp struct {
		Task      *task.Task `json:"task"`
		Rationale string     `json:"rationale"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Task == nil || resp.Task.Title != "Urgent" {
		t.Fatalf("suggest task = %+v", resp.Task)
	}
	if resp.Rationale != "This is due today. Focus on it now!" {
		t.Fatalf("rationale = %q", resp.Rationale)
	}
}
