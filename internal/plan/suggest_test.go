package plan

import (
	"strings"
	"testing"

	"pkms/internal/task"
)

func TestSuggestNextTaskPrefersMostOverdue(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "yesterday", dayOffset(-1), task.StatusOpen),
		mkTask("b", "today", dayOffset(0), task.StatusOpen),
		mkTask("c", "later", dayOffset(2), task.StatusOpen),
	}
	s := SuggestNextTask(tasks, refToday)
	if s.Task == nil || s.Task.ID != "a" {
		t.Fatalf("suggested %+v, want task a", s.Task)
	}
	if !strings.Contains(s.Rationale, "1 day(s) overdue") {
		t.Fatalf("rationale %q does not mention 1 day(s) overdue", s.Rationale)
	}
}

func TestSuggestNextTaskLargestOverdueWins(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "a bit late", dayOffset(-2), task.StatusOpen),
		mkTask("b", "very late", dayOffset(-9), task.StatusOpen),
		mkTask("c", "slightly late", dayOffset(-1), task.StatusOpen),
	}
	s := SuggestNextTask(tasks, refToday)
	if s.Task == nil || s.Task.ID != "b" {
		t.Fatalf("suggested %v, want most overdue task b", s.Task)
	}
	if !strings.Contains(s.Rationale, "9 day(s)") {
		t.Fatalf("rationale %q does not report 9 days", s.Rationale)
	}
}

func TestSuggestNextTaskDueTodayBeatsUpcoming(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "soon", dayOffset(2), task.StatusOpen),
		mkTask("b", "now", dayOffset(0), task.StatusOpen),
		mkTask("c", "also now", dayOffset(0), task.StatusOpen),
	}
	s := SuggestNextTask(tasks, refToday)
	if s.Task == nil || s.Task.ID != "b" {
		t.Fatalf("suggested %v, want first due-today task b", s.Task)
	}
}

func TestSuggestNextTaskSoonestWithinThreeDays(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "three out", dayOffset(3), task.StatusOpen),
		mkTask("b", "two out", dayOffset(2), task.StatusOpen),
		mkTask("c", "far out", dayOffset(6), task.StatusOpen),
	}
	s := SuggestNextTask(tasks, refToday)
	if s.Task == nil || s.Task.ID != "b" {
		t.Fatalf("suggested %v, want soonest task b", s.Task)
	}
	if !strings.Contains(s.Rationale, "2 day(s)") {
		t.Fatalf("rationale %q does not report days until", s.Rationale)
	}
}

func TestSuggestNextTaskFallsBackToFirstOpen(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "done", dayOffset(0), task.StatusDone),
		mkTask("b", "far", dayOffset(20), task.StatusOpen),
		mkTask("c", "farther", dayOffset(30), task.StatusOpen),
	}
	s := SuggestNextTask(tasks, refToday)
	if s.Task == nil || s.Task.ID != "b" {
		t.Fatalf("suggested %v, want first open task b", s.Task)
	}
}

func TestSuggestNextTaskEmpty(t *testing.T) {
	s := SuggestNextTask(nil, refToday)
	if s.Task != nil {
		t.Fatalf("expected no task, got %v", s.Task)
	}
	if !strings.Contains(strings.ToLower(s.Rationale), "no open tasks") {
		t.Fatalf("rationale %q does not mention no open tasks", s.Rationale)
	}
}

func TestDeadlineConflictsBoundary(t *testing.T) {
	mk := func(n int) []task.Task {
		out := make([]task.Task, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, mkTask(string(rune('a'+i)), "x", "2025-12-01", task.StatusOpen))
		}
		return out
	}

	if warnings := DeadlineConflicts(mk(3)); len(warnings) != 0 {
		t.Fatalf("3 tasks same day produced warnings: %v", warnings)
	}
	warnings := DeadlineConflicts(mk(4))
	if len(warnings) != 1 {
		t.Fatalf("4 tasks same day produced %d warnings, want 1", len(warnings))
	}
	if !strings.Contains(warnings[0], "4") || !strings.Contains(warnings[0], "2025-12-01") {
		t.Fatalf("warning %q does not name count and date", warnings[0])
	}
}

func TestDeadlineConflictsIgnoresDoneTasks(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "x", "2025-12-01", task.StatusOpen),
		mkTask("b", "x", "2025-12-01", task.StatusOpen),
		mkTask("c", "x", "2025-12-01", task.StatusOpen),
		mkTask("d", "x", "2025-12-01", task.StatusDone),
	}
	if warnings := DeadlineConflicts(tasks); len(warnings) != 0 {
		t.Fatalf("done task counted toward conflict: %v", warnings)
	}
}

func TestBuildStudyPlanBuckets(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "overdue", dayOffset(-3), task.StatusOpen),
		mkTask("b", "today", dayOffset(0), task.StatusOpen),
		mkTask("c", "tomorrow", dayOffset(1), task.StatusOpen),
		mkTask("d", "week", dayOffset(5), task.StatusOpen),
		mkTask("e", "beyond", dayOffset(9), task.StatusOpen),
		mkTask("f", "closed", dayOffset(0), task.StatusDone),
		mkTask("g", "bad", "oops", task.StatusOpen),
	}
	p := BuildStudyPlan(tasks, refToday)
	if got := ids(p.Today); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("today bucket = %v, want [a b] (overdue merges into today)", got)
	}
	if got := ids(p.Tomorrow); len(got) != 1 || got[0] != "c" {
		t.Fatalf("tomorrow bucket = %v, want [c]", got)
	}
	if got := ids(p.ThisWeek); len(got) != 1 || got[0] != "d" {
		t.Fatalf("this-week bucket = %v, want [d]", got)
	}
}

func TestInsightsThresholds(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "x", dayOffset(0), task.StatusDone),
		mkTask("b", "x", dayOffset(0), task.StatusDone),
		mkTask("c", "x", dayOffset(0), task.StatusDone),
		mkTask("d", "x", dayOffset(0), task.StatusDone),
		mkTask("e", "x", dayOffset(0), task.StatusOpen),
	}
	// 80% done, 6 overdue, 12 today: all three rules fire, no filler.
	out := Insights(tasks, 6, 12, FirstPicker)
	if len(out) != 3 {
		t.Fatalf("expected 3 insights, got %d: %v", len(out), out)
	}
	if !strings.Contains(out[0], "6 overdue") {
		t.Fatalf("insight %q missing strong overdue warning", out[0])
	}
	if !strings.Contains(out[1], "80%") {
		t.Fatalf("insight %q missing completion praise", out[1])
	}
	if !strings.Contains(out[2], "prioritizing") {
		t.Fatalf("insight %q missing reprioritize note", out[2])
	}
}

func TestInsightsAppendsMotivationWhenSparse(t *testing.T) {
	out := Insights(nil, 0, 0, FirstPicker)
	if len(out) != 1 {
		t.Fatalf("expected only the motivational filler, got %v", out)
	}
	if out[0] != motivationalTips[0] {
		t.Fatalf("filler = %q, want first pool entry via FirstPicker", out[0])
	}
}

func TestInsightsNoCompletionMessageOnEmptyList(t *testing.T) {
	for _, msg := range Insights(nil, 0, 0, FirstPicker) {
		if strings.Contains(msg, "%") {
			t.Fatalf("empty task list produced completion-rate message %q", msg)
		}
	}
}

func TestSummarize(t *testing.T) {
	tasks := []task.Task{
		mkTask("a", "late", dayOffset(-1), task.StatusOpen),
		mkTask("b", "today", dayOffset(0), task.StatusOpen),
		mkTask("c", "soon", dayOffset(3), task.StatusOpen),
		mkTask("d", "far", dayOffset(6), task.StatusOpen),
		mkTask("e", "done", dayOffset(0), task.StatusDone),
	}
	s := Summarize(tasks, refToday)
	if s.Total != 5 || s.Open != 4 || s.Done != 1 {
		t.Fatalf("counts = %d/%d/%d", s.Total, s.Open, s.Done)
	}
	if s.CompletionRate != 20 {
		t.Fatalf("completion rate = %d, want 20", s.CompletionRate)
	}
	if len(s.Overdue) != 1 || len(s.Today) != 1 || len(s.Upcoming) != 1 {
		t.Fatalf("section sizes = %d/%d/%d", len(s.Overdue), len(s.Today), len(s.Upcoming))
	}
}

func TestMotivatePoolsAreDeterministicWithPinnedPicker(t *testing.T) {
	cases := []struct {
		s    Summary
		want string
	}{
		{Summary{Total: 0}, motivateClear[0]},
		{Summary{Total: 4, CompletionRate: 80}, motivateHigh[0]},
		{Summary{Total: 4, CompletionRate: 50}, motivateMedium[0]},
		{Summary{Total: 4, CompletionRate: 10}, motivateLow[0]},
	}
	for _, c := range cases {
		if got := Motivate(c.s, FirstPicker); got != c.want {
			t.Fatalf("Motivate(rate=%d) = %q, want %q", c.s.CompletionRate, got, c.want)
		}
	}
}

func TestSuggestLinks(t *testing.T) {
	tasks := []task.Task{
		mkTask("t1", "Study Python basics", dayOffset(1), task.StatusOpen),
		mkTask("t2", "Buy groceries", dayOffset(1), task.StatusOpen),
		mkTask("t3", "Python review", dayOffset(1), task.StatusDone),
	}
	notes := []NoteRef{
		{ID: "n1", Title: "Python cheatsheet"},
		{ID: "n2", Title: "Grocery list"},
	}
	out := SuggestLinks(tasks, notes)
	if len(out) != 1 {
		t.Fatalf("expected 1 suggestion, got %d: %v", len(out), out)
	}
	if out[0].TaskID != "t1" || out[0].NoteID != "n1" {
		t.Fatalf("suggestion pairs %s with %s", out[0].TaskID, out[0].NoteID)
	}
}

func TestSuggestLinksCap(t *testing.T) {
	var tasks []task.Task
	for i := 0; i < 4; i++ {
		tasks = append(tasks, mkTask(string(rune('a'+i)), "shared word", dayOffset(1), task.StatusOpen))
	}
	notes := []NoteRef{{ID: "n1", Title: "shared"}, {ID: "n2", Title: "word"}}
	out := SuggestLinks(tasks, notes)
	if len(out) != 5 {
		t.Fatalf("expected cap of 5 suggestions, got %d", len(out))
	}
}
