package plan

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pkms/internal/task"
)

// Picker selects an index in [0,n). It isolates the only source of
// non-determinism in this package (motivational message choice) so
// tests can pin the output.
type Picker func(n int) int

// RandomPicker is the production default.
func RandomPicker(n int) int { return rand.Intn(n) }

// FirstPicker always selects index 0. Useful for deterministic output.
func FirstPicker(int) int { return 0 }

// Suggestion pairs a selected task (Task is nil when nothing fits)
// with a human-readable rationale.
type Suggestion struct {
	Task      *task.Task
	Rationale string
}

// SuggestNextTask picks the single best task to work on now. The
// cascade, first non-empty branch wins:
//
//  1. most-overdue open task
//  2. first open task due today, in input order
//  3. soonest open task due within 3 days
//  4. first open task
//  5. nothing open
func SuggestNextTask(tasks []task.Task, today time.Time) Suggestion {
	today = task.Midnight(today)
	var open []task.Task
	for _, t := range tasks {
		if t.Open() {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return Suggestion{Rationale: "No open tasks. You're all caught up!"}
	}

	var worst *task.Task
	worstDays := 0
	for i, t := range open {
		due, ok := task.ParseCanonical(t.Due)
		if !ok {
			continue
		}
		if days := task.DaysBetween(due, today); days > 0 && days > worstDays {
			worst = &open[i]
			worstDays = days
		}
	}
	if worst != nil {
		return Suggestion{
			Task:      worst,
			Rationale: fmt.Sprintf("This task is %d day(s) overdue! Start with this one.", worstDays),
		}
	}

	for i, t := range open {
		if due, ok := task.ParseCanonical(t.Due); ok && task.DaysBetween(today, due) == 0 {
			return Suggestion{Task: &open[i], Rationale: "This is due today. Focus on it now!"}
		}
	}

	var soonest *task.Task
	soonestDays := 0
	for i, t := range open {
		due, ok := task.ParseCanonical(t.Due)
		if !ok {
			continue
		}
		days := task.DaysBetween(today, due)
		if days > 0 && days <= 3 && (soonest == nil || days < soonestDays) {
			soonest = &open[i]
			soonestDays = days
		}
	}
	if soonest != nil {
		return Suggestion{
			Task:      soonest,
			Rationale: fmt.Sprintf("Due in %d day(s). Better start working on it!", soonestDays),
		}
	}

	return Suggestion{Task: &open[0], Rationale: "Start with this task to make progress!"}
}

// conflictThreshold: more than this many open tasks due the same day
// produces a warning.
const conflictThreshold = 3

// DeadlineConflicts warns when too many open tasks share one due date.
// Grouping is by the literal stored string; stored dates are canonical,
// so distinct spellings of one calendar date do not occur in practice.
func DeadlineConflicts(tasks []task.Task) []string {
	byDue := map[string]int{}
	var order []string
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		if byDue[t.Due] == 0 {
			order = append(order, t.Due)
		}
		byDue[t.Due]++
	}
	var warnings []string
	for _, due := range order {
		if n := byDue[due]; n > conflictThreshold {
			warnings = append(warnings, fmt.Sprintf("%d tasks due on %s. Consider rescheduling some.", n, due))
		}
	}
	return warnings
}

// StudyPlan spreads open tasks across the next week. Overdue work is
// folded into Today on purpose.
type StudyPlan struct {
	Today    []task.Task
	Tomorrow []task.Task
	ThisWeek []task.Task
}

func (p StudyPlan) Empty() bool {
	return len(p.Today) == 0 && len(p.Tomorrow) == 0 && len(p.ThisWeek) == 0
}

// BuildStudyPlan buckets open tasks by days-until-due: <=0 today, ==1
// tomorrow, 2..7 this week. Unparseable due dates are skipped.
func BuildStudyPlan(tasks []task.Task, today time.Time) StudyPlan {
	today = task.Midnight(today)
	var p StudyPlan
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		due, ok := task.ParseCanonical(t.Due)
		if !ok {
			continue
		}
		switch days := task.DaysBetween(today, due); {
		case days <= 0:
			p.Today = append(p.Today, t)
		case days == 1:
			p.Tomorrow = append(p.Tomorrow, t)
		case days <= 7:
			p.ThisWeek = append(p.ThisWeek, t)
		}
	}
	return p
}

var motivationalTips = []string{
	"Pro tip: break large tasks into smaller, manageable chunks!",
	"Energy tip: take short breaks between tasks to stay focused.",
	"Focus tip: work on one task at a time for better results.",
	"Organization tip: review your tasks every morning.",
	"Remember: progress, not perfection!",
}

// Insights produces rule-based productivity observations. When the
// rules yield fewer than three, one motivational tip chosen by pick is
// appended.
func Insights(tasks []task.Task, overdueCount, todayCount int, pick Picker) []string {
	var out []string

	if overdueCount > 5 {
		out = append(out, fmt.Sprintf("You have %d overdue tasks. Consider reviewing your priorities.", overdueCount))
	} else if overdueCount > 0 {
		out = append(out, fmt.Sprintf("%d task(s) overdue. Try to catch up today!", overdueCount))
	}

	if len(tasks) > 0 {
		done := 0
		for _, t := range tasks {
			if t.Status == task.StatusDone {
				done++
			}
		}
		rate := done * 100 / len(tasks)
		switch {
		case rate >= 80:
			out = append(out, fmt.Sprintf("Excellent! %d%% completion rate!", rate))
		case rate >= 50:
			out = append(out, fmt.Sprintf("Good progress! %d%% tasks completed.", rate))
		default:
			out = append(out, fmt.Sprintf("%d%% done. Keep pushing!", rate))
		}
	}

	if todayCount > 10 {
		out = append(out, "You have many tasks today. Consider prioritizing the most important ones.")
	} else if todayCount > 0 {
		out = append(out, fmt.Sprintf("%d task(s) due today. You've got this!", todayCount))
	}

	if len(out) < 3 {
		out = append(out, motivationalTips[pick(len(motivationalTips))])
	}
	return out
}

// Summary aggregates one day's standing: counts, completion rate, and
// the open tasks that are overdue, due today, or due within 3 days.
type Summary struct {
	Total          int
	Open           int
	Done           int
	CompletionRate int // done/total*100, integer-truncated; 0 when empty
	Overdue        []task.Task
	Today          []task.Task
	Upcoming       []task.Task // due within the next 3 days
}

func Summarize(tasks []task.Task, today time.Time) Summary {
	today = task.Midnight(today)
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == task.StatusDone {
			s.Done++
			continue
		}
		s.Open++
		due, ok := task.ParseCanonical(t.Due)
		if !ok {
			continue
		}
		switch days := task.DaysBetween(today, due); {
		case days < 0:
			s.Overdue = append(s.Overdue, t)
		case days == 0:
			s.Today = append(s.Today, t)
		case days <= 3:
			s.Upcoming = append(s.Upcoming, t)
		}
	}
	if s.Total > 0 {
		s.CompletionRate = s.Done * 100 / s.Total
	}
	return s
}

var (
	motivateHigh = []string{
		"Amazing work! You're crushing it!",
		"You're on fire! Keep up the great work!",
		"Fantastic progress! You're doing great!",
	}
	motivateMedium = []string{
		"Good progress! Keep going!",
		"You're making steady progress. Stay focused!",
		"Doing well! A little more effort and you'll be there!",
	}
	motivateLow = []string{
		"Every journey starts with a single step. You can do this!",
		"Don't give up! Small progress is still progress!",
		"Focus on one task at a time. You've got this!",
	}
	motivateClear = []string{
		"All clear! Time to relax or plan ahead!",
		"You're all caught up! Great job!",
		"Take a well-deserved break!",
	}
)

// Motivate returns an encouragement matched to the completion rate.
func Motivate(s Summary, pick Picker) string {
	var pool []string
	switch {
	case s.Total == 0:
		pool = motivateClear
	case s.CompletionRate >= 75:
		pool = motivateHigh
	case s.CompletionRate >= 40:
		pool = motivateMedium
	default:
		pool = motivateLow
	}
	return pool[pick(len(pool))]
}

// NoteRef is the slice of the note store this package needs for link
// suggestions.
type NoteRef struct {
	ID    string
	Title string
}

type LinkSuggestion struct {
	TaskID      string
	NoteID      string
	Description string
}

// maxLinkSuggestions caps SuggestLinks output.
const maxLinkSuggestions = 5

// SuggestLinks proposes note-task pairs whose titles share at least one
// lowercased word. Done tasks are skipped; candidates come back in
// tasks-then-notes scan order, at most five.
func SuggestLinks(tasks []task.Task, notes []NoteRef) []LinkSuggestion {
	var out []LinkSuggestion
	for _, t := range tasks {
		if !t.Open() {
			continue
		}
		taskWords := titleWords(t.Title)
		for _, n := range notes {
			if sharesWord(taskWords, titleWords(n.Title)) {
				out = append(out, LinkSuggestion{
					TaskID:      t.ID,
					NoteID:      n.ID,
					Description: fmt.Sprintf("Task %q <-> Note %q", t.Title, n.Title),
				})
				if len(out) == maxLinkSuggestions {
					return out
				}
			}
		}
	}
	return out
}

func titleWords(title string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		words[w] = true
	}
	return words
}

func sharesWord(a, b map[string]bool) bool {
	for w := range b {
		if a[w] {
			return true
		}
	}
	return false
}
