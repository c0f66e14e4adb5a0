package plan

import (
	"sort"
	"strings"
	"time"

	"pkms/internal/task"
)

// Bucket is a derived urgency classification. It is recomputed from
// (due, status, today) on every query and never stored.
type Bucket string

const (
	BucketOverdue  Bucket = "overdue"
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketUpcoming Bucket = "upcoming"
	BucketNone     Bucket = "none"
)

// upcomingWindowDays bounds the Upcoming bucket: due within the next 7
// days, exclusive of Today/Tomorrow.
const upcomingWindowDays = 7

// Classify assigns a task its urgency bucket relative to today.
// A stored due value that no longer parses is treated as due in 7 days
// so malformed rows still surface in Upcoming instead of vanishing.
// Done tasks are never Overdue.
func Classify(t task.Task, today time.Time) Bucket {
	today = task.Midnight(today)
	due, ok := task.ParseCanonical(t.Due)
	if !ok {
		due = today.AddDate(0, 0, upcomingWindowDays)
	}
	days := task.DaysBetween(today, due)
	switch {
	case days < 0 && t.Status == task.StatusOpen:
		return BucketOverdue
	case days < 0:
		return BucketNone
	case days == 0:
		return BucketToday
	case days == 1:
		return BucketTomorrow
	case days <= upcomingWindowDays:
		return BucketUpcoming
	default:
		return BucketNone
	}
}

// PlanSections groups tasks by bucket, in display order. Tasks that
// classify as None appear nowhere.
type PlanSections struct {
	Overdue  []task.Task
	Today    []task.Task
	Tomorrow []task.Task
	Upcoming []task.Task
}

func (s PlanSections) Empty() bool {
	return len(s.Overdue) == 0 && len(s.Today) == 0 && len(s.Tomorrow) == 0 && len(s.Upcoming) == 0
}

// Sections classifies every task and groups the survivors. Each bucket
// is sorted by (due, lowercased title) so same-day ties render in a
// stable order regardless of storage order.
func Sections(tasks []task.Task, today time.Time) PlanSections {
	var s PlanSections
	for _, t := range tasks {
		switch Classify(t, today) {
		case BucketOverdue:
			s.Overdue = append(s.Overdue, t)
		case BucketToday:
			s.Today = append(s.Today, t)
		case BucketTomorrow:
			s.Tomorrow = append(s.Tomorrow, t)
		case BucketUpcoming:
			s.Upcoming = append(s.Upcoming, t)
		}
	}
	for _, b := range [][]task.Task{s.Overdue, s.Today, s.Tomorrow, s.Upcoming} {
		sortByDueTitle(b)
	}
	return s
}

func sortByDueTitle(tasks []task.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := dueOrdinal(tasks[i]), dueOrdinal(tasks[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return strings.ToLower(tasks[i].Title) < strings.ToLower(tasks[j].Title)
	})
}

// dueOrdinal is the sort key for a due value. Unparseable dates order
// as maximally-distant future rather than breaking the sort.
func dueOrdinal(t task.Task) time.Time {
	d, ok := task.ParseCanonical(t.Due)
	if !ok {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return d
}

// SortForPlan totally orders tasks for the flat plan view: open before
// done, then by due date, then by lowercased title. The input slice is
// left untouched.
func SortForPlan(tasks []task.Task) []task.Task {
	out := make([]task.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := statusRank(out[i].Status), statusRank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		di, dj := dueOrdinal(out[i]), dueOrdinal(out[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out
}

func statusRank(s task.Status) int {
	if s == task.StatusDone {
		return 1
	}
	return 0
}
