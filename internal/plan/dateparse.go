// Package plan is the temporal classification and prioritization
// engine: it parses due-date expressions, buckets tasks by urgency,
// orders them for display, and derives suggestions from that
// classification. Every function takes the reference date explicitly
// and holds no state, so results are deterministic per call.
package plan

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pkms/internal/task"
)

// ParseError reports a due-date expression that matched no grammar rule.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized due date %q (try YYYY-MM-DD, today, tomorrow, +3d, +2w, next monday, fri)", e.Input)
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// Parse resolves a human due-date expression against today. Rules are
// tried in order; the first match wins:
//
//	2025-12-01          literal calendar date
//	today               today
//	tomorrow|tmr|tmrw   today+1
//	+Nd / +Nw           today+N days / today+7N days
//	next <weekday>      strictly after today, skipping the current week
//	<weekday>           next occurrence, today included when it matches
//
// Matching is case-insensitive after trimming. The literal-date rule
// tolerates unpadded month/day ("2025-2-3"); the result is always
// re-canonicalized before storage. Anything else fails with
// *ParseError.
func Parse(expr string, today time.Time) (time.Time, error) {
	raw := strings.TrimSpace(expr)
	in := strings.ToLower(raw)
	today = task.Midnight(today)

	if d, err := time.Parse(task.DateFormat, in); err == nil {
		return d, nil
	}

	switch in {
	case "today":
		return today, nil
	case "tomorrow", "tmr", "tmrw":
		return today.AddDate(0, 0, 1), nil
	}

	if d, ok := parseRelative(in, today); ok {
		return d, nil
	}

	if rest, ok := strings.CutPrefix(in, "next "); ok {
		if wd, ok := weekdays[strings.TrimSpace(rest)]; ok {
			return nextWeekday(today, wd, true), nil
		}
	}

	if wd, ok := weekdays[in]; ok {
		return nextWeekday(today, wd, false), nil
	}

	return time.Time{}, &ParseError{Input: raw}
}

// ParseToCanonical is Parse with the result rendered in storage form.
func ParseToCanonical(expr string, today time.Time) (string, error) {
	d, err := Parse(expr, today)
	if err != nil {
		return "", err
	}
	return d.Format(task.DateFormat), nil
}

func parseRelative(in string, today time.Time) (time.Time, bool) {
	if len(in) < 3 || in[0] != '+' {
		return time.Time{}, false
	}
	unit := in[len(in)-1]
	n, err := strconv.Atoi(in[1 : len(in)-1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}
	switch unit {
	case 'd':
		return today.AddDate(0, 0, n), true
	case 'w':
		return today.AddDate(0, 0, 7*n), true
	}
	return time.Time{}, false
}

// nextWeekday finds the next occurrence of wd. With skipCurrent the
// current week is skipped entirely, so the result is always 7-13 days
// out; otherwise today itself counts when it matches.
func nextWeekday(today time.Time, wd time.Weekday, skipCurrent bool) time.Time {
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	if skipCurrent {
		ahead += 7
	}
	return today.AddDate(0, 0, ahead)
}
