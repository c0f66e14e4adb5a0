package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pkms/internal/plan"
	"pkms/internal/task"
)

func writeTaskTable(out io.Writer, tasks []task.Task, plain bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}
	if plain {
		fmt.Fprintln(out, "ID\tTITLE\tDUE\tSTATUS")
		for _, t := range tasks {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Due, t.Status)
		}
		return
	}
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDUE\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Title, t.Due, t.Status)
	}
	_ = w.Flush()
}

func writeSections(out io.Writer, s plan.PlanSections) {
	if s.Empty() {
		fmt.Fprintln(out, "Nothing urgent on the plan.")
		return
	}
	writeSection(out, "OVERDUE", s.Overdue)
	writeSection(out, "TODAY", s.Today)
	writeSection(out, "TOMORROW", s.Tomorrow)
	writeSection(out, "UPCOMING", s.Upcoming)
}

func writeSection(out io.Writer, label string, tasks []task.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", label, len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(out, "  %s\n", taskLine(t))
	}
	fmt.Fprintln(out)
}

func taskLine(t task.Task) string {
	return fmt.Sprintf("[%s] %s (due %s) [%s]", t.IDShort(10), t.Title, t.Due, t.Status)
}

func writeStudyPlan(out io.Writer, p plan.StudyPlan) {
	if p.Empty() {
		fmt.Fprintln(out, "No upcoming tasks. You're all clear!")
		return
	}
	writeSection(out, "Today", p.Today)
	writeSection(out, "Tomorrow", p.Tomorrow)
	writeSection(out, "This week", p.ThisWeek)
}

func writeSummary(out io.Writer, s plan.Summary) {
	fmt.Fprintf(out, "Total tasks: %d\n", s.Total)
	fmt.Fprintf(out, "  Done: %d\n", s.Done)
	fmt.Fprintf(out, "  Open: %d\n", s.Open)
	fmt.Fprintf(out, "  Completion rate: %d%%\n", s.CompletionRate)
	if len(s.Overdue) > 0 {
		fmt.Fprintf(out, "Overdue: %d task(s)\n", len(s.Overdue))
	}
	if len(s.Today) > 0 {
		fmt.Fprintf(out, "Today: %d task(s)\n", len(s.Today))
	}
	if len(s.Upcoming) > 0 {
		fmt.Fprintf(out, "Upcoming (3 days): %d task(s)\n", len(s.Upcoming))
	}
}
