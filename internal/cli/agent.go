package cli

import (
	"fmt"
	"os"
	"time"

	"pkms/internal/plan"
	"pkms/internal/store"
)

func cmdAgent(ws *store.Workspace, gf GlobalFlags, today time.Time, args []string) int {
	if len(args) == 0 {
		printAgentHelp()
		return ExitUsage
	}
	tasks, err := ws.ListTasks()
	if err != nil {
		return fail("agent", err)
	}

	switch args[0] {
	case "summary":
		s := plan.Summarize(tasks, today)
		writeSummary(os.Stdout, s)
		for _, w := range plan.DeadlineConflicts(tasks) {
			fmt.Println("Warning:", w)
		}
		return ExitOK

	case "suggest":
		sg := plan.SuggestNextTask(tasks, today)
		if sg.Task != nil {
			fmt.Println(taskLine(*sg.Task))
		}
		fmt.Println(sg.Rationale)
		return ExitOK

	case "insights":
		s := plan.Summarize(tasks, today)
		sections := plan.Sections(tasks, today)
		for _, line := range plan.Insights(tasks, len(sections.Overdue), len(s.Today), plan.RandomPicker) {
			fmt.Println("-", line)
		}
		return ExitOK

	case "plan":
		writeStudyPlan(os.Stdout, plan.BuildStudyPlan(tasks, today))
		return ExitOK

	case "links":
		notes, err := ws.ListNotes()
		if err != nil {
			return fail("agent links", err)
		}
		suggestions := plan.SuggestLinks(tasks, store.NoteRefs(notes))
		if len(suggestions) == 0 {
			fmt.Println("No link suggestions.")
			return ExitOK
		}
		for _, s := range suggestions {
			fmt.Printf("- %s  (pkms note link %s %s)\n", s.Description, shortID(s.NoteID), shortID(s.TaskID))
		}
		return ExitOK

	case "motivate":
		fmt.Println(plan.Motivate(plan.Summarize(tasks, today), plan.RandomPicker))
		return ExitOK

	default:
		fmt.Fprintf(os.Stderr, "Unknown agent command: %s\n\n", args[0])
		printAgentHelp()
		return ExitUsage
	}
}

func printAgentHelp() {
	fmt.Fprint(os.Stderr, `Usage: pkms agent <command>

Commands:
  summary    counts, completion rate, deadline conflicts
  suggest    the one task to work on next
  insights   rule-based productivity observations
  plan       study plan for today / tomorrow / this week
  links      note-task link suggestions by shared title words
  motivate   encouragement matched to your completion rate
`)
}
