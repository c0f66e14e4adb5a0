// Package chat is the interactive shell: a line-oriented REPL over the
// workspace with the same vocabulary as the CLI, styled with lipgloss.
package chat

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pkms/internal/plan"
	"pkms/internal/store"
	"pkms/internal/task"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// Shell holds the REPL's collaborators. Now and Pick exist so tests can
// pin the date and the motivational message choice.
type Shell struct {
	WS   *store.Workspace
	In   io.Reader
	Out  io.Writer
	Now  func() time.Time
	Pick plan.Picker
}

// Run starts a shell with production defaults on the given streams and
// blocks until exit/quit or EOF.
func Run(ws *store.Workspace, in io.Reader, out io.Writer) error {
	s := &Shell{WS: ws, In: in, Out: out, Now: time.Now, Pick: plan.RandomPicker}
	return s.Run()
}

func (s *Shell) Run() error {
	fmt.Fprintln(s.Out, headingStyle.Render("pkms chat")+dimStyle.Render("  (type 'help' for commands, 'exit' to leave)"))
	sc := bufio.NewScanner(s.In)
	for {
		fmt.Fprint(s.Out, promptStyle.Render("pkms> "))
		if !sc.Scan() {
			fmt.Fprintln(s.Out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "bye" {
			fmt.Fprintln(s.Out, okStyle.Render("See you! Keep up the momentum."))
			return nil
		}
		s.dispatch(line)
	}
}

func (s *Shell) dispatch(line string) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	rest := strings.TrimSpace(line[len(fields[0]):])
	today := task.Midnight(s.Now())

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "clear":
		fmt.Fprint(s.Out, "\033[2J\033[H")
	case "add":
		s.add(rest, today)
	case "list", "ls", "tasks":
		s.list(func(task.Task) bool { return true })
	case "today":
		s.list(func(t task.Task) bool { return plan.Classify(t, today) == plan.BucketToday })
	case "overdue":
		s.list(func(t task.Task) bool { return plan.Classify(t, today) == plan.BucketOverdue })
	case "sections", "agenda":
		s.sections(today)
	case "plan":
		s.studyPlan(today)
	case "done":
		s.done(rest)
	case "delete", "del", "rm":
		s.delete(rest)
	case "edit":
		s.edit(rest, today)
	case "search", "find":
		s.search(rest)
	case "note", "notes":
		s.note(rest)
	case "agent":
		s.agent(rest, today)
	case "suggest", "next":
		s.suggest(today)
	case "summary", "status":
		s.summary(today)
	case "insights":
		s.insights(today)
	case "motivate":
		s.motivate(today)
	default:
		s.errorf("I don't know %q. Type 'help' to see what I can do.", cmd)
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.Out, headingStyle.Render("Commands")+`
  add <title> [due <expr>]   add a task (due: 2025-12-24, today, tomorrow, +3d, next fri, ...)
  list | today | overdue     show tasks
  sections                   tasks grouped by urgency
  plan                       study plan for the week
  done <id>                  mark a task done
  delete <id>                remove a task
  edit <id> due <expr>       reschedule
  edit <id> title <text>     rename
  search <query>             find tasks by title
  note add <title>           capture a note
  note list | note show <id> browse notes
  suggest                    what to work on next
  summary | insights | motivate
  clear | exit
`)
}

func (s *Shell) errorf(format string, args ...any) {
	fmt.Fprintln(s.Out, errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (s *Shell) okf(format string, args ...any) {
	fmt.Fprintln(s.Out, okStyle.Render(fmt.Sprintf(format, args...)))
}

// add accepts "Buy milk due tomorrow"; without a trailing "due <expr>"
// the task lands on today.
func (s *Shell) add(rest string, today time.Time) {
	if rest == "" {
		s.errorf("Tell me what to add, e.g.: add Read chapter 4 due friday")
		return
	}
	title, expr := rest, "today"
	if i := strings.LastIndex(strings.ToLower(rest), " due "); i >= 0 {
		title = strings.TrimSpace(rest[:i])
		expr = strings.TrimSpace(rest[i+len(" due "):])
	}
	t, err := s.WS.AddTask(title, expr, today)
	if err != nil {
		s.errorf("Couldn't add that: %v", err)
		return
	}
	s.okf("Added %q, due %s.", t.Title, t.Due)
}

func (s *Shell) list(keep func(task.Task) bool) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	shown := 0
	for _, t := range tasks {
		if !keep(t) {
			continue
		}
		s.printTask(t)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(s.Out, dimStyle.Render("Nothing here."))
	}
}

func (s *Shell) printTask(t task.Task) {
	line := fmt.Sprintf("[%s] %s (due %s)", t.IDShort(10), t.Title, t.Due)
	if t.Status == task.StatusDone {
		fmt.Fprintln(s.Out, dimStyle.Render(line+" ✓"))
		return
	}
	fmt.Fprintln(s.Out, line)
}

func (s *Shell) sections(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	secs := plan.Sections(tasks, today)
	if secs.Empty() {
		fmt.Fprintln(s.Out, dimStyle.Render("Nothing urgent on the plan."))
		return
	}
	s.printSection("Overdue", secs.Overdue)
	s.printSection("Today", secs.Today)
	s.printSection("Tomorrow", secs.Tomorrow)
	s.printSection("Upcoming", secs.Upcoming)
}

func (s *Shell) printSection(label string, tasks []task.Task) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(s.Out, headingStyle.Render(label))
	for _, t := range tasks {
		s.printTask(t)
	}
}

func (s *Shell) studyPlan(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	p := plan.BuildStudyPlan(tasks, today)
	if p.Empty() {
		s.okf("No upcoming tasks. You're all clear!")
		return
	}
	s.printSection("Today", p.Today)
	s.printSection("Tomorrow", p.Tomorrow)
	s.printSection("This week", p.ThisWeek)
}

func (s *Shell) done(rest string) {
	if rest == "" {
		s.errorf("Which task? Try: done <id>")
		return
	}
	t, err := s.WS.MarkDone(rest)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	s.okf("Nice, %q is done!", t.Title)
}

func (s *Shell) delete(rest string) {
	if rest == "" {
		s.errorf("Which task? Try: delete <id>")
		return
	}
	t, err := s.WS.DeleteTask(rest)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	s.okf("Deleted %q.", t.Title)
}

func (s *Shell) edit(rest string, today time.Time) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		s.errorf("Try: edit <id> due <expr>  or  edit <id> title <text>")
		return
	}
	id := fields[0]
	value := strings.Join(fields[2:], " ")
	var in store.EditTaskInput
	switch strings.ToLower(fields[1]) {
	case "due":
		in.DueExpr = value
	case "title":
		in.Title = value
	default:
		s.errorf("Try: edit <id> due <expr>  or  edit <id> title <text>")
		return
	}
	t, err := s.WS.EditTask(id, in, today)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	s.okf("Updated %q, due %s.", t.Title, t.Due)
}

func (s *Shell) search(rest string) {
	if rest == "" {
		s.errorf("Search for what? Try: search calculus")
		return
	}
	tasks, err := s.WS.SearchTasks(rest)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(s.Out, dimStyle.Render("No matches."))
		return
	}
	for _, t := range tasks {
		s.printTask(t)
	}
}

func (s *Shell) note(rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		s.errorf("Try: note add <title>, note list, note show <id>")
		return
	}
	switch strings.ToLower(fields[0]) {
	case "add", "create", "new":
		title := strings.TrimSpace(rest[len(fields[0]):])
		if title == "" {
			s.errorf("Note needs a title: note add <title>")
			return
		}
		n, err := s.WS.CreateNote(title, "", nil)
		if err != nil {
			s.errorf("%v", err)
			return
		}
		s.okf("Captured note %q [%s].", n.Title, shortID(n.ID))
	case "list", "ls":
		notes, err := s.WS.ListNotes()
		if err != nil {
			s.errorf("%v", err)
			return
		}
		if len(notes) == 0 {
			fmt.Fprintln(s.Out, dimStyle.Render("No notes yet."))
			return
		}
		for _, n := range notes {
			fmt.Fprintf(s.Out, "[%s] %s\n", shortID(n.ID), n.Title)
		}
	case "show", "cat":
		if len(fields) < 2 {
			s.errorf("Which note? Try: note show <id>")
			return
		}
		n, err := s.WS.GetNoteByPrefix(fields[1])
		if err != nil {
			s.errorf("%v", err)
			return
		}
		fmt.Fprintln(s.Out, headingStyle.Render(n.Title))
		if n.Body != "" {
			fmt.Fprintln(s.Out, n.Body)
		}
	default:
		s.errorf("Try: note add <title>, note list, note show <id>")
	}
}

// agent forwards "agent suggest" and friends to the bare commands, so
// the CLI's vocabulary works here unchanged.
func (s *Shell) agent(rest string, today time.Time) {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "suggest":
		s.suggest(today)
	case "summary":
		s.summary(today)
	case "insights":
		s.insights(today)
	case "plan":
		s.studyPlan(today)
	case "motivate":
		s.motivate(today)
	default:
		s.errorf("Try: agent suggest | summary | insights | plan | motivate")
	}
}

func (s *Shell) suggest(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	sg := plan.SuggestNextTask(tasks, today)
	if sg.Task != nil {
		s.printTask(*sg.Task)
	}
	fmt.Fprintln(s.Out, sg.Rationale)
}

func (s *Shell) summary(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	sum := plan.Summarize(tasks, today)
	fmt.Fprintf(s.Out, "%d task(s): %d open, %d done (%d%% complete)\n",
		sum.Total, sum.Open, sum.Done, sum.CompletionRate)
	if n := len(sum.Overdue); n > 0 {
		s.errorf("%d overdue!", n)
	}
	if n := len(sum.Today); n > 0 {
		fmt.Fprintf(s.Out, "%d due today\n", n)
	}
	if n := len(sum.Upcoming); n > 0 {
		fmt.Fprintf(s.Out, "%d coming up in the next 3 days\n", n)
	}
	for _, w := range plan.DeadlineConflicts(tasks) {
		s.errorf("Warning: %s", w)
	}
}

func (s *Shell) insights(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	sum := plan.Summarize(tasks, today)
	secs := plan.Sections(tasks, today)
	for _, line := range plan.Insights(tasks, len(secs.Overdue), len(sum.Today), s.Pick) {
		fmt.Fprintln(s.Out, "- "+line)
	}
}

func (s *Shell) motivate(today time.Time) {
	tasks, err := s.WS.ListTasks()
	if err != nil {
		s.errorf("%v", err)
		return
	}
	s.okf("%s", plan.Motivate(plan.Summarize(tasks, today), s.Pick))
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
