// Package cli is the command-line front-end: flag parsing, dispatch,
// exit codes, and plain-text rendering. All decision logic lives in
// internal/plan; all persistence in internal/store.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pkms/internal/chat"
	"pkms/internal/config"
	"pkms/internal/plan"
	"pkms/internal/store"
	"pkms/internal/task"
	"pkms/internal/web"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	Root  string
	Plain bool
	Quiet bool
	Today string // YYYY-MM-DD override for deterministic output
}

// today resolves the reference date: the --today override when given,
// otherwise the local calendar date.
func (gf GlobalFlags) today() (time.Time, error) {
	if strings.TrimSpace(gf.Today) == "" {
		return task.Midnight(time.Now()), nil
	}
	d, ok := task.ParseCanonical(gf.Today)
	if !ok {
		return time.Time{}, fmt.Errorf("--today must be YYYY-MM-DD, got %q", gf.Today)
	}
	return d, nil
}

func Run(args []string) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}
	if len(rest) == 0 {
		printHelp()
		return ExitUsage
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	ws := store.Open(gf.Root)
	// Missing or unwritable config falls back to defaults.
	cfg, _ := config.LoadOrCreate(ws.Root)

	today, err := gf.today()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return ExitOK
	case "init":
		return cmdInit(ws, gf)
	case "add":
		return cmdAdd(ws, gf, cfg, today, cmdArgs)
	case "ls", "list":
		return cmdList(ws, gf, cmdArgs)
	case "plan":
		return cmdPlan(ws, gf)
	case "sections", "agenda":
		return cmdSections(ws, gf, today)
	case "today":
		return cmdBucket(ws, gf, today, plan.BucketToday)
	case "overdue":
		return cmdBucket(ws, gf, today, plan.BucketOverdue)
	case "done":
		return cmdDone(ws, gf, cmdArgs)
	case "del", "rm":
		return cmdDelete(ws, gf, cmdArgs)
	case "edit":
		return cmdEdit(ws, gf, today, cmdArgs)
	case "search":
		return cmdSearch(ws, gf, cmdArgs)
	case "export":
		return cmdExport(ws, gf, cfg, cmdArgs)
	case "note":
		return cmdNote(ws, gf, cmdArgs)
	case "agent":
		return cmdAgent(ws, gf, today, cmdArgs)
	case "chat":
		return cmdChat(ws, gf)
	case "web":
		return cmdWeb(ws, gf, cfg, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		return ExitUsage
	}
}

func printHelp() {
	fmt.Print(`pkms — personal study planner (tasks + notes, flat files)

Usage:
  pkms [global flags] <command> [args]

Global flags:
  --root <path>   Workspace root (default: ~/.pkms or PKMS_ROOT)
  --today <date>  Override the reference date (YYYY-MM-DD)
  --plain         TSV output
  --quiet

Commands:
  init
  add "<title>" [--due <expr>]      due accepts YYYY-MM-DD, today, tomorrow,
                                    +3d, +2w, "next monday", fri, ...
  ls [--status open|done] [--search <q>]
  plan                              flat priority order (open first, then due)
  sections | agenda                 grouped by urgency
  today | overdue                   filtered views
  done <id-prefix>
  del <id-prefix>
  edit <id-prefix> [--title <t>] [--due <expr>]
  search <query>
  export [--out <path>]
  note <create|ls|show|edit|rm|search|tag|untag|tags|link> ...
  agent <summary|suggest|insights|plan|links|motivate>
  chat                              interactive shell
  web [--addr <host:port>]          web UI
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	gf := GlobalFlags{}

	if env := os.Getenv("PKMS_ROOT"); env != "" {
		gf.Root = env
	} else {
		home, _ := os.UserHomeDir()
		if home != "" {
			gf.Root = filepath.Join(home, ".pkms")
		} else {
			gf.Root = ".pkms"
		}
	}

	out := make([]string, 0, len(args))
	skip := 0
	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch a {
		case "--root":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--root requires a value")
			}
			gf.Root = args[i+1]
			skip = 1
		case "--today":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--today requires a value")
			}
			gf.Today = args[i+1]
			skip = 1
		case "--plain":
			gf.Plain = true
		case "--quiet":
			gf.Quiet = true
		default:
			out = append(out, a)
		}
	}
	return gf, out, nil
}

// fail prints the error and maps it to an exit code.
func fail(cmd string, err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	var pe *plan.ParseError
	switch {
	case errors.As(err, &pe):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrConflict):
		return ExitConflict
	case errors.Is(err, store.ErrInvalid):
		return ExitUsage
	default:
		return ExitInternal
	}
}

func cmdInit(ws *store.Workspace, gf GlobalFlags) int {
	if err := ws.Init(); err != nil {
		return fail("init", err)
	}
	if !gf.Quiet {
		fmt.Println("Initialized pkms workspace at:", ws.Root)
	}
	return ExitOK
}

func cmdAdd(ws *store.Workspace, gf GlobalFlags, cfg config.Config, today time.Time, args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	due := fs.String("due", "", "Due expression (default from config)")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--due": true})); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, `Usage: pkms add "<title>" [--due <expr>]`)
		return ExitUsage
	}
	expr := strings.TrimSpace(*due)
	if expr == "" {
		expr = cfg.DefaultDue
	}
	t, err := ws.AddTask(strings.Join(rest, " "), expr, today)
	if err != nil {
		return fail("add", err)
	}
	if !gf.Quiet {
		fmt.Printf("Added %s\n", taskLine(*t))
	}
	return ExitOK
}

func cmdList(ws *store.Workspace, gf GlobalFlags, args []string) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	status := fs.String("status", "", "Filter by status (open|done)")
	search := fs.String("search", "", "Title substring filter")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--status": true, "--search": true})); err != nil {
		return ExitUsage
	}
	tasks, err := ws.ListTasks()
	if err != nil {
		return fail("ls", err)
	}
	if q := strings.TrimSpace(*search); q != "" {
		tasks = filterTitle(tasks, q)
	}
	switch strings.ToLower(strings.TrimSpace(*status)) {
	case "":
	case "open":
		tasks = filterStatus(tasks, task.StatusOpen)
	case "done":
		tasks = filterStatus(tasks, task.StatusDone)
	default:
		fmt.Fprintln(os.Stderr, "ls: invalid --status (use open|done)")
		return ExitUsage
	}
	writeTaskTable(os.Stdout, tasks, gf.Plain)
	return ExitOK
}

func filterStatus(tasks []task.Task, s task.Status) []task.Task {
	var out []task.Task
	for _, t := range tasks {
		if t.Status == s {
			out = append(out, t)
		}
	}
	return out
}

func filterTitle(tasks []task.Task, q string) []task.Task {
	q = strings.ToLower(q)
	var out []task.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

func cmdPlan(ws *store.Workspace, gf GlobalFlags) int {
	tasks, err := ws.ListTasks()
	if err != nil {
		return fail("plan", err)
	}
	writeTaskTable(os.Stdout, plan.SortForPlan(tasks), gf.Plain)
	return ExitOK
}

func cmdSections(ws *store.Workspace, gf GlobalFlags, today time.Time) int {
	tasks, err := ws.ListTasks()
	if err != nil {
		return fail("sections", err)
	}
	writeSections(os.Stdout, plan.Sections(tasks, today))
	return ExitOK
}

func cmdBucket(ws *store.Workspace, gf GlobalFlags, today time.Time, want plan.Bucket) int {
	tasks, err := ws.ListTasks()
	if err != nil {
		return fail(string(want), err)
	}
	var out []task.Task
	for _, t := range tasks {
		if plan.Classify(t, today) == want {
			out = append(out, t)
		}
	}
	writeTaskTable(os.Stdout, out, gf.Plain)
	return ExitOK
}

func cmdDone(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms done <id-prefix>")
		return ExitUsage
	}
	t, err := ws.MarkDone(args[0])
	if err != nil {
		return fail("done", err)
	}
	if !gf.Quiet {
		fmt.Printf("Done %s  %s\n", t.IDShort(10), t.Title)
	}
	return ExitOK
}

func cmdDelete(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms del <id-prefix>")
		return ExitUsage
	}
	t, err := ws.DeleteTask(args[0])
	if err != nil {
		return fail("del", err)
	}
	if !gf.Quiet {
		fmt.Printf("Deleted %s  %s\n", t.IDShort(10), t.Title)
	}
	return ExitOK
}

func cmdEdit(ws *store.Workspace, gf GlobalFlags, today time.Time, args []string) int {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	title := fs.String("title", "", "New title")
	due := fs.String("due", "", "New due expression")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--title": true, "--due": true})); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms edit <id-prefix> [--title <t>] [--due <expr>]")
		return ExitUsage
	}
	t, err := ws.EditTask(rest[0], store.EditTaskInput{Title: *title, DueExpr: *due}, today)
	if err != nil {
		return fail("edit", err)
	}
	if !gf.Quiet {
		fmt.Printf("Updated %s\n", taskLine(*t))
	}
	return ExitOK
}

func cmdSearch(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms search <query>")
		return ExitUsage
	}
	tasks, err := ws.SearchTasks(strings.Join(args, " "))
	if err != nil {
		return fail("search", err)
	}
	writeTaskTable(os.Stdout, tasks, gf.Plain)
	return ExitOK
}

func cmdExport(ws *store.Workspace, gf GlobalFlags, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	out := fs.String("out", "", "Output CSV path")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--out": true})); err != nil {
		return ExitUsage
	}
	path := strings.TrimSpace(*out)
	if path == "" {
		path = cfg.ExportPath
	}
	written, err := ws.ExportCSVFile(path)
	if err != nil {
		return fail("export", err)
	}
	if !gf.Quiet {
		fmt.Println("Exported to", written)
	}
	return ExitOK
}

func cmdChat(ws *store.Workspace, gf GlobalFlags) int {
	if err := chat.Run(ws, os.Stdin, os.Stdout); err != nil {
		return fail("chat", err)
	}
	return ExitOK
}

func cmdWeb(ws *store.Workspace, gf GlobalFlags, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "", "Listen address (default from config)")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--addr": true})); err != nil {
		return ExitUsage
	}
	listen := strings.TrimSpace(*addr)
	if listen == "" {
		listen = cfg.WebAddr
	}
	if !gf.Quiet {
		fmt.Println("Serving web UI on http://" + listen)
	}
	if err := web.Serve(listen, ws); err != nil {
		return fail("web", err)
	}
	return ExitOK
}

func reorderFlags(args []string, takesValue map[string]bool) []string {
	if len(args) == 0 {
		return args
	}
	var flags []string
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				rest = append(rest, args[i+1:]...)
			}
			break
		}
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if takesValue[a] && !strings.Contains(a, "=") {
				if i+1 < len(args) {
					flags = append(flags, args[i+1])
					i++
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	return append(flags, rest...)
}
