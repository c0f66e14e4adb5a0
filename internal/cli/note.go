package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"pkms/internal/store"
)

func cmdNote(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) == 0 {
		printNoteHelp()
		return ExitUsage
	}
	sub := args[0]
	subArgs := args[1:]

	switch sub {
	case "create", "new", "add":
		return cmdNoteCreate(ws, gf, subArgs)
	case "ls", "list":
		return cmdNoteList(ws, gf, subArgs)
	case "show", "cat":
		return cmdNoteShow(ws, subArgs)
	case "edit":
		return cmdNoteEdit(ws, gf, subArgs)
	case "rm", "del":
		return cmdNoteDelete(ws, gf, subArgs)
	case "search":
		return cmdNoteSearch(ws, gf, subArgs)
	case "tag":
		return cmdNoteTag(ws, gf, subArgs)
	case "untag":
		return cmdNoteUntag(ws, gf, subArgs)
	case "tags":
		return cmdNoteTags(ws)
	case "link":
		return cmdNoteLink(ws, gf, subArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown note command: %s\n\n", sub)
		printNoteHelp()
		return ExitUsage
	}
}

func printNoteHelp() {
	fmt.Fprint(os.Stderr, `Usage: pkms note <command> [args]

Commands:
  create "<title>" [--body <text>] [--tags <a,b,c>]
  ls [--tag <tag>]
  show <id-prefix>
  edit <id-prefix> --body <text>
  rm <id-prefix>
  search <query>
  tag <id-prefix> <tag>
  untag <id-prefix> <tag>
  tags
  link <note-id-prefix> <task-id-prefix>
`)
}

func cmdNoteCreate(ws *store.Workspace, gf GlobalFlags, args []string) int {
	fs := flag.NewFlagSet("note create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	body := fs.String("body", "", "Note body")
	tags := fs.String("tags", "", "Comma-separated tags")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--body": true, "--tags": true})); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, `Usage: pkms note create "<title>" [--body <text>] [--tags <a,b,c>]`)
		return ExitUsage
	}
	var tagList []string
	for _, t := range strings.Split(*tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tagList = append(tagList, t)
		}
	}
	n, err := ws.CreateNote(strings.Join(rest, " "), *body, tagList)
	if err != nil {
		return fail("note create", err)
	}
	if !gf.Quiet {
		fmt.Printf("Created note [%s] %s\n", shortID(n.ID), n.Title)
	}
	return ExitOK
}

func cmdNoteList(ws *store.Workspace, gf GlobalFlags, args []string) int {
	fs := flag.NewFlagSet("note ls", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	tag := fs.String("tag", "", "Filter by tag")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--tag": true})); err != nil {
		return ExitUsage
	}
	var (
		notes []store.Note
		err   error
	)
	if t := strings.TrimSpace(*tag); t != "" {
		notes, err = ws.NotesByTag(t)
	} else {
		notes, err = ws.ListNotes()
	}
	if err != nil {
		return fail("note ls", err)
	}
	writeNoteTable(os.Stdout, notes, gf.Plain)
	return ExitOK
}

func cmdNoteShow(ws *store.Workspace, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note show <id-prefix>")
		return ExitUsage
	}
	n, err := ws.GetNoteByPrefix(args[0])
	if err != nil {
		return fail("note show", err)
	}
	fmt.Printf("[%s] %s\n", shortID(n.ID), n.Title)
	if len(n.Tags) > 0 {
		fmt.Println("Tags:", strings.Join(n.Tags, ", "))
	}
	if len(n.LinkedTasks) > 0 {
		fmt.Println("Linked tasks:", strings.Join(n.LinkedTasks, ", "))
	}
	if n.Body != "" {
		fmt.Println()
		fmt.Println(n.Body)
	}
	return ExitOK
}

func cmdNoteEdit(ws *store.Workspace, gf GlobalFlags, args []string) int {
	fs := flag.NewFlagSet("note edit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	body := fs.String("body", "", "New note body")
	if err := fs.Parse(reorderFlags(args, map[string]bool{"--body": true})); err != nil {
		return ExitUsage
	}
	rest := fs.Args()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note edit <id-prefix> --body <text>")
		return ExitUsage
	}
	n, err := ws.UpdateNoteBody(rest[0], *body)
	if err != nil {
		return fail("note edit", err)
	}
	if !gf.Quiet {
		fmt.Printf("Updated note [%s] %s\n", shortID(n.ID), n.Title)
	}
	return ExitOK
}

func cmdNoteDelete(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note rm <id-prefix>")
		return ExitUsage
	}
	n, err := ws.DeleteNote(args[0])
	if err != nil {
		return fail("note rm", err)
	}
	if !gf.Quiet {
		fmt.Printf("Deleted note [%s] %s\n", shortID(n.ID), n.Title)
	}
	return ExitOK
}

func cmdNoteSearch(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note search <query>")
		return ExitUsage
	}
	notes, err := ws.SearchNotes(strings.Join(args, " "))
	if err != nil {
		return fail("note search", err)
	}
	writeNoteTable(os.Stdout, notes, gf.Plain)
	return ExitOK
}

func cmdNoteTag(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note tag <id-prefix> <tag>")
		return ExitUsage
	}
	n, err := ws.AddNoteTag(args[0], args[1])
	if err != nil {
		return fail("note tag", err)
	}
	if !gf.Quiet {
		fmt.Printf("Tags for %s: %s\n", shortID(n.ID), strings.Join(n.Tags, ", "))
	}
	return ExitOK
}

func cmdNoteUntag(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note untag <id-prefix> <tag>")
		return ExitUsage
	}
	n, err := ws.RemoveNoteTag(args[0], args[1])
	if err != nil {
		return fail("note untag", err)
	}
	if !gf.Quiet {
		fmt.Printf("Tags for %s: %s\n", shortID(n.ID), strings.Join(n.Tags, ", "))
	}
	return ExitOK
}

func cmdNoteTags(ws *store.Workspace) int {
	notes, err := ws.ListNotes()
	if err != nil {
		return fail("note tags", err)
	}
	counts := map[string]int{}
	for _, n := range notes {
		for _, t := range n.Tags {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		fmt.Println("No tags.")
		return ExitOK
	}
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	for _, t := range tags {
		fmt.Printf("%s (%d)\n", t, counts[t])
	}
	return ExitOK
}

func cmdNoteLink(ws *store.Workspace, gf GlobalFlags, args []string) int {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: pkms note link <note-id-prefix> <task-id-prefix>")
		return ExitUsage
	}
	n, err := ws.LinkNoteToTask(args[0], args[1])
	if err != nil {
		return fail("note link", err)
	}
	if !gf.Quiet {
		fmt.Printf("Linked note [%s] to %d task(s)\n", shortID(n.ID), len(n.LinkedTasks))
	}
	return ExitOK
}

func writeNoteTable(out io.Writer, notes []store.Note, plain bool) {
	if len(notes) == 0 {
		fmt.Fprintln(out, "No notes.")
		return
	}
	if plain {
		fmt.Fprintln(out, "ID\tTITLE\tTAGS")
		for _, n := range notes {
			fmt.Fprintf(out, "%s\t%s\t%s\n", n.ID, n.Title, strings.Join(n.Tags, ","))
		}
		return
	}
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTAGS")
	for _, n := range notes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ID, n.Title, strings.Join(n.Tags, ","))
	}
	_ = w.Flush()
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}
