package cli

import (
	"reflect"
	"testing"
)

func run(t *testing.T, root string, args ...string) int {
	t.Helper()
	full := append([]string{"--root", root, "--today", "2025-12-01", "--quiet"}, args...)
	return Run(full)
}

func TestExtractGlobalFlags(t *testing.T) {
	gf, rest, err := extractGlobalFlags([]string{"--root", "/tmp/x", "--plain", "add", "hello", "--today", "2025-12-01"})
	if err != nil {
		t.Fatal(err)
	}
	if gf.Root != "/tmp/x" || !gf.Plain || gf.Today != "2025-12-01" {
		t.Fatalf("flags = %+v", gf)
	}
	if !reflect.DeepEqual(rest, []string{"add", "hello"}) {
		t.Fatalf("rest = %v", rest)
	}
}

func TestExtractGlobalFlagsMissingValue(t *testing.T) {
	if _, _, err := extractGlobalFlags([]string{"add", "--root"}); err == nil {
		t.Fatal("dangling --root accepted")
	}
}

func TestReorderFlagsMovesFlagsFirst(t *testing.T) {
	got := reorderFlags([]string{"Buy", "milk", "--due", "tomorrow"}, map[string]bool{"--due": true})
	want := []string{"--due", "tomorrow", "Buy", "milk"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reordered = %v", got)
	}
}

func TestRunExitCodes(t *testing.T) {
	root := t.TempDir()

	if code := run(t, root, "init"); code != ExitOK {
		t.Fatalf("init = %d", code)
	}
	if code := run(t, root, "add", "Write tests", "--due", "tomorrow"); code != ExitOK {
		t.Fatalf("add = %d", code)
	}
	if code := run(t, root, "add", "Vague", "--due", "someday"); code != ExitUsage {
		t.Fatalf("bad due expression = %d, want %d", code, ExitUsage)
	}
	if code := run(t, root, "done", "tsk_missing"); code != ExitNotFound {
		t.Fatalf("done unknown = %d, want %d", code, ExitNotFound)
	}
	if code := run(t, root, "add", "Second", "--due", "today"); code != ExitOK {
		t.Fatalf("add second = %d", code)
	}
	if code := run(t, root, "done", "tsk_"); code != ExitConflict {
		t.Fatalf("ambiguous prefix = %d, want %d", code, ExitConflict)
	}
	if code := run(t, root, "frobnicate"); code != ExitUsage {
		t.Fatalf("unknown command = %d, want %d", code, ExitUsage)
	}
}

func TestRunRejectsBadTodayOverride(t *testing.T) {
	if code := Run([]string{"--root", t.TempDir(), "--today", "12/01/2025", "ls"}); code != ExitUsage {
		t.Fatalf("bad --today = %d, want %d", code, ExitUsage)
	}
}
