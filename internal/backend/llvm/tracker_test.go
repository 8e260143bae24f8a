package llvm

import (
	"strings"
	"testing"

	"varbuf/internal/target"
	"varbuf/internal/types"
)

func newTestEmitter(t *testing.T) *Emitter {
	t.Helper()
	return NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
}

func TestTracker_RecordAndRemove(t *testing.T) {
	var tr Tracker
	tr.Record("%t1", Site{Ident: "a"})
	tr.Record("%t2", Site{Ident: "b"})

	if got := len(tr.Live()); got != 2 {
		t.Fatalf("live = %d, want 2", got)
	}
	a, ok := tr.remove("%t1")
	if !ok || a.Site.Ident != "a" {
		t.Fatalf("remove(%%t1) = %v, %v", a, ok)
	}
	if _, ok := tr.remove("%t1"); ok {
		t.Fatalf("second remove of the same address succeeded")
	}
	if got := len(tr.Live()); got != 1 {
		t.Fatalf("live = %d after removes, want 1", got)
	}
	// Construction history is unaffected by removal.
	if got := len(tr.ConstructionSites()); got != 2 {
		t.Fatalf("constructions = %d, want 2", got)
	}
}

func TestTracker_FreeBookkeeping(t *testing.T) {
	var tr Tracker
	tr.Record("%t1", Site{Ident: "a"})

	removed, _ := tr.remove("%t1")
	tr.recordFree(Site{Ident: "free-a"}, &removed)
	tr.recordFree(Site{Ident: "free-external"}, nil)

	if got := tr.FreedConstructions(); len(got) != 1 || got[0].Ident != "a" {
		t.Fatalf("freed constructions = %v", got)
	}
	if got := tr.UnmatchedFrees(); len(got) != 1 || got[0].Ident != "free-external" {
		t.Fatalf("unmatched frees = %v", got)
	}
	if got := tr.FreeSites(); len(got) != 2 {
		t.Fatalf("free sites = %d, want 2", len(got))
	}
}

func TestDrainAndFree_ReleasesAllButExcept(t *testing.T) {
	e := newTestEmitter(t)
	fe := e.NewFunc("drain_case")
	fe.tracker.Record("%a", Site{Ident: "a"})
	fe.tracker.Record("%b", Site{Ident: "b"})
	fe.tracker.Record("%c", Site{Ident: "c"})

	fe.DrainAndFree("%b")

	text := fe.Text()
	if !strings.Contains(text, "call void @free(ptr %a)") {
		t.Fatalf("%%a not freed:\n%s", text)
	}
	if !strings.Contains(text, "call void @free(ptr %c)") {
		t.Fatalf("%%c not freed:\n%s", text)
	}
	if strings.Contains(text, "call void @free(ptr %b)") {
		t.Fatalf("excluded %%b was freed:\n%s", text)
	}
	if got := len(fe.tracker.Live()); got != 0 {
		t.Fatalf("live = %d after drain, want 0", got)
	}
	if site, ok := fe.tracker.Returned(); !ok || site.Ident != "b" {
		t.Fatalf("returned site = %v, %v", site, ok)
	}

	// Draining an empty registry emits nothing more.
	before := fe.Text()
	fe.DrainAndFree("")
	if fe.Text() != before {
		t.Fatalf("second drain emitted code")
	}
}

func TestDrainAndFree_NoExcept(t *testing.T) {
	e := newTestEmitter(t)
	fe := e.NewFunc("drain_case")
	fe.tracker.Record("%a", Site{Ident: "a"})

	fe.DrainAndFree("")

	if !strings.Contains(fe.Text(), "call void @free(ptr %a)") {
		t.Fatalf("%%a not freed:\n%s", fe.Text())
	}
	if _, ok := fe.tracker.Returned(); ok {
		t.Fatalf("drain without except marked a return")
	}
}

func TestDrainExcludingReturn_GuardsEveryRelease(t *testing.T) {
	e := newTestEmitter(t)
	l, err := e.Layouts().ArrayOf(e.Types().Builtins().Int32)
	if err != nil {
		t.Fatalf("ArrayOf: %v", err)
	}
	fe := e.NewFunc("guard_case")
	fe.Open("ptr")

	first, err := fe.EmitConstruct(l, "4", "i64", Site{Ident: "first"})
	if err != nil {
		t.Fatalf("EmitConstruct: %v", err)
	}
	if _, err := fe.EmitConstruct(l, "2", "i64", Site{Ident: "second"}); err != nil {
		t.Fatalf("EmitConstruct: %v", err)
	}

	if err := fe.DrainExcludingReturn(first); err != nil {
		t.Fatalf("DrainExcludingReturn: %v", err)
	}
	fe.EmitReturn("ptr", first.Addr)
	fe.Close()

	text := fe.Text()
	// One guard per live allocation: pointer compare, branch, free, join.
	if got := strings.Count(text, "icmp ne ptr"); got != 2 {
		t.Fatalf("guard compares = %d, want 2:\n%s", got, text)
	}
	if got := strings.Count(text, "br i1"); got != 2 {
		t.Fatalf("conditional branches = %d, want 2:\n%s", got, text)
	}
	if got := strings.Count(text, "call void @free"); got != 2 {
		t.Fatalf("guarded frees = %d, want 2:\n%s", got, text)
	}
	if !strings.Contains(text, "bb.inline1:") || !strings.Contains(text, "bb.inline4:") {
		t.Fatalf("inline block labels missing:\n%s", text)
	}
	if got := len(fe.tracker.Live()); got != 0 {
		t.Fatalf("live = %d after drain, want 0", got)
	}
	if site, ok := fe.tracker.Returned(); !ok || site.Ident != "first" {
		t.Fatalf("returned site = %v, %v", site, ok)
	}
}

func TestDrainExcludingReturn_EmptyRegistryEmitsNothing(t *testing.T) {
	e := newTestEmitter(t)
	l, err := e.Layouts().ArrayOf(e.Types().Builtins().Int32)
	if err != nil {
		t.Fatalf("ArrayOf: %v", err)
	}
	fe := e.NewFunc("guard_case")
	fe.Open("ptr")
	ref, err := fe.EmitConstruct(l, "1", "i64", Site{Ident: "only"})
	if err != nil {
		t.Fatalf("EmitConstruct: %v", err)
	}
	if err := fe.EmitFree(ref, Site{Ident: "only/free"}); err != nil {
		t.Fatalf("EmitFree: %v", err)
	}

	before := fe.Text()
	if err := fe.DrainExcludingReturn(ref); err != nil {
		t.Fatalf("DrainExcludingReturn: %v", err)
	}
	if fe.Text() != before {
		t.Fatalf("drain over empty registry emitted code:\n%s", fe.Text())
	}
}
