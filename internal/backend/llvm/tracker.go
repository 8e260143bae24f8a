package llvm

import (
	"fmt"

	"varbuf/internal/source"
)

// Site identifies where in the kernel description a construction or free
// happened, for the leak-diagnostic consumer.
type Site struct {
	Ident string
	Span  source.Span
}

// Alloc is one live registry entry: the SSA name of a raw payload address
// allocated during the context's lifetime, plus its construction site.
type Alloc struct {
	Addr string
	Site Site
}

// Tracker is the per-build-context registry of temporary allocations.
// Every buffer constructed inside the function records its payload here;
// the exit sequence drains the registry and releases everything that was
// not handed to the caller.
//
// A Tracker belongs to exactly one FuncEmitter and is never shared, so no
// locking is needed even when many functions compile concurrently.
type Tracker struct {
	live []Alloc

	// Construction and free sites survive the drain: the static leak
	// analysis reads them after codegen has finished.
	constructions []Site
	frees         []Site

	// freed holds the construction sites whose payloads were explicitly
	// freed; unmatchedFrees holds free sites that did not resolve to a
	// construction in this context.
	freed          []Site
	unmatchedFrees []Site

	returnedSite Site
	hasReturned  bool
}

// Record appends a payload address allocated in this context.
func (t *Tracker) Record(addr string, site Site) {
	t.live = append(t.live, Alloc{Addr: addr, Site: site})
	t.constructions = append(t.constructions, site)
}

// remove discards the registry entry for addr without emitting a
// release, returning the entry when one existed.
func (t *Tracker) remove(addr string) (Alloc, bool) {
	for i := range t.live {
		if t.live[i].Addr == addr {
			a := t.live[i]
			t.live = append(t.live[:i], t.live[i+1:]...)
			return a, true
		}
	}
	return Alloc{}, false
}

// recordFree notes an explicit free call site and, when the free resolved
// to a construction in this context, the construction it released.
func (t *Tracker) recordFree(site Site, construction *Alloc) {
	t.frees = append(t.frees, site)
	if construction != nil {
		t.freed = append(t.freed, construction.Site)
	} else {
		t.unmatchedFrees = append(t.unmatchedFrees, site)
	}
}

// markReturned flags the live entry for addr as transferred to the caller.
func (t *Tracker) markReturned(addr string) {
	for i := range t.live {
		if t.live[i].Addr == addr {
			t.returnedSite = t.live[i].Site
			t.hasReturned = true
			return
		}
	}
}

// Live returns a copy of the live registry entries.
func (t *Tracker) Live() []Alloc {
	out := make([]Alloc, len(t.live))
	copy(out, t.live)
	return out
}

// ConstructionSites returns every construction observed in the context,
// including ones that were later freed or drained.
func (t *Tracker) ConstructionSites() []Site {
	out := make([]Site, len(t.constructions))
	copy(out, t.constructions)
	return out
}

// FreeSites returns every explicit free observed in the context.
func (t *Tracker) FreeSites() []Site {
	out := make([]Site, len(t.frees))
	copy(out, t.frees)
	return out
}

// FreedConstructions returns the construction sites whose payloads were
// explicitly freed during body codegen.
func (t *Tracker) FreedConstructions() []Site {
	out := make([]Site, len(t.freed))
	copy(out, t.freed)
	return out
}

// UnmatchedFrees returns free sites that targeted buffers not allocated
// in this context.
func (t *Tracker) UnmatchedFrees() []Site {
	out := make([]Site, len(t.unmatchedFrees))
	copy(out, t.unmatchedFrees)
	return out
}

// Returned reports the construction site whose payload was excluded from
// the exit drain because it is the function's return value.
func (t *Tracker) Returned() (Site, bool) {
	return t.returnedSite, t.hasReturned
}

// DrainAndFree emits one release call for every live payload other than
// except, then clears the registry entirely, including the excluded
// entry's slot. The excluded payload is not freed: it is the function's
// return value and ownership moves to the caller. Calling this twice for
// one context is a caller bug; after the first drain it happens to be a
// no-op only because the registry is empty.
func (fe *FuncEmitter) DrainAndFree(except string) {
	t := &fe.tracker
	for _, a := range t.live {
		if except != "" && a.Addr == except {
			continue
		}
		fmt.Fprintf(&fe.buf, "  call void @%s(ptr %s)\n", fe.emitter.target.FreeSym, a.Addr)
	}
	if except != "" {
		t.markReturned(except)
	}
	t.live = t.live[:0]
}

// DrainExcludingReturn drains the registry when the function returns a
// buffer. The payload to keep is only known at runtime (it is loaded from
// the returned struct), so every release is guarded by a pointer compare
// against the returned payload.
func (fe *FuncEmitter) DrainExcludingReturn(ref *PtrRef) error {
	t := &fe.tracker
	if ref != nil && ref.payload != "" {
		t.markReturned(ref.payload)
	}
	if len(t.live) == 0 {
		return nil
	}
	keep, err := fe.emitPayloadPtr(ref)
	if err != nil {
		return err
	}
	for _, a := range t.live {
		cond := fe.nextTemp()
		fmt.Fprintf(&fe.buf, "  %s = icmp ne ptr %s, %s\n", cond, keep, a.Addr)
		doBB := fe.nextInlineBlock()
		skipBB := fe.nextInlineBlock()
		fmt.Fprintf(&fe.buf, "  br i1 %s, label %%%s, label %%%s\n", cond, doBB, skipBB)
		fmt.Fprintf(&fe.buf, "%s:\n", doBB)
		fmt.Fprintf(&fe.buf, "  call void @%s(ptr %s)\n", fe.emitter.target.FreeSym, a.Addr)
		fmt.Fprintf(&fe.buf, "  br label %%%s\n", skipBB)
		fmt.Fprintf(&fe.buf, "%s:\n", skipBB)
	}
	t.live = t.live[:0]
	return nil
}
