package driver

import (
	"fmt"

	"varbuf/internal/backend/llvm"
	"varbuf/internal/diag"
)

// AnalyzeLeaks inspects the allocation bookkeeping of one finished build
// context and reports constructions that were neither explicitly freed
// nor transferred to the caller as the return value. The codegen layer
// only exposes the sites; the decision to warn is made here.
func AnalyzeLeaks(fe *llvm.FuncEmitter, rep diag.Reporter) {
	t := fe.Tracker()

	freed := make(map[llvm.Site]bool)
	for _, s := range t.FreedConstructions() {
		freed[s] = true
	}
	returned, hasReturn := t.Returned()

	for _, c := range t.ConstructionSites() {
		if freed[c] {
			continue
		}
		if hasReturn && c == returned {
			continue
		}
		rep.Report(diag.LeakMissingFree, diag.SevWarning, c.Span,
			fmt.Sprintf("function %q: buffer %s is allocated but never freed", fe.Name(), c.Ident),
			nil)
	}
	for _, f := range t.UnmatchedFrees() {
		rep.Report(diag.LeakFreeWithoutAlloc, diag.SevInfo, f.Span,
			fmt.Sprintf("function %q: %s frees a buffer not allocated here", fe.Name(), f.Ident),
			nil)
	}
}
