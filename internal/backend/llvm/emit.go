package llvm

import (
	"fmt"
	"strings"

	"varbuf/internal/layout"
	"varbuf/internal/target"
	"varbuf/internal/types"
)

// Emitter holds the read-only state shared by every function compiled for
// one target: the target description, the type interner and the layout
// engine. It is safe to share one Emitter across concurrently emitted
// functions; all mutable emission state lives on FuncEmitter.
type Emitter struct {
	target  target.Info
	types   *types.Interner
	layouts *layout.Engine
}

// NewEmitter creates an emitter for the given target.
func NewEmitter(tgt target.Info, typesIn *types.Interner) *Emitter {
	return &Emitter{
		target:  tgt,
		types:   typesIn,
		layouts: layout.New(tgt, typesIn),
	}
}

// Types returns the emitter's type interner.
func (e *Emitter) Types() *types.Interner { return e.types }

// Layouts returns the emitter's layout engine.
func (e *Emitter) Layouts() *layout.Engine { return e.layouts }

// Target returns the emitter's target description.
func (e *Emitter) Target() target.Info { return e.target }

type runtimeDecl struct {
	name   string
	ret    string
	params []string
}

func (e *Emitter) runtimeDecls() []runtimeDecl {
	return []runtimeDecl{
		{name: e.target.AllocSym, ret: "ptr", params: []string{"i64", "i64"}},
		{name: e.target.FreeSym, ret: "void", params: []string{"ptr"}},
	}
}

// Preamble renders the module header: target triple and the declarations
// of the host allocator boundary.
func (e *Emitter) Preamble() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "target triple = %q\n\n", e.target.Triple)
	for _, decl := range e.runtimeDecls() {
		fmt.Fprintf(&buf, "declare %s @%s(%s)\n", decl.ret, decl.name, strings.Join(decl.params, ", "))
	}
	buf.WriteString("\n")
	return buf.String()
}

// FuncEmitter is the build context of one compiled function. It owns the
// function's instruction buffer, SSA temp counter and allocation tracker.
// A FuncEmitter must only ever be driven from one goroutine.
type FuncEmitter struct {
	emitter     *Emitter
	name        string
	buf         strings.Builder
	tmpID       int
	inlineBlock int
	open        bool

	tracker Tracker
}

// NewFunc starts a build context for one function.
func (e *Emitter) NewFunc(name string) *FuncEmitter {
	return &FuncEmitter{emitter: e, name: name}
}

// Name returns the function's symbol name.
func (fe *FuncEmitter) Name() string { return fe.name }

// Tracker exposes the context's allocation bookkeeping to the
// leak-diagnostic consumer.
func (fe *FuncEmitter) Tracker() *Tracker { return &fe.tracker }

// Open writes the define header and the entry label. Params are rendered
// as %p0, %p1, ... in order. A second Open on the same context is a no-op
// so a retried caller cannot emit two headers.
func (fe *FuncEmitter) Open(ret string, params ...string) {
	if fe.open {
		return
	}
	decorated := make([]string, len(params))
	for i, p := range params {
		decorated[i] = fmt.Sprintf("%s %%p%d", p, i)
	}
	fmt.Fprintf(&fe.buf, "define %s @%s(%s) {\n", ret, fe.name, strings.Join(decorated, ", "))
	fmt.Fprintf(&fe.buf, "entry:\n")
	fe.open = true
}

// Close terminates the function body. Closing an already-closed context
// is a no-op.
func (fe *FuncEmitter) Close() {
	if !fe.open {
		return
	}
	fmt.Fprint(&fe.buf, "}\n")
	fe.open = false
}

// EmitReturn emits a typed return terminator.
func (fe *FuncEmitter) EmitReturn(ty, val string) {
	fmt.Fprintf(&fe.buf, "  ret %s %s\n", ty, val)
}

// EmitReturnVoid emits a void return terminator.
func (fe *FuncEmitter) EmitReturnVoid() {
	fmt.Fprintf(&fe.buf, "  ret void\n")
}

// Text returns everything emitted so far.
func (fe *FuncEmitter) Text() string {
	return fe.buf.String()
}

func (fe *FuncEmitter) nextTemp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

func (fe *FuncEmitter) nextInlineBlock() string {
	fe.inlineBlock++
	return fmt.Sprintf("bb.inline%d", fe.inlineBlock)
}
