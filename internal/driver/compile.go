package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"varbuf/internal/backend/llvm"
	"varbuf/internal/diag"
	"varbuf/internal/layout"
	"varbuf/internal/observ"
	"varbuf/internal/source"
	"varbuf/internal/target"
	"varbuf/internal/types"
)

// Result is the outcome of compiling one kernel.
type Result struct {
	Kernel Kernel
	IR     string // the function's IR text
	Bag    *diag.Bag
	Cached bool
}

// Module assembles the compiled functions into one IR module.
type Module struct {
	Preamble string
	Results  []Result
	Timing   observ.Report
}

// Text renders the full module: preamble, allocator declarations and
// every function in input order. Kernels that failed to lower have no
// IR and are skipped.
func (m *Module) Text() string {
	var buf strings.Builder
	buf.WriteString(m.Preamble)
	for _, r := range m.Results {
		if r.IR == "" {
			continue
		}
		buf.WriteString(r.IR)
		buf.WriteString("\n")
	}
	return buf.String()
}

// maxDiagnosticsPerKernel bounds each kernel's bag.
const maxDiagnosticsPerKernel = 64

// CompileKernels lowers every kernel for the target, fanning out across
// CPUs. Each kernel gets its own build context (and its own interner and
// layout engine: those are single-threaded by design), so concurrent
// compilation needs no shared mutable state. cache may be nil.
func CompileKernels(ctx context.Context, tgt target.Info, kernels []Kernel, file source.FileID, cache *Cache) (*Module, error) {
	timer := observ.NewTimer()
	phase := timer.Begin("emit")

	results := make([]Result, len(kernels))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range kernels {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = compileOne(tgt, kernels[i], file, cache)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timer.End(phase, fmt.Sprintf("%d kernels", len(kernels)))

	e := llvm.NewEmitter(tgt, types.NewInterner())
	return &Module{
		Preamble: e.Preamble(),
		Results:  results,
		Timing:   timer.Report(),
	}, nil
}

func compileOne(tgt target.Info, k Kernel, file source.FileID, cache *Cache) Result {
	key := kernelKey(tgt, k)
	if cache != nil {
		if payload, ok := cache.Get(key); ok {
			bag := diag.NewBag(maxDiagnosticsPerKernel)
			for _, w := range payload.Warnings {
				bag.Add(diag.New(diag.Severity(w.Severity), diag.Code(w.Code), source.Span{File: file}, w.Message))
			}
			return Result{Kernel: k, IR: payload.IR, Bag: bag, Cached: true}
		}
	}

	e := llvm.NewEmitter(tgt, types.NewInterner())
	fe, err := EmitKernel(e, k, file)
	if err != nil {
		bag := diag.NewBag(maxDiagnosticsPerKernel)
		bag.Add(diag.NewError(emitErrorCode(err), opSpan(file, -1), err.Error()))
		return Result{Kernel: k, Bag: bag}
	}
	bag := diag.NewBag(maxDiagnosticsPerKernel)
	AnalyzeLeaks(fe, diag.BagReporter{Bag: bag})

	res := Result{Kernel: k, IR: fe.Text(), Bag: bag}
	if cache != nil {
		payload := &Payload{Schema: cacheSchemaVersion, Name: k.Name, IR: res.IR}
		for _, d := range bag.Items() {
			payload.Warnings = append(payload.Warnings, CachedWarning{
				Severity: uint8(d.Severity),
				Code:     uint16(d.Code),
				Message:  d.Message,
			})
		}
		// Cache write failures are not compilation failures.
		_ = cache.Put(key, payload)
	}
	return res
}

// emitErrorCode maps a lowering failure onto the diagnostic code space.
func emitErrorCode(err error) diag.Code {
	var lerr *layout.LayoutError
	if errors.As(err, &lerr) {
		switch lerr.Kind {
		case layout.LayoutErrBadArity:
			return diag.CfgBadArity
		case layout.LayoutErrBadElement:
			return diag.CfgBadElement
		default:
			return diag.CfgBadMember
		}
	}
	var serr *llvm.NoSentinelError
	if errors.As(err, &serr) {
		return diag.CfgNoSentinel
	}
	var uerr *unsupportedElementError
	if errors.As(err, &uerr) {
		return diag.EmitUnsupportedType
	}
	return diag.EmitBadKernelOp
}
