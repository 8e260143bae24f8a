package driver

import (
	"fmt"
	"math"

	"varbuf/internal/backend/llvm"
	"varbuf/internal/layout"
	"varbuf/internal/source"
	"varbuf/internal/types"
)

// unsupportedElementError reports an element name no interner builtin
// or alias resolves to.
type unsupportedElementError struct {
	Name string
}

func (e *unsupportedElementError) Error() string {
	return fmt.Sprintf("unknown element type %q", e.Name)
}

// EmitKernel lowers one kernel into a function body inside a fresh build
// context. The returned FuncEmitter has already run its exit drain; its
// tracker is ready for leak analysis.
func EmitKernel(e *llvm.Emitter, k Kernel, file source.FileID) (*llvm.FuncEmitter, error) {
	elemID, ok := e.Types().FromName(k.Element)
	if !ok {
		return nil, fmt.Errorf("kernel %q: %w", k.Name, &unsupportedElementError{Name: k.Element})
	}
	var (
		l   *layout.BufferLayout
		err error
	)
	if k.Container == "Column" {
		l, err = e.Layouts().ColumnOf(elemID)
	} else {
		l, err = e.Layouts().ArrayOf(elemID)
	}
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w", k.Name, err)
	}

	fe := e.NewFunc(k.Name)
	ret := "void"
	if k.Return {
		ret = "ptr"
	}
	fe.Open(ret)

	ptrRef, err := fe.EmitConstruct(l, fmt.Sprintf("%d", k.Count), "i64", llvm.Site{
		Ident: k.Name + "/new",
		Span:  opSpan(file, -1),
	})
	if err != nil {
		return nil, fmt.Errorf("kernel %q: %w", k.Name, err)
	}

	// The accessor ops go through the kernel's addressing mode; free and
	// return always need the struct pointer.
	var ref llvm.BufferRef = ptrRef
	if k.Mode == "value" {
		vref, err := fe.EmitLoadStruct(ptrRef)
		if err != nil {
			return nil, fmt.Errorf("kernel %q: %w", k.Name, err)
		}
		ref = vref
	}

	elem := e.Types().MustLookup(elemID)
	for i, op := range k.Ops {
		site := llvm.Site{
			Ident: fmt.Sprintf("%s/%s#%d", k.Name, op.Kind, i),
			Span:  opSpan(file, i),
		}
		index := fmt.Sprintf("%d", op.Index)
		switch op.Kind {
		case "set":
			val, valType := sourceValue(elem, op.Value)
			err = fe.EmitSet(ref, index, val, valType)
		case "get":
			_, _, err = fe.EmitGet(ref, index)
		case "len":
			_, err = fe.EmitLen(ref)
		case "is_null":
			_, err = fe.EmitIsNull(ref)
		case "set_null":
			err = fe.EmitSetNull(ref)
		case "is_null_at":
			_, err = fe.EmitIsNullAt(ref, index)
		case "set_null_at":
			err = fe.EmitSetNullAt(ref, index)
		case "free":
			err = fe.EmitFree(ptrRef, site)
		default:
			err = fmt.Errorf("unknown op kind %q", op.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("kernel %q: op %d (%s): %w", k.Name, i, op.Kind, err)
		}
	}

	if k.Return {
		if err := fe.DrainExcludingReturn(ptrRef); err != nil {
			return nil, fmt.Errorf("kernel %q: %w", k.Name, err)
		}
		fe.EmitReturn("ptr", ptrRef.Addr)
	} else {
		fe.DrainAndFree("")
		fe.EmitReturnVoid()
	}
	fe.Close()
	return fe, nil
}

// sourceValue renders an op's value the way it reaches a store in real
// compiled code: promoted to the canonical 64-bit width of its kind, so
// the coercion engine has promotion to undo.
func sourceValue(elem types.Type, v float64) (string, types.Type) {
	switch elem.Kind {
	case types.KindFloat:
		// Round through the element width first so the literal is exactly
		// representable at the narrower precision.
		if elem.Width == types.Width32 {
			v = float64(float32(v))
		}
		return fmt.Sprintf("0x%016X", math.Float64bits(v)), types.MakeFloat(types.Width64)
	case types.KindUint:
		return fmt.Sprintf("%d", uint64(v)), types.MakeUint(types.Width64)
	case types.KindBool:
		if v != 0 {
			return "1", types.MakeBool(types.Width1)
		}
		return "0", types.MakeBool(types.Width1)
	default:
		return fmt.Sprintf("%d", int64(v)), types.MakeInt(types.Width64)
	}
}
