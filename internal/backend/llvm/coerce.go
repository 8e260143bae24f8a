package llvm

import (
	"fmt"

	"varbuf/internal/types"
)

// CoerceOp names the instruction adapting a value of one numeric
// representation to another before it is stored into a buffer slot.
type CoerceOp uint8

const (
	CoerceNone CoerceOp = iota
	CoerceTrunc
	CoerceSExt
	CoerceZExt
	CoerceFPTrunc
	CoerceFPExt
)

func (op CoerceOp) Instr() string {
	switch op {
	case CoerceTrunc:
		return "trunc"
	case CoerceSExt:
		return "sext"
	case CoerceZExt:
		return "zext"
	case CoerceFPTrunc:
		return "fptrunc"
	case CoerceFPExt:
		return "fpext"
	default:
		return ""
	}
}

// CoercePlan decides how to adapt a value of type src for storage into an
// element slot of type dst. Earlier compilation stages may promote values
// to a wider canonical width; that promotion has to be undone on the way
// into fixed-width storage. Runs on stores only, never on loads.
//
// Integer narrowing truncates, widening sign-extends when the source is
// signed and zero-extends otherwise. Floats truncate or extend precision.
// Booleans truncate or zero-extend to the slot width. Combinations not
// covered here (kind changes) pass the value through unchanged.
func CoercePlan(src, dst types.Type) CoerceOp {
	srcInt := src.Kind == types.KindInt || src.Kind == types.KindUint
	dstInt := dst.Kind == types.KindInt || dst.Kind == types.KindUint
	switch {
	case srcInt && dstInt:
		switch {
		case dst.Width < src.Width:
			return CoerceTrunc
		case dst.Width > src.Width:
			if src.Kind == types.KindInt {
				return CoerceSExt
			}
			return CoerceZExt
		}
	case src.Kind == types.KindFloat && dst.Kind == types.KindFloat:
		switch {
		case dst.Width < src.Width:
			return CoerceFPTrunc
		case dst.Width > src.Width:
			return CoerceFPExt
		}
	case src.Kind == types.KindBool && dst.Kind == types.KindBool:
		switch {
		case dst.Width < src.Width:
			return CoerceTrunc
		case dst.Width > src.Width:
			return CoerceZExt
		}
	}
	return CoerceNone
}

// emitCoerce applies CoercePlan to val, emitting at most one conversion
// instruction. It returns the adapted SSA value and its LLVM type.
func (fe *FuncEmitter) emitCoerce(val string, src, dst types.Type) (string, string, error) {
	dstTy, err := llvmValueType(dst)
	if err != nil {
		return "", "", err
	}
	op := CoercePlan(src, dst)
	if op == CoerceNone {
		return val, dstTy, nil
	}
	srcTy, err := llvmValueType(src)
	if err != nil {
		return "", "", err
	}
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = %s %s %s to %s\n", tmp, op.Instr(), srcTy, val, dstTy)
	return tmp, dstTy, nil
}
