package llvm

import (
	"fmt"
	"strings"

	"varbuf/internal/layout"
	"varbuf/internal/types"
)

func llvmValueType(t types.Type) (string, error) {
	switch t.Kind {
	case types.KindBool:
		if t.Width == types.Width1 {
			return "i1", nil
		}
		return intWidthType(t.Width), nil
	case types.KindInt, types.KindUint:
		return intWidthType(t.Width), nil
	case types.KindFloat:
		return floatWidthType(t.Width), nil
	case types.KindPointer:
		return "ptr", nil
	default:
		return "", fmt.Errorf("type %s has no llvm lowering", t.Kind)
	}
}

func intWidthType(width types.Width) string {
	switch width {
	case types.Width1:
		return "i1"
	case types.Width8:
		return "i8"
	case types.Width16:
		return "i16"
	case types.Width32:
		return "i32"
	case types.Width64:
		return "i64"
	default:
		return "i64"
	}
}

func floatWidthType(width types.Width) string {
	switch width {
	case types.Width16:
		return "half"
	case types.Width32:
		return "float"
	case types.Width64:
		return "double"
	default:
		return "double"
	}
}

// structTypeOf renders the literal LLVM struct type of a buffer layout,
// e.g. "{ ptr, i64, i8 }". Field order follows the layout exactly.
func structTypeOf(l *layout.BufferLayout, typesIn *types.Interner) (string, error) {
	parts := make([]string, 0, len(l.Fields))
	for _, f := range l.Fields {
		ft, ok := typesIn.Lookup(f.Type)
		if !ok {
			return "", fmt.Errorf("field %q has no type descriptor", f.Name)
		}
		s, err := llvmValueType(ft)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

// mask returns the width-bit mask for truncating raw sentinel patterns.
func mask(width types.Width) uint64 {
	if width >= types.Width64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// signExtend reinterprets the low width bits of raw as a signed value.
func signExtend(raw uint64, width types.Width) int64 {
	if width >= types.Width64 {
		return int64(raw)
	}
	raw &= mask(width)
	sign := uint64(1) << (uint(width) - 1)
	if raw&sign != 0 {
		return int64(raw | ^mask(width))
	}
	return int64(raw)
}
