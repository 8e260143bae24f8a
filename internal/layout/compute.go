package layout

import (
	"varbuf/internal/types"
)

// compute resolves field offsets for a validated spec. Pointer fields take
// the target's pointer size; numeric fields take width/8 bytes with
// natural alignment.
func (e *Engine) compute(spec BufferSpec) (*BufferLayout, error) {
	elem := spec.Elems[0]
	l := &BufferLayout{
		Elem:      elem,
		Container: spec.Container,
		ByValue:   spec.ByValue,
		nullIdx:   -1,
	}

	ptrType := e.Types.Pointer(elem)
	sizeType := e.Types.Builtins().Uint64

	l.Fields = make([]Field, 0, 2+len(spec.Extra))
	offset := 0
	align := 1

	place := func(name string, id types.TypeID) error {
		size, fieldAlign, err := e.sizeAlignOf(id)
		if err != nil {
			return err
		}
		offset = roundUp(offset, fieldAlign)
		l.Fields = append(l.Fields, Field{Name: name, Type: id, Offset: offset})
		offset += size
		if fieldAlign > align {
			align = fieldAlign
		}
		return nil
	}

	if err := place("ptr", ptrType); err != nil {
		return nil, err
	}
	if err := place("sz", sizeType); err != nil {
		return nil, err
	}
	for _, m := range spec.Extra {
		if err := place(m.Name, m.Type); err != nil {
			return nil, err
		}
		if m.Name == NullFlagMember {
			l.nullIdx = len(l.Fields) - 1
		}
	}

	l.Align = align
	l.Size = roundUp(offset, align)
	return l, nil
}

// sizeAlignOf returns the byte size and natural alignment of a scalar or
// pointer field type.
func (e *Engine) sizeAlignOf(id types.TypeID) (size, align int, err error) {
	t, ok := e.Types.Lookup(id)
	if !ok {
		return 0, 0, &LayoutError{Kind: LayoutErrBadMember, Type: id}
	}
	switch t.Kind {
	case types.KindPointer:
		return e.Target.PtrSize, e.Target.PtrAlign, nil
	case types.KindBool, types.KindInt, types.KindUint, types.KindFloat:
		n := int(t.Width) / 8
		if n < 1 {
			n = 1
		}
		return n, n, nil
	default:
		return 0, 0, &LayoutError{Kind: LayoutErrBadMember, Type: id}
	}
}

// ElemByteWidth returns the storage width of the element type in bytes.
func (e *Engine) ElemByteWidth(l *BufferLayout) int {
	t := e.Types.MustLookup(l.Elem)
	n := int(t.Width) / 8
	if n < 1 {
		n = 1
	}
	return n
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}
