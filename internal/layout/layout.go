package layout

import (
	"varbuf/internal/target"
	"varbuf/internal/types"
)

// Member is an extra field declaration appended to a buffer struct after
// the mandatory ptr and sz fields.
type Member struct {
	Name string
	Type types.TypeID
}

// BufferSpec describes a buffer type before layout derivation. Elems must
// contain exactly one element type; anything else is a configuration error.
type BufferSpec struct {
	Elems []types.TypeID
	Extra []Member

	// Container names the container kind for sentinel-table lookups
	// ("Array", "Column"). Empty defaults to "Array".
	Container string

	// ByValue opts in to passing the struct itself instead of a pointer
	// to it. The default (by-reference) is what every known target uses.
	ByValue bool
}

// Field is one resolved field of a buffer struct. Offsets are byte offsets
// from the start of the struct for the engine's target.
type Field struct {
	Name   string
	Type   types.TypeID
	Offset int
}

// BufferLayout is the derived, immutable struct layout of a buffer type.
//
// Field order is fixed: ptr first, sz second, extra members after, in
// declaration order. Emitted code addresses fields positionally, so the
// order is part of the ABI.
type BufferLayout struct {
	Elem      types.TypeID
	Fields    []Field
	Size      int
	Align     int
	Container string
	ByValue   bool

	nullIdx int
}

// NullFlagIndex returns the field index of the whole-buffer null flag,
// or -1 when the layout has no flag field.
func (l *BufferLayout) NullFlagIndex() int {
	if l == nil {
		return -1
	}
	return l.nullIdx
}

// HasNullFlag reports whether the layout carries a whole-buffer null flag.
func (l *BufferLayout) HasNullFlag() bool {
	return l.NullFlagIndex() >= 0
}

// PtrOffset returns the byte offset of the payload pointer field.
func (l *BufferLayout) PtrOffset() int {
	return l.Fields[0].Offset
}

// SizeOffset returns the byte offset of the element-count field.
func (l *BufferLayout) SizeOffset() int {
	return l.Fields[1].Offset
}

// NullFlagOffset returns the byte offset of the null flag field. Callers
// must check HasNullFlag first.
func (l *BufferLayout) NullFlagOffset() int {
	return l.Fields[l.nullIdx].Offset
}

// NullFlagMember is the conventional name of the whole-buffer null flag.
const NullFlagMember = "is_null"

// Engine derives buffer layouts for one target. Derivation is pure and
// deterministic; results are cached per (element type, extra list, mode).
type Engine struct {
	Target target.Info
	Types  *types.Interner

	cache *cache
}

// New creates a layout engine for the specified target.
func New(tgt target.Info, typesIn *types.Interner) *Engine {
	return &Engine{
		Target: tgt,
		Types:  typesIn,
		cache:  newCache(),
	}
}

// Derive produces the buffer layout for a spec, validating it first.
func (e *Engine) Derive(spec BufferSpec) (*BufferLayout, error) {
	if err := e.validate(spec); err != nil {
		return nil, err
	}
	if spec.Container == "" {
		spec.Container = "Array"
	}
	key := cacheKey{
		Elem:      spec.Elems[0],
		Extra:     extraFingerprint(spec.Extra),
		Container: spec.Container,
		ByValue:   spec.ByValue,
	}
	if cached, ok := e.cache.get(key); ok {
		return cached, nil
	}
	l, err := e.compute(spec)
	if err != nil {
		return nil, err
	}
	e.cache.put(key, l)
	return l, nil
}

// ArrayOf derives the standard array layout for an element type:
// { T* ptr, uint64 sz, int8 is_null }.
func (e *Engine) ArrayOf(elem types.TypeID) (*BufferLayout, error) {
	flagType := e.Types.Builtins().Int8
	return e.Derive(BufferSpec{
		Elems:     []types.TypeID{elem},
		Extra:     []Member{{Name: NullFlagMember, Type: flagType}},
		Container: "Array",
	})
}

// ColumnOf derives the bare column layout for an element type:
// { T* ptr, uint64 sz }. Columns carry no whole-buffer flag; per-element
// nulls use the sentinel encoding.
func (e *Engine) ColumnOf(elem types.TypeID) (*BufferLayout, error) {
	return e.Derive(BufferSpec{Elems: []types.TypeID{elem}, Container: "Column"})
}

func (e *Engine) validate(spec BufferSpec) *LayoutError {
	if len(spec.Elems) != 1 {
		return &LayoutError{Kind: LayoutErrBadArity, Arity: len(spec.Elems)}
	}
	elem, ok := e.Types.Lookup(spec.Elems[0])
	if !ok || !elem.IsNumeric() {
		return &LayoutError{Kind: LayoutErrBadElement, Type: spec.Elems[0]}
	}
	for _, m := range spec.Extra {
		mt, ok := e.Types.Lookup(m.Type)
		if !ok || mt.Kind == types.KindInvalid {
			return &LayoutError{Kind: LayoutErrBadMember, Name: m.Name, Type: m.Type}
		}
	}
	return nil
}
