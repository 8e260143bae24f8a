package llvm

import (
	"fmt"

	"varbuf/internal/layout"
	"varbuf/internal/target"
	"varbuf/internal/types"
)

// BufferRef addresses a buffer value inside emitted code. Two variants
// exist, matching how the value reached the function: PtrRef for values
// held as a pointer to the struct (parameters, returns, constructions)
// and ValRef for an already-loaded struct value. Callers pick the variant
// from context; there is no runtime inspection.
type BufferRef interface {
	Layout() *layout.BufferLayout

	// structAddr yields the SSA pointer where the struct lives.
	structAddr() string
}

// PtrRef is a buffer addressed through a pointer to its struct. This is
// the default calling convention for buffer values.
type PtrRef struct {
	Addr string
	L    *layout.BufferLayout

	// payload is the SSA name of the raw payload address when this ref
	// was produced by EmitConstruct in the current context; empty for
	// refs that arrived from outside (parameters).
	payload string
}

// NewPtrRef wraps a struct pointer that arrived from outside the current
// build context, e.g. a function parameter.
func NewPtrRef(addr string, l *layout.BufferLayout) *PtrRef {
	return &PtrRef{Addr: addr, L: l}
}

func (r *PtrRef) Layout() *layout.BufferLayout { return r.L }
func (r *PtrRef) structAddr() string           { return r.Addr }

// ValRef is an already-loaded buffer struct value. Addr is the location
// the struct was loaded from; field access goes through that address, the
// same way the loaded-struct addressing mode works in the runtime's own
// lowering.
type ValRef struct {
	Value string
	Addr  string
	L     *layout.BufferLayout
}

// NewValRef wraps a loaded struct value and its backing address.
func NewValRef(value, addr string, l *layout.BufferLayout) *ValRef {
	return &ValRef{Value: value, Addr: addr, L: l}
}

func (r *ValRef) Layout() *layout.BufferLayout { return r.L }
func (r *ValRef) structAddr() string           { return r.Addr }

// EmitLoadStruct materializes a buffer struct as a first-class value,
// switching the ref into loaded-struct addressing mode.
func (fe *FuncEmitter) EmitLoadStruct(ref *PtrRef) (*ValRef, error) {
	if ref == nil {
		return nil, fmt.Errorf("nil buffer ref")
	}
	structTy, err := structTypeOf(ref.L, fe.emitter.types)
	if err != nil {
		return nil, err
	}
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = load %s, ptr %s\n", tmp, structTy, ref.Addr)
	return &ValRef{Value: tmp, Addr: ref.Addr, L: ref.L}, nil
}

// emitFieldPtr yields a pointer to the field at the given byte offset.
func (fe *FuncEmitter) emitFieldPtr(ref BufferRef, offset int) string {
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = getelementptr inbounds i8, ptr %s, i64 %d\n", tmp, ref.structAddr(), offset)
	return tmp
}

// emitPayloadPtr loads the raw payload pointer from the ptr field.
func (fe *FuncEmitter) emitPayloadPtr(ref BufferRef) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("nil buffer ref")
	}
	fieldPtr := fe.emitFieldPtr(ref, ref.Layout().PtrOffset())
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = load ptr, ptr %s\n", tmp, fieldPtr)
	return tmp, nil
}

// EmitLen reads the element-count field. The result is an i64 SSA value.
func (fe *FuncEmitter) EmitLen(ref BufferRef) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("nil buffer ref")
	}
	fieldPtr := fe.emitFieldPtr(ref, ref.Layout().SizeOffset())
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = load i64, ptr %s\n", tmp, fieldPtr)
	return tmp, nil
}

// EmitGet loads the element at index. index must be an i64 SSA value or
// literal. No bounds check is emitted; an out-of-range index is undefined
// behavior at this layer.
func (fe *FuncEmitter) EmitGet(ref BufferRef, index string) (val, ty string, err error) {
	if ref == nil {
		return "", "", fmt.Errorf("nil buffer ref")
	}
	elem := fe.emitter.types.MustLookup(ref.Layout().Elem)
	elemTy, err := llvmValueType(elem)
	if err != nil {
		return "", "", err
	}
	payload, err := fe.emitPayloadPtr(ref)
	if err != nil {
		return "", "", err
	}
	elemPtr := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = getelementptr inbounds %s, ptr %s, i64 %s\n", elemPtr, elemTy, payload, index)
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = load %s, ptr %s\n", tmp, elemTy, elemPtr)
	return tmp, elemTy, nil
}

// EmitSet stores value at index after adapting it to the element type.
// valueType describes the value's own representation; the store-side
// coercion runs against the element type. No bounds check is emitted.
func (fe *FuncEmitter) EmitSet(ref BufferRef, index, value string, valueType types.Type) error {
	if ref == nil {
		return fmt.Errorf("nil buffer ref")
	}
	elem := fe.emitter.types.MustLookup(ref.Layout().Elem)
	adapted, elemTy, err := fe.emitCoerce(value, valueType, elem)
	if err != nil {
		return err
	}
	payload, err := fe.emitPayloadPtr(ref)
	if err != nil {
		return err
	}
	elemPtr := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = getelementptr inbounds %s, ptr %s, i64 %s\n", elemPtr, elemTy, payload, index)
	fmt.Fprintf(&fe.buf, "  store %s %s, ptr %s\n", elemTy, adapted, elemPtr)
	return nil
}

// EmitIsNull reads the whole-buffer null flag. The result is the flag's
// raw i8 value. Distinct from EmitIsNullAt: calling with no index always
// means the whole-buffer variant.
func (fe *FuncEmitter) EmitIsNull(ref BufferRef) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("nil buffer ref")
	}
	l := ref.Layout()
	if !l.HasNullFlag() {
		return "", fmt.Errorf("layout has no null flag field")
	}
	fieldPtr := fe.emitFieldPtr(ref, l.NullFlagOffset())
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = load i8, ptr %s\n", tmp, fieldPtr)
	return tmp, nil
}

// EmitSetNull sets the whole-buffer null flag.
func (fe *FuncEmitter) EmitSetNull(ref BufferRef) error {
	if ref == nil {
		return fmt.Errorf("nil buffer ref")
	}
	l := ref.Layout()
	if !l.HasNullFlag() {
		return fmt.Errorf("layout has no null flag field")
	}
	fieldPtr := fe.emitFieldPtr(ref, l.NullFlagOffset())
	fmt.Fprintf(&fe.buf, "  store i8 1, ptr %s\n", fieldPtr)
	return nil
}

// EmitIsNullAt loads the element at index and compares its bit pattern
// against the element type's null sentinel. The result is an i1. For
// floating-point elements the comparison runs on the bit pattern, not the
// numeric value, so NaN-encoded sentinels match exactly (and only
// exactly: arbitrary other NaN payloads do not).
func (fe *FuncEmitter) EmitIsNullAt(ref BufferRef, index string) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("nil buffer ref")
	}
	elem := fe.emitter.types.MustLookup(ref.Layout().Elem)
	lit, intTy, err := fe.sentinelLiteral(ref.Layout(), elem)
	if err != nil {
		return "", err
	}
	val, _, err := fe.EmitGet(ref, index)
	if err != nil {
		return "", err
	}
	if elem.Kind == types.KindFloat {
		cast := fe.nextTemp()
		fty, _ := llvmValueType(elem)
		fmt.Fprintf(&fe.buf, "  %s = bitcast %s %s to %s\n", cast, fty, val, intTy)
		val = cast
	}
	tmp := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = icmp eq %s %s, %s\n", tmp, intTy, val, lit)
	return tmp, nil
}

// EmitSetNullAt stores the element type's null sentinel at index via the
// coerced store path.
func (fe *FuncEmitter) EmitSetNullAt(ref BufferRef, index string) error {
	if ref == nil {
		return fmt.Errorf("nil buffer ref")
	}
	elem := fe.emitter.types.MustLookup(ref.Layout().Elem)
	lit, intTy, err := fe.sentinelLiteral(ref.Layout(), elem)
	if err != nil {
		return err
	}
	value := lit
	if elem.Kind == types.KindFloat {
		fty, _ := llvmValueType(elem)
		cast := fe.nextTemp()
		fmt.Fprintf(&fe.buf, "  %s = bitcast %s %s to %s\n", cast, intTy, lit, fty)
		value = cast
	}
	return fe.EmitSet(ref, index, value, elem)
}

// NoSentinelError reports an element type the target configures no
// null sentinel for. Indexed null ops on such a buffer cannot lower.
type NoSentinelError struct {
	Key string
}

func (e *NoSentinelError) Error() string {
	return "no null sentinel configured for " + e.Key
}

// sentinelLiteral renders the configured sentinel for the layout's
// element type as an integer literal at the element's width. The server
// supplies sentinels as unsigned bit patterns; signed element types read
// the pattern back at their own signedness (129 at width 8 is -127).
func (fe *FuncEmitter) sentinelLiteral(l *layout.BufferLayout, elem types.Type) (lit, intTy string, err error) {
	raw, ok := fe.emitter.target.NullValue(l.Container, elem)
	if !ok {
		return "", "", &NoSentinelError{Key: target.SentinelKey(l.Container, elem.Name())}
	}
	intTy = intWidthType(elem.Width)
	switch elem.Kind {
	case types.KindInt, types.KindFloat:
		lit = fmt.Sprintf("%d", signExtend(raw, elem.Width))
	default:
		lit = fmt.Sprintf("%d", raw&mask(elem.Width))
	}
	return lit, intTy, nil
}
