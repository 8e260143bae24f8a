package llvm

import (
	"fmt"

	"varbuf/internal/layout"
)

// EmitConstruct generates the allocate-and-initialize sequence for a new
// buffer of count elements:
//
//  1. widen count to i64,
//  2. call the target allocator with (count, element_size),
//  3. record the payload in the context's tracker,
//  4. populate the struct's ptr and sz fields,
//  5. when the layout carries a null flag, set it to true exactly when
//     count is zero,
//
// and returns a PtrRef to the populated struct. countTy is the LLVM type
// of count ("i32", "i64", ...); narrower counts are zero-extended. A
// failed allocation is fatal to the compiled function at runtime; no
// recovery code is generated.
func (fe *FuncEmitter) EmitConstruct(l *layout.BufferLayout, count, countTy string, site Site) (*PtrRef, error) {
	if l == nil {
		return nil, fmt.Errorf("nil buffer layout")
	}
	n := count
	if countTy != "i64" {
		n = fe.nextTemp()
		fmt.Fprintf(&fe.buf, "  %s = zext %s %s to i64\n", n, countTy, count)
	}
	elemSize := fe.emitter.layouts.ElemByteWidth(l)

	payload := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = call ptr @%s(i64 %s, i64 %d)\n",
		payload, fe.emitter.target.AllocSym, n, elemSize)
	// Remember the temporary allocation so the exit sequence can release
	// it unless ownership moves to the caller.
	fe.tracker.Record(payload, site)

	structTy, err := structTypeOf(l, fe.emitter.types)
	if err != nil {
		return nil, err
	}
	buf := fe.nextTemp()
	fmt.Fprintf(&fe.buf, "  %s = alloca %s\n", buf, structTy)

	ref := &PtrRef{Addr: buf, L: l, payload: payload}

	ptrField := fe.emitFieldPtr(ref, l.PtrOffset())
	fmt.Fprintf(&fe.buf, "  store ptr %s, ptr %s\n", payload, ptrField)
	szField := fe.emitFieldPtr(ref, l.SizeOffset())
	fmt.Fprintf(&fe.buf, "  store i64 %s, ptr %s\n", n, szField)

	if l.HasNullFlag() {
		isZero := fe.nextTemp()
		fmt.Fprintf(&fe.buf, "  %s = icmp eq i64 %s, 0\n", isZero, n)
		flag := fe.nextTemp()
		fmt.Fprintf(&fe.buf, "  %s = zext i1 %s to i8\n", flag, isZero)
		flagField := fe.emitFieldPtr(ref, l.NullFlagOffset())
		fmt.Fprintf(&fe.buf, "  store i8 %s, ptr %s\n", flag, flagField)
	}
	return ref, nil
}

// EmitFree releases one buffer's payload before function exit. For
// buffers constructed in this context the tracker entry is removed so the
// exit drain will not release the payload twice. For buffers that arrived
// from outside, the payload pointer is loaded from the struct and freed
// as-is.
func (fe *FuncEmitter) EmitFree(ref *PtrRef, site Site) error {
	if ref == nil {
		return fmt.Errorf("nil buffer ref")
	}
	addr := ref.payload
	if addr == "" {
		loaded, err := fe.emitPayloadPtr(ref)
		if err != nil {
			return err
		}
		addr = loaded
	}
	fmt.Fprintf(&fe.buf, "  call void @%s(ptr %s)\n", fe.emitter.target.FreeSym, addr)
	if removed, ok := fe.tracker.remove(ref.payload); ok {
		fe.tracker.recordFree(site, &removed)
	} else {
		fe.tracker.recordFree(site, nil)
	}
	return nil
}
