package driver

import (
	"strings"
	"testing"

	"varbuf/internal/backend/llvm"
	"varbuf/internal/source"
	"varbuf/internal/target"
	"varbuf/internal/types"
)

func emitTestKernel(t *testing.T, k Kernel) *llvm.FuncEmitter {
	t.Helper()
	e := llvm.NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
	fe, err := EmitKernel(e, k, source.FileID(1))
	if err != nil {
		t.Fatalf("EmitKernel(%s): %v", k.Name, err)
	}
	return fe
}

func TestEmitKernel_VoidKernel(t *testing.T) {
	fe := emitTestKernel(t, Kernel{
		Name:    "fill_i32",
		Element: "int32",
		Count:   5,
		Ops: []Op{
			{Kind: "set", Index: 0, Value: 7},
			{Kind: "get", Index: 0},
			{Kind: "len"},
			{Kind: "free"},
		},
	})

	text := fe.Text()
	if !strings.Contains(text, "define void @fill_i32() {") {
		t.Fatalf("bad header:\n%s", text)
	}
	if !strings.Contains(text, "call ptr @allocate_varlen_buffer(i64 5, i64 4)") {
		t.Fatalf("allocation missing:\n%s", text)
	}
	if !strings.Contains(text, "trunc i64 7 to i32") {
		t.Fatalf("set value not narrowed:\n%s", text)
	}
	if !strings.Contains(text, "ret void") {
		t.Fatalf("missing terminator:\n%s", text)
	}
	// The explicit free handles the only allocation; the drain adds none.
	if got := strings.Count(text, "call void @free"); got != 1 {
		t.Fatalf("free calls = %d, want 1:\n%s", got, text)
	}
}

func TestEmitKernel_ReturningKernel(t *testing.T) {
	fe := emitTestKernel(t, Kernel{
		Name:    "make_buf",
		Element: "float64",
		Count:   8,
		Return:  true,
		Ops: []Op{
			{Kind: "set", Index: 2, Value: 1.5},
		},
	})

	text := fe.Text()
	if !strings.Contains(text, "define ptr @make_buf() {") {
		t.Fatalf("bad header:\n%s", text)
	}
	if !strings.Contains(text, "ret ptr") {
		t.Fatalf("missing ptr return:\n%s", text)
	}
	// The returned allocation is excluded at runtime via a guarded drain.
	if !strings.Contains(text, "icmp ne ptr") {
		t.Fatalf("guarded drain missing:\n%s", text)
	}
	if site, ok := fe.Tracker().Returned(); !ok || site.Ident != "make_buf/new" {
		t.Fatalf("returned site = %v, %v", site, ok)
	}
}

func TestEmitKernel_ValueMode(t *testing.T) {
	fe := emitTestKernel(t, Kernel{
		Name:    "value_mode",
		Element: "int32",
		Mode:    "value",
		Count:   3,
		Ops: []Op{
			{Kind: "len"},
			{Kind: "free"},
		},
	})

	text := fe.Text()
	if !strings.Contains(text, "load { ptr, i64, i8 }, ptr") {
		t.Fatalf("struct not materialized in value mode:\n%s", text)
	}
}

func TestEmitKernel_SentinelOps(t *testing.T) {
	fe := emitTestKernel(t, Kernel{
		Name:    "null_ops",
		Element: "int8",
		Count:   4,
		Ops: []Op{
			{Kind: "set_null_at", Index: 1},
			{Kind: "is_null_at", Index: 1},
			{Kind: "is_null"},
			{Kind: "set_null"},
			{Kind: "free"},
		},
	})

	text := fe.Text()
	if !strings.Contains(text, "store i8 -127, ptr") {
		t.Fatalf("sentinel store missing:\n%s", text)
	}
	if !strings.Contains(text, "icmp eq i8") {
		t.Fatalf("sentinel compare missing:\n%s", text)
	}
	if !strings.Contains(text, "store i8 1, ptr") {
		t.Fatalf("whole-buffer flag store missing:\n%s", text)
	}
}

func TestEmitKernel_FloatValueRendering(t *testing.T) {
	fe := emitTestKernel(t, Kernel{
		Name:    "float_store",
		Element: "float32",
		Count:   1,
		Ops: []Op{
			{Kind: "set", Index: 0, Value: 1.5},
			{Kind: "free"},
		},
	})

	text := fe.Text()
	// The promoted double literal narrows into the float slot.
	if !strings.Contains(text, "fptrunc double 0x3FF8000000000000 to float") {
		t.Fatalf("float narrowing missing:\n%s", text)
	}
}

func TestEmitKernel_UnknownElement(t *testing.T) {
	e := llvm.NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
	_, err := EmitKernel(e, Kernel{Name: "bad", Element: "string", Count: 1}, source.FileID(1))
	if err == nil || !strings.Contains(err.Error(), "unknown element type") {
		t.Fatalf("got %v, want unknown element type error", err)
	}
}

func TestEmitKernel_ColumnRejectsFlagOps(t *testing.T) {
	e := llvm.NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
	_, err := EmitKernel(e, Kernel{
		Name:      "col",
		Element:   "int32",
		Container: "Column",
		Count:     2,
		Ops:       []Op{{Kind: "is_null"}},
	}, source.FileID(1))
	if err == nil || !strings.Contains(err.Error(), "null flag") {
		t.Fatalf("got %v, want null flag error", err)
	}
}
