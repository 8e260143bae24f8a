package llvm

import (
	"strings"
	"testing"

	"varbuf/internal/target"
	"varbuf/internal/types"
)

func TestCoercePlan(t *testing.T) {
	i64 := types.MakeInt(types.Width64)
	i8 := types.MakeInt(types.Width8)
	u64 := types.MakeUint(types.Width64)
	u8 := types.MakeUint(types.Width8)
	f64 := types.MakeFloat(types.Width64)
	f32 := types.MakeFloat(types.Width32)
	b1 := types.MakeBool(types.Width1)
	b8 := types.MakeBool(types.Width8)

	tests := []struct {
		name string
		src  types.Type
		dst  types.Type
		want CoerceOp
	}{
		{"identity int", i64, i64, CoerceNone},
		{"narrow signed", i64, i8, CoerceTrunc},
		{"narrow unsigned", u64, u8, CoerceTrunc},
		{"widen signed", i8, i64, CoerceSExt},
		{"widen unsigned", u8, u64, CoerceZExt},
		{"signed into unsigned slot narrows", i64, u8, CoerceTrunc},
		{"unsigned widens into signed slot", u8, i64, CoerceZExt},
		{"float narrow", f64, f32, CoerceFPTrunc},
		{"float widen", f32, f64, CoerceFPExt},
		{"identity float", f64, f64, CoerceNone},
		{"bool widen to slot", b1, b8, CoerceZExt},
		{"bool narrow to flag", b8, b1, CoerceTrunc},
		{"identity bool", b8, b8, CoerceNone},
		{"int to float passes through", i64, f64, CoerceNone},
		{"float to int passes through", f64, i64, CoerceNone},
		{"bool to int passes through", b8, i8, CoerceNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoercePlan(tt.src, tt.dst); got != tt.want {
				t.Fatalf("CoercePlan(%v, %v) = %v, want %v", tt.src, tt.dst, got, tt.want)
			}
		})
	}
}

func TestCoerceOp_Instr(t *testing.T) {
	tests := []struct {
		op   CoerceOp
		want string
	}{
		{CoerceNone, ""},
		{CoerceTrunc, "trunc"},
		{CoerceSExt, "sext"},
		{CoerceZExt, "zext"},
		{CoerceFPTrunc, "fptrunc"},
		{CoerceFPExt, "fpext"},
	}
	for _, tt := range tests {
		if got := tt.op.Instr(); got != tt.want {
			t.Fatalf("Instr(%d) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestEmitCoerce_SingleInstruction(t *testing.T) {
	e := NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
	fe := e.NewFunc("coerce_case")

	val, ty, err := fe.emitCoerce("%p0", types.MakeInt(types.Width64), types.MakeInt(types.Width8))
	if err != nil {
		t.Fatalf("emitCoerce: %v", err)
	}
	if ty != "i8" {
		t.Fatalf("result type = %q, want i8", ty)
	}
	if val == "%p0" {
		t.Fatalf("narrowing did not produce a new SSA value")
	}
	if !strings.Contains(fe.Text(), "= trunc i64 %p0 to i8") {
		t.Fatalf("missing trunc instruction:\n%s", fe.Text())
	}
}

func TestEmitCoerce_IdentityEmitsNothing(t *testing.T) {
	e := NewEmitter(target.X86_64LinuxGNU(), types.NewInterner())
	fe := e.NewFunc("coerce_case")

	val, ty, err := fe.emitCoerce("%p0", types.MakeInt(types.Width32), types.MakeInt(types.Width32))
	if err != nil {
		t.Fatalf("emitCoerce: %v", err)
	}
	if val != "%p0" || ty != "i32" {
		t.Fatalf("identity coercion rewrote the value: %s %s", ty, val)
	}
	if fe.Text() != "" {
		t.Fatalf("identity coercion emitted code:\n%s", fe.Text())
	}
}
