package types

import (
	"testing"
)

func TestInterner_BuiltinsAreStable(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	got := in.MustLookup(b.Int32)
	if got.Kind != KindInt || got.Width != Width32 {
		t.Fatalf("Int32 resolved to %v", got)
	}
	got = in.MustLookup(b.Float64)
	if got.Kind != KindFloat || got.Width != Width64 {
		t.Fatalf("Float64 resolved to %v", got)
	}

	// Re-interning a builtin descriptor must return the seeded ID.
	if id := in.Intern(MakeInt(Width32)); id != b.Int32 {
		t.Fatalf("re-intern of int32: got %d, want %d", id, b.Int32)
	}
}

func TestInterner_InternDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern(MakeUint(Width16))
	b := in.Intern(MakeUint(Width16))
	if a != b {
		t.Fatalf("same descriptor interned twice: %d vs %d", a, b)
	}
	c := in.Intern(MakeUint(Width32))
	if c == a {
		t.Fatalf("distinct descriptors share TypeID %d", a)
	}
}

func TestInterner_InvalidIsRejected(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(Type{Kind: KindInvalid}); id != NoTypeID {
		t.Fatalf("interning invalid kind: got %d, want NoTypeID", id)
	}
	if _, ok := in.Lookup(NoTypeID); ok {
		t.Fatalf("Lookup(NoTypeID) succeeded")
	}
}

func TestInterner_Pointer(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Int8
	p := in.Pointer(elem)
	pt := in.MustLookup(p)
	if pt.Kind != KindPointer || pt.Elem != elem {
		t.Fatalf("pointer descriptor wrong: %v", pt)
	}
	if again := in.Pointer(elem); again != p {
		t.Fatalf("pointer type not deduplicated: %d vs %d", again, p)
	}
}

func TestInterner_FromName(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()

	tests := []struct {
		name string
		want TypeID
		ok   bool
	}{
		{"int8", b.Int8, true},
		{"int8_t", b.Int8, true},
		{"int32", b.Int32, true},
		{"int64_t", b.Int64, true},
		{"uint64", b.Uint64, true},
		{"size_t", b.Uint64, true},
		{"float32", b.Float32, true},
		{"float", b.Float32, true},
		{"double", b.Float64, true},
		{"bool", b.Bool, true},
		{" int16 ", b.Int16, true},
		{"string", NoTypeID, false},
		{"", NoTypeID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := in.FromName(tt.name)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("FromName(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestType_Name(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{MakeInt(Width8), "int8"},
		{MakeUint(Width64), "uint64"},
		{MakeFloat(Width32), "float32"},
		{MakeBool(Width8), "bool"},
	}
	for _, tt := range tests {
		if got := tt.typ.Name(); got != tt.want {
			t.Fatalf("Name(%v) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}
