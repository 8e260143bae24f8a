package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindPointer
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Width captures the precision of integers/floats in bits.
type Width uint8

const (
	Width1  Width = 1
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind  Kind
	Elem  TypeID // for pointers
	Width Width  // for numeric primitives and bool
}

// Descriptor helpers ---------------------------------------------------------

// MakeBool describes a boolean carried at the given storage width
// (Width1 for register values, Width8 for in-memory element slots).
func MakeBool(width Width) Type {
	return Type{Kind: KindBool, Width: width}
}

// MakeInt describes a signed integer of the given width.
func MakeInt(width Width) Type {
	return Type{Kind: KindInt, Width: width}
}

// MakeUint describes an unsigned integer type.
func MakeUint(width Width) Type {
	return Type{Kind: KindUint, Width: width}
}

// MakeFloat describes a floating-point type.
func MakeFloat(width Width) Type {
	return Type{Kind: KindFloat, Width: width}
}

// MakePointer describes a raw pointer to the element type.
func MakePointer(elem TypeID) Type {
	return Type{Kind: KindPointer, Elem: elem}
}

// IsNumeric reports whether the descriptor is an int, uint, float or bool.
func (t Type) IsNumeric() bool {
	switch t.Kind {
	case KindBool, KindInt, KindUint, KindFloat:
		return true
	default:
		return false
	}
}

// Name returns the canonical spelling used in sentinel-table keys,
// e.g. "int8", "uint16", "float32", "bool".
func (t Type) Name() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return fmt.Sprintf("int%d", t.Width)
	case KindUint:
		return fmt.Sprintf("uint%d", t.Width)
	case KindFloat:
		return fmt.Sprintf("float%d", t.Width)
	case KindPointer:
		return "pointer"
	default:
		return "invalid"
	}
}
