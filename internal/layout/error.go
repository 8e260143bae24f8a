package layout

import (
	"fmt"

	"varbuf/internal/types"
)

// LayoutErrorKind enumerates types of layout derivation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrBadArity indicates a buffer spec with an element-type list
	// that does not contain exactly one entry.
	LayoutErrBadArity LayoutErrorKind = iota + 1
	// LayoutErrBadElement indicates a non-scalar or unknown element type.
	LayoutErrBadElement
	// LayoutErrBadMember indicates an extra member whose type cannot be
	// resolved to a descriptor.
	LayoutErrBadMember
)

// LayoutError represents a configuration error detected at derivation
// time. It is fatal to compiling the requesting type and never retried.
type LayoutError struct {
	Kind  LayoutErrorKind
	Arity int          // for LayoutErrBadArity
	Name  string       // for LayoutErrBadMember
	Type  types.TypeID // offending type, when known
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrBadArity:
		return fmt.Sprintf("buffer spec requires exactly one element type, got %d", e.Arity)
	case LayoutErrBadElement:
		return fmt.Sprintf("buffer element must be a scalar type (type#%d)", e.Type)
	case LayoutErrBadMember:
		if e.Name != "" {
			return fmt.Sprintf("extra member %q has no type descriptor (type#%d)", e.Name, e.Type)
		}
		return fmt.Sprintf("extra member has no type descriptor (type#%d)", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}
