package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Layout / configuration
	CfgBadArity   Code = 1001
	CfgBadElement Code = 1002
	CfgBadMember  Code = 1003
	CfgNoSentinel Code = 1004

	// Emission
	EmitUnsupportedType Code = 2001
	EmitBadKernelOp     Code = 2002

	// Lifetime analysis
	LeakMissingFree      Code = 3001
	LeakFreeWithoutAlloc Code = 3002
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown",

	CfgBadArity:   "buffer spec must carry exactly one element type",
	CfgBadElement: "buffer element type is not a scalar",
	CfgBadMember:  "extra member has no type descriptor",
	CfgNoSentinel: "no null sentinel configured for element type",

	EmitUnsupportedType: "type has no LLVM lowering",
	EmitBadKernelOp:     "kernel operation is malformed",

	LeakMissingFree:      "buffer is allocated but never freed",
	LeakFreeWithoutAlloc: "free targets a buffer not allocated in this function",
}

// ID returns the short stable identifier, e.g. "CFG1001".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LEAK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
