package target

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"varbuf/internal/types"
)

// Info describes the host target compiled functions run on: the ABI
// triple, pointer properties, the allocator entry points linked into the
// worker process, and the per-type null sentinel table supplied by the
// server. The sentinel table is consumed as an opaque lookup; this module
// never defines its contents.
type Info struct {
	Triple   string
	PtrSize  int // bytes
	PtrAlign int // bytes

	// Allocator boundary. AllocSym takes (count, element_size) and
	// returns the raw payload address; FreeSym releases one address.
	AllocSym string
	FreeSym  string

	// NullValues maps sentinel keys ("Array<int8>") to the raw unsigned
	// bit pattern designating null for that container/element pair.
	NullValues map[string]uint64
}

// X86_64LinuxGNU returns the default host target with the stock allocator
// symbols and the builtin sentinel table.
func X86_64LinuxGNU() Info {
	return Info{
		Triple:     "x86_64-linux-gnu",
		PtrSize:    8,
		PtrAlign:   8,
		AllocSym:   "allocate_varlen_buffer",
		FreeSym:    "free",
		NullValues: defaultNullValues(),
	}
}

// SentinelKey builds the lookup key for a container kind and element
// type name, e.g. SentinelKey("Array", "int8") -> "Array<int8>".
func SentinelKey(container, elem string) string {
	return container + "<" + elem + ">"
}

// NullValue looks up the raw sentinel bit pattern for a container kind
// and element type.
func (i Info) NullValue(container string, elem types.Type) (uint64, bool) {
	v, ok := i.NullValues[SentinelKey(container, elem.Name())]
	return v, ok
}

// Fingerprint hashes everything that affects emitted code so cached IR
// can be invalidated when the target changes.
func (i Info) Fingerprint() [32]byte {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%s|%s\n", i.Triple, i.PtrSize, i.PtrAlign, i.AllocSym, i.FreeSym)
	keys := make([]string, 0, len(i.NullValues))
	for k := range i.NullValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%d\n", k, i.NullValues[k])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// defaultNullValues mirrors the sentinel table a stock server advertises.
// Integer array sentinels are min+1 truncated to the element width (the
// server sends them as unsigned values: 129 at width 8 reads back as
// -127). Float sentinels are exact bit patterns.
func defaultNullValues() map[string]uint64 {
	return map[string]uint64{
		"Array<bool>":     129,
		"Array<int8>":     129,
		"Array<int16>":    32769,
		"Array<int32>":    2147483649,
		"Array<int64>":    9223372036854775809,
		"Array<float32>":  0x01000000,
		"Array<float64>":  0x0020000000000000,
		"Column<bool>":    128,
		"Column<int8>":    128,
		"Column<int16>":   32768,
		"Column<int32>":   2147483648,
		"Column<int64>":   9223372036854775808,
		"Column<float32>": 0x00800000,
		"Column<float64>": 0x0010000000000000,
	}
}
