package layout

import "varbuf/internal/types"

type cacheKey struct {
	Elem      types.TypeID
	Extra     uint64
	Container string
	ByValue   bool
}

type cache struct {
	byKey map[cacheKey]*BufferLayout
}

func newCache() *cache {
	return &cache{byKey: make(map[cacheKey]*BufferLayout, 32)}
}

func (c *cache) get(key cacheKey) (*BufferLayout, bool) {
	if c == nil {
		return nil, false
	}
	l, ok := c.byKey[key]
	return l, ok
}

func (c *cache) put(key cacheKey, l *BufferLayout) {
	if c == nil || l == nil {
		return
	}
	c.byKey[key] = l
}

// extraFingerprint hashes the extra-member list so specs with equal
// members share a cache slot.
func extraFingerprint(extra []Member) uint64 {
	const (
		fnvOffset64 = 1469598103934665603
		fnvPrime64  = 1099511628211
	)
	hash := uint64(fnvOffset64)
	mix := func(x uint64) {
		hash ^= x
		hash *= fnvPrime64
	}
	mix(uint64(len(extra)))
	for _, m := range extra {
		for _, b := range []byte(m.Name) {
			mix(uint64(b))
		}
		mix(uint64(m.Type))
	}
	return hash
}
