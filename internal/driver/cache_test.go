package driver

import (
	"testing"

	"varbuf/internal/diag"
	"varbuf/internal/target"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCacheAt(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCacheAt: %v", err)
	}
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	c := testCache(t)
	key := kernelKey(target.X86_64LinuxGNU(), Kernel{Name: "k", Element: "int32", Count: 3})

	if _, ok := c.Get(key); ok {
		t.Fatalf("empty cache reported a hit")
	}

	in := &Payload{
		Schema: cacheSchemaVersion,
		Name:   "k",
		IR:     "define void @k() {\nentry:\n  ret void\n}\n",
		Warnings: []CachedWarning{
			{Severity: uint8(diag.SevWarning), Code: 3001, Message: "buffer k/new is allocated but never freed"},
			{Severity: uint8(diag.SevInfo), Code: 3002, Message: "k/free#1 frees a buffer not allocated here"},
		},
	}
	if err := c.Put(key, in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, ok := c.Get(key)
	if !ok {
		t.Fatalf("stored entry missed")
	}
	if out.Name != in.Name || out.IR != in.IR {
		t.Fatalf("payload corrupted: %+v", out)
	}
	if len(out.Warnings) != 2 || out.Warnings[0].Code != 3001 {
		t.Fatalf("warnings corrupted: %+v", out.Warnings)
	}
	if out.Warnings[0].Severity != uint8(diag.SevWarning) || out.Warnings[1].Severity != uint8(diag.SevInfo) {
		t.Fatalf("severities corrupted: %+v", out.Warnings)
	}
}

func TestCache_SchemaMismatchMisses(t *testing.T) {
	c := testCache(t)
	key := kernelKey(target.X86_64LinuxGNU(), Kernel{Name: "k", Element: "int32"})

	if err := c.Put(key, &Payload{Schema: cacheSchemaVersion + 1, Name: "k"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("stale schema read as a hit")
	}
}

func TestCache_NilReceiverIsInert(t *testing.T) {
	var c *Cache
	key := Digest{}
	if err := c.Put(key, &Payload{}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("nil Get hit")
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("nil DropAll: %v", err)
	}
}

func TestCache_DropAll(t *testing.T) {
	c := testCache(t)
	key := kernelKey(target.X86_64LinuxGNU(), Kernel{Name: "k", Element: "int32"})
	if err := c.Put(key, &Payload{Schema: cacheSchemaVersion, Name: "k"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Fatalf("dropped entry still readable")
	}
}

func TestKernelKey_Sensitivity(t *testing.T) {
	tgt := target.X86_64LinuxGNU()
	base := Kernel{Name: "k", Element: "int32", Count: 3, Ops: []Op{{Kind: "len"}}}

	if kernelKey(tgt, base) != kernelKey(tgt, base) {
		t.Fatalf("identical inputs disagree")
	}

	variants := []Kernel{
		{Name: "k2", Element: "int32", Count: 3, Ops: []Op{{Kind: "len"}}},
		{Name: "k", Element: "int64", Count: 3, Ops: []Op{{Kind: "len"}}},
		{Name: "k", Element: "int32", Count: 4, Ops: []Op{{Kind: "len"}}},
		{Name: "k", Element: "int32", Count: 3, Ops: []Op{{Kind: "free"}}},
		{Name: "k", Element: "int32", Count: 3, Return: true, Ops: []Op{{Kind: "len"}}},
		{Name: "k", Element: "int32", Count: 3, Mode: "value", Ops: []Op{{Kind: "len"}}},
	}
	seen := map[Digest]bool{kernelKey(tgt, base): true}
	for i, v := range variants {
		k := kernelKey(tgt, v)
		if seen[k] {
			t.Fatalf("variant %d collides with an earlier key", i)
		}
		seen[k] = true
	}

	// A sentinel retune invalidates every key for the target.
	retuned := target.X86_64LinuxGNU()
	retuned.NullValues["Array<int8>"] = 200
	if kernelKey(tgt, base) == kernelKey(retuned, base) {
		t.Fatalf("target retune did not change the key")
	}
}
