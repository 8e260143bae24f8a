package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"varbuf/internal/target"
)

// Increment when Payload's format changes.
const cacheSchemaVersion uint16 = 2

// Digest keys cache entries. Always a SHA-256 of the kernel definition
// plus the target fingerprint, so a target retune invalidates everything
// compiled against the old sentinel table.
type Digest = [32]byte

// Cache stores emitted function IR on disk, keyed by Digest.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// CachedWarning is a leak diagnostic flattened for storage. Spans are
// synthetic anyway, so the severity, code and message are what survive
// a round trip.
type CachedWarning struct {
	Severity uint8
	Code     uint16
	Message  string
}

// Payload stores one kernel's emitted IR and its diagnostics.
type Payload struct {
	Schema   uint16
	Name     string
	IR       string
	Warnings []CachedWarning
}

// OpenCache initializes and returns a disk cache at the standard location.
func OpenCache(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// OpenCacheAt opens a cache rooted at an explicit directory.
func OpenCacheAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "fns", hexKey+".mp")
}

// Put serializes and writes a payload, replacing any existing entry
// atomically via a temp file rename.
func (c *Cache) Put(key Digest, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry, a corrupt entry or a schema
// mismatch all read as a miss.
func (c *Cache) Get(key Digest) (*Payload, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		return nil, false
	}
	defer f.Close()

	var payload Payload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, false
	}
	return &payload, true
}

// DropAll invalidates the cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.RemoveAll(c.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// kernelKey digests everything that shapes a kernel's IR: the target
// fingerprint and the full op list.
func kernelKey(tgt target.Info, k Kernel) Digest {
	h := sha256.New()
	fp := tgt.Fingerprint()
	h.Write(fp[:])
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%d|%t\n",
		cacheSchemaVersion, k.Name, k.Element, k.Container, k.Mode, k.Count, k.Return)
	for _, op := range k.Ops {
		fmt.Fprintf(h, "%s|%d|%x\n", op.Kind, op.Index, op.Value)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
