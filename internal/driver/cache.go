package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"promptlint/internal/scan"
)

// Schema version, incremented whenever cachePayload changes shape.
const cacheSchemaVersion uint16 = 1

// Digest is a SHA-256 content hash.
type Digest = [32]byte

// DiskCache remembers which documents were clean under which policy, so
// repeated runs over an unchanged tree skip re-linting them. Dirty documents
// are always re-linted; only the "nothing to report" verdict is cached.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema      uint16
	Path        string
	ContentHash Digest
	PolicyHash  Digest
	Clean       bool
}

// OpenDiskCache initializes the cache at the standard XDG location.
func OpenDiskCache(app string) (*DiskCache, error) {
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
	return &DiskCache{dir: dir}, nil
}

// pathFor keys entries by content and policy together, so runs under
// different policies over the same tree never evict each other's verdicts.
func (c *DiskCache) pathFor(contentHash, policyHash Digest) string {
	name := hex.EncodeToString(contentHash[:]) + "-" + hex.EncodeToString(policyHash[:8]) + ".mp"
	return filepath.Join(c.dir, "docs", name)
}

// Put records a verdict, written atomically via temp file plus rename.
func (c *DiskCache) Put(contentHash, policyHash Digest, payload *cachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(contentHash, policyHash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a verdict. A missing entry is not an error.
func (c *DiskCache) Get(contentHash, policyHash Digest, out *cachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(contentHash, policyHash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// DropAll wipes the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(c.dir)
}

// policyDigest hashes everything that can change a verdict: the scanner
// policy, the flow toggle, and the field restriction.
func policyDigest(opts Options) Digest {
	policy, err := opts.Config.Policy.ScanPolicy()
	if err != nil {
		policy = scan.Policy{}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d;fix=%t;flow=%t;escape=%q;", cacheSchemaVersion, opts.Fix, opts.Flow, policy.Escape)
	for _, p := range policy.Pairs {
		fmt.Fprintf(&sb, "pair=%q%q;", p.Open, p.Close)
	}
	for _, q := range policy.Quotes {
		fmt.Fprintf(&sb, "quote=%q;", q)
	}
	fields := append([]string(nil), opts.Fields...)
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(&sb, "field=%q;", f)
	}
	return sha256.Sum256([]byte(sb.String()))
}

// cachedClean reports whether the cache says this exact content was clean
// under the current policy.
func cachedClean(c *DiskCache, contentHash, policyHash Digest) bool {
	if c == nil {
		return false
	}
	var payload cachePayload
	hit, err := c.Get(contentHash, policyHash, &payload)
	if err != nil || !hit {
		return false
	}
	return payload.Schema == cacheSchemaVersion &&
		payload.ContentHash == contentHash &&
		payload.PolicyHash == policyHash &&
		payload.Clean
}

// recordClean is best-effort; cache write failures never fail the run.
func recordClean(c *DiskCache, path string, contentHash, policyHash Digest) {
	if c == nil {
		return
	}
	_ = c.Put(contentHash, policyHash, &cachePayload{
		Schema:      cacheSchemaVersion,
		Path:        path,
		ContentHash: contentHash,
		PolicyHash:  policyHash,
		Clean:       true,
	})
}
