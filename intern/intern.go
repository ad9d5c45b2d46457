// Package intern provides a process-local, sharded string interner used by
// the extractor and the import-segment precompute step to deduplicate hot
// strings (item names, path segments, aliases) across the parallel
// extraction and relationship-analysis stages.
package intern

import (
	"sync"

	"github.com/minio/highwayhash"
)

// shardCount must be a power of two so the hash-to-shard mapping below is a
// cheap mask instead of a modulo.
const shardCount = 32

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

type shard struct {
	mu    sync.RWMutex
	table map[string]string
}

// Interner hands out a single canonical string value for any number of
// equal inputs, guarded by mutual exclusion. Sharding the table by a hash
// of the string rather than one global mutex keeps contention low when
// many goroutines intern distinct strings concurrently during extraction.
type Interner struct {
	shards [shardCount]*shard
}

// New returns a ready-to-use Interner.
func New() *Interner {
	in := &Interner{}
	for i := range in.shards {
		in.shards[i] = &shard{table: make(map[string]string)}
	}
	return in
}

// Intern returns the canonical copy of s, storing s itself the first time
// it is seen.
func (in *Interner) Intern(s string) string {
	sh := in.shardFor(s)

	sh.mu.RLock()
	if v, ok := sh.table[s]; ok {
		sh.mu.RUnlock()
		return v
	}
	sh.mu.RUnlock()

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.table[s]; ok {
		return v
	}
	sh.table[s] = s
	return s
}

func (in *Interner) shardFor(s string) *shard {
	h, err := hash(s)
	if err != nil {
		// hashing never fails in practice (fixed-size key); fall back to
		// shard 0 rather than panicking, consistent with the extractor's
		// panic-free contract elsewhere in this module.
		return in.shards[0]
	}
	return in.shards[h&(shardCount-1)]
}

func hash(s string) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write([]byte(s))
	return h.Sum64(), err
}
