package ledger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
)

// KV defines the key-value store interface every append-only Store is
// built on. Implementations may be in-memory, an embedded KV (see
// pkg/kvdb, which wraps cometbft-db), or a durable external store.
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// Store provides high-level, append-only access to a sequence of JSON
// records in a KV store, all namespaced under a single key prefix.
//
// CONCURRENCY: Store assumes single-writer access per prefix, exactly as
// the validator's original LedgerStore assumed single-writer access from
// the consensus commit thread. Here the caller (one of the kernel's
// per-component stores) is responsible for serializing Append calls for
// a given prefix; Store adds its own mutex so a single process with
// multiple goroutines calling into the same Store is still safe, but it
// does not coordinate across separate Store instances sharing a KV.
type Store struct {
	mu     sync.Mutex
	kv     KV
	prefix string
}

// NewStore creates a Store scoped to the given key prefix.
func NewStore(kv KV, prefix string) *Store {
	return &Store{kv: kv, prefix: prefix}
}

func (s *Store) metaKey() []byte {
	return []byte(s.prefix + ":meta")
}

func (s *Store) recordKey(position uint64) []byte {
	b := make([]byte, len(s.prefix)+1+8)
	n := copy(b, s.prefix)
	b[n] = ':'
	binary.BigEndian.PutUint64(b[n+1:], position)
	return b
}

func (s *Store) loadMeta() (Meta, error) {
	b, err := s.kv.Get(s.metaKey())
	if err != nil {
		return Meta{}, fmt.Errorf("ledger: load meta for %q: %w", s.prefix, err)
	}
	if len(b) == 0 {
		return Meta{}, ErrMetaNotFound
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, fmt.Errorf("ledger: unmarshal meta for %q: %w", s.prefix, err)
	}
	return m, nil
}

func (s *Store) saveMeta(m Meta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("ledger: marshal meta for %q: %w", s.prefix, err)
	}
	return s.kv.Set(s.metaKey(), b)
}

// Append writes record at the next position (1-indexed, strictly
// monotonic, never reused — spec.md I3/I7) and returns that position.
func (s *Store) Append(record any) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.loadMeta()
	if err != nil {
		if err != ErrMetaNotFound {
			return 0, err
		}
		meta = Meta{}
	}

	position := meta.Length + 1

	b, err := json.Marshal(record)
	if err != nil {
		return 0, fmt.Errorf("ledger: marshal record for %q: %w", s.prefix, err)
	}
	if err := s.kv.Set(s.recordKey(position), b); err != nil {
		return 0, fmt.Errorf("ledger: write record %d for %q: %w", position, s.prefix, err)
	}

	meta.Length = position
	if err := s.saveMeta(meta); err != nil {
		return 0, fmt.Errorf("ledger: advance meta for %q: %w", s.prefix, err)
	}
	return position, nil
}

// Len returns the number of records appended so far.
func (s *Store) Len() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta, err := s.loadMeta()
	if err != nil {
		if err == ErrMetaNotFound {
			return 0, nil
		}
		return 0, err
	}
	return meta.Length, nil
}

// Get loads the record stored at position into out (a pointer).
func (s *Store) Get(position uint64, out any) error {
	b, err := s.kv.Get(s.recordKey(position))
	if err != nil {
		return fmt.Errorf("ledger: read record %d for %q: %w", position, s.prefix, err)
	}
	if len(b) == 0 {
		return ErrRecordNotFound
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("ledger: unmarshal record %d for %q: %w", position, s.prefix, err)
	}
	return nil
}

// Range calls fn for every record from position 1 to Len(), in order.
// fn receives the record's raw JSON bytes to unmarshal itself, since
// Store does not know the concrete record type. Iteration stops at the
// first error returned by fn or by a failed read.
func (s *Store) Range(fn func(position uint64, raw []byte) error) error {
	length, err := s.Len()
	if err != nil {
		return err
	}
	for pos := uint64(1); pos <= length; pos++ {
		b, err := s.kv.Get(s.recordKey(pos))
		if err != nil {
			return fmt.Errorf("ledger: read record %d for %q: %w", pos, s.prefix, err)
		}
		if len(b) == 0 {
			return ErrRecordNotFound
		}
		if err := fn(pos, b); err != nil {
			return err
		}
	}
	return nil
}
