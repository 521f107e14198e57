// Package blackboard is the coordinator-owned shared context: a versioned,
// append-only key/value store. SubTasks read a snapshot taken at group start
// and propose writes through a Buffer that commits atomically when the
// SubTask reaches a terminal state.
package blackboard

import (
	"sort"
	"sync"
)

// Entry is one committed version of a key. Immutable once written.
type Entry struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Writer  string `json:"writer"`
	Version int    `json:"version"`
}

// Board holds all versions of all keys. Versions for a key are strictly
// increasing and never rewritten.
type Board struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

func NewBoard() *Board {
	return &Board{entries: map[string][]Entry{}}
}

// append adds one version under the lock held by the caller.
func (b *Board) append(key string, value any, writer string) {
	versions := b.entries[key]
	b.entries[key] = append(versions, Entry{
		Key:     key,
		Value:   value,
		Writer:  writer,
		Version: len(versions) + 1,
	})
}

// Commit applies every buffered write of one SubTask atomically. Sibling
// writes to the same key both land, as distinct versions with their own
// writer provenance; nothing is merged or overwritten.
func (b *Board) Commit(buf *Buffer) {
	if buf == nil || len(buf.writes) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range buf.writes {
		b.append(w.key, w.value, buf.writer)
	}
}

// Snapshot returns an immutable copy of every key's version history. Groups
// snapshot once at the fan-in barrier, so siblings never observe each
// other's in-progress writes.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string][]Entry, len(b.entries))
	for k, versions := range b.entries {
		out[k] = append([]Entry(nil), versions...)
	}
	return Snapshot{entries: out}
}

// Snapshot is a consistent read view of the board.
type Snapshot struct {
	entries map[string][]Entry
}

// Get returns every committed version of a key, oldest first. Readers see
// all versions with provenance; conflicting sibling writes are surfaced,
// never silently merged.
func (s Snapshot) Get(key string) ([]Entry, bool) {
	versions, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return append([]Entry(nil), versions...), true
}

// Latest returns the newest version of a key.
func (s Snapshot) Latest(key string) (Entry, bool) {
	versions, ok := s.entries[key]
	if !ok || len(versions) == 0 {
		return Entry{}, false
	}
	return versions[len(versions)-1], true
}

// Keys returns all keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of distinct keys.
func (s Snapshot) Len() int {
	return len(s.entries)
}

type bufferedWrite struct {
	key   string
	value any
}

// Buffer collects one SubTask's proposed writes. Not safe for concurrent
// use; each SubTask owns exactly one buffer.
type Buffer struct {
	writer string
	writes []bufferedWrite
}

// NewBuffer creates a write buffer attributed to the given SubTask id.
func NewBuffer(writer string) *Buffer {
	return &Buffer{writer: writer}
}

// Put stages a write. Nothing is visible to other SubTasks until Commit.
func (b *Buffer) Put(key string, value any) {
	b.writes = append(b.writes, bufferedWrite{key: key, value: value})
}

// Len returns the number of staged writes.
func (b *Buffer) Len() int {
	return len(b.writes)
}
