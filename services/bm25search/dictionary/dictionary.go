// Package dictionary implements the term dictionary: a concurrent-safe
// map from term surface forms to dense, stable integer ids, plus
// per-term document frequency.
package dictionary

import (
	"fmt"
	"sync"
)

// TermID is a dense, monotonically assigned identifier. Ids are never
// reused, even after df drops to zero.
type TermID uint32

// Entry is the persisted shape of a single term.
type Entry struct {
	ID      TermID
	Surface string
	DF      uint32
}

// Dictionary assigns stable TermIDs to surface forms and tracks document
// frequency. Safe for concurrent use; Lookup, Surface, DF, Len and
// Snapshot take a read lock, Intern takes one and upgrades to the write
// lock only when the surface is new, and BumpDF and Restore take the
// write lock.
type Dictionary struct {
	mu      sync.RWMutex
	bySurf  map[string]TermID
	entries []Entry // indexed by TermID
}

// New returns an empty Dictionary.
func New() *Dictionary {
	return &Dictionary{
		bySurf: make(map[string]TermID),
	}
}

// Intern returns the existing id for surface, or assigns and returns a new
// one. Newly assigned ids are dense (equal to the previous length of the
// entries table).
func (d *Dictionary) Intern(surface string) TermID {
	d.mu.RLock()
	if id, ok := d.bySurf[surface]; ok {
		d.mu.RUnlock()
		return id
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	// Re-check under the write lock: another goroutine may have interned
	// the same surface between the RUnlock above and this Lock.
	if id, ok := d.bySurf[surface]; ok {
		return id
	}
	id := TermID(len(d.entries))
	d.entries = append(d.entries, Entry{ID: id, Surface: surface})
	d.bySurf[surface] = id
	return id
}

// Lookup returns the id for surface, if it has ever been interned.
func (d *Dictionary) Lookup(surface string) (TermID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.bySurf[surface]
	return id, ok
}

// Surface returns the surface form for id. The bool is false if id was
// never assigned by this dictionary.
func (d *Dictionary) Surface(id TermID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.entries) {
		return "", false
	}
	return d.entries[id].Surface, true
}

// BumpDF adjusts df(id) by delta, clamping at zero (df <- max(0, df +
// delta)). It is a no-op, not an error, if id is unknown — callers only
// bump ids they themselves just interned or previously observed.
func (d *Dictionary) BumpDF(id TermID, delta int32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(id) >= len(d.entries) {
		return
	}
	e := &d.entries[id]
	next := int64(e.DF) + int64(delta)
	if next < 0 {
		next = 0
	}
	e.DF = uint32(next)
}

// DF returns the current document frequency for id.
func (d *Dictionary) DF(id TermID) (uint32, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(id) >= len(d.entries) {
		return 0, fmt.Errorf("dictionary: unknown term id %d", id)
	}
	return d.entries[id].DF, nil
}

// Len returns the number of distinct terms ever interned.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Snapshot returns a copy of every entry, for persistence (store/badger)
// or diagnostics. The returned slice is safe to retain.
func (d *Dictionary) Snapshot() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Restore replaces the dictionary's contents with entries, used when
// rehydrating from a persisted snapshot. entries must be dense and sorted
// by ID ascending starting at zero; Restore does not verify this beyond
// rebuilding the surface index in the given order.
func (d *Dictionary) Restore(entries []Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make([]Entry, len(entries))
	copy(d.entries, entries)
	d.bySurf = make(map[string]TermID, len(entries))
	for _, e := range d.entries {
		d.bySurf[e.Surface] = e.ID
	}
}
