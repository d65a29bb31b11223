// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package store

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/steakknife/bloomfilter"

	"github.com/IBM/mftwalk/record"
)

// NameEntry is the canonical (name, parent, deleted) tuple the directory
// name map stores per identity. Deleted is a property of the value; entries
// are never removed from the map once inserted.
type NameEntry struct {
	Name    string
	Parent  record.Identity
	Deleted bool
}

// Catalog holds every index built from one raw MFT table: the four
// classification buckets, the extension index, and the directory name map.
// Inserts happen during construction only; after that the catalog is
// read-only and safe for concurrent path resolution.
type Catalog struct {
	Active        map[record.Identity]*record.Record
	Free          map[record.Identity]*record.Record
	Bad           []*record.Record
	Uninitialized []*record.Record
	// Extensions maps a base-record identity to the records extending it,
	// in table-scan order. Orthogonal to the classification maps: a record
	// can be active and an extension at the same time.
	Extensions map[record.Identity][]*record.Record

	activeLock sync.Mutex
	freeLock   sync.Mutex
	badLock    sync.Mutex
	uninitLock sync.Mutex
	extLock    sync.Mutex

	names     map[record.Identity]NameEntry
	namesLock sync.Mutex
	// nameFilter fronts the name map so that path walks hitting an
	// unresolvable ancestor can fail the lookup without taking the lock.
	// Misses are the common case on damaged volumes.
	nameFilter *bloomfilter.Filter
	pathCache  *lru.ARCCache
}

// DuplicateRecordError is the fatal construction failure raised when two
// slots of the same table decode to the same identity. It means either the
// table is corrupt or the decoder broke its contract; the colliding record
// is never silently merged over the first one.
type DuplicateRecordError struct {
	ID             record.Identity
	Map            string
	ExistingOffset int64
	NewOffset      int64
}

func (e DuplicateRecordError) Error() string {
	return fmt.Sprintf("duplicate identity %s in %s record map: slot at offset %d collides with slot at offset %d",
		e.ID, e.Map, e.NewOffset, e.ExistingOffset)
}

// NewCatalog returns an empty catalog ready for one construction pass.
func NewCatalog() *Catalog {
	// maps have a zero-value that isn't a valid map
	pathCache, err := lru.NewARC(64 * 1024)
	if err != nil {
		log.Println("Error initializing LRU/ARC path cache(65536)")
	}
	nameFilter, err := bloomfilter.NewOptimal(1024*1024, 0.000001)
	if err != nil {
		log.Println("Error initializing name map bloom filter")
	}
	return &Catalog{
		Active:     make(map[record.Identity]*record.Record, 1024),
		Free:       make(map[record.Identity]*record.Record, 1024),
		Extensions: make(map[record.Identity][]*record.Record),
		names:      make(map[record.Identity]NameEntry, 1024),
		nameFilter: nameFilter,
		pathCache:  pathCache,
	}
}

// PutActive stores an active record under its own identity. Colliding with
// an identity already present is fatal, not an upsert.
func (c *Catalog) PutActive(r *record.Record) error {
	c.activeLock.Lock()
	defer c.activeLock.Unlock()
	if existing, ok := c.Active[r.ID]; ok {
		return DuplicateRecordError{ID: r.ID, Map: "active", ExistingOffset: existing.Offset, NewOffset: r.Offset}
	}
	c.Active[r.ID] = r
	return nil
}

// PutFree stores a deleted-but-decodable record under its own identity. The
// same duplicate rule as PutActive applies.
func (c *Catalog) PutFree(r *record.Record) error {
	c.freeLock.Lock()
	defer c.freeLock.Unlock()
	if existing, ok := c.Free[r.ID]; ok {
		return DuplicateRecordError{ID: r.ID, Map: "free", ExistingOffset: existing.Offset, NewOffset: r.Offset}
	}
	c.Free[r.ID] = r
	return nil
}

// AddBad retains a malformed record for diagnostics. Bad records never
// participate in reassembly or naming.
func (c *Catalog) AddBad(r *record.Record) {
	c.badLock.Lock()
	defer c.badLock.Unlock()
	c.Bad = append(c.Bad, r)
}

// AddUninitialized retains a never-allocated slot for diagnostics.
func (c *Catalog) AddUninitialized(r *record.Record) {
	c.uninitLock.Lock()
	defer c.uninitLock.Unlock()
	c.Uninitialized = append(c.Uninitialized, r)
}

// AddExtension records that r extends the record with the given base
// identity. Append order is preserved; callers feed records in table-scan
// order so non-resident attribute lists merge deterministically.
func (c *Catalog) AddExtension(base record.Identity, r *record.Record) {
	c.extLock.Lock()
	defer c.extLock.Unlock()
	c.Extensions[base] = append(c.Extensions[base], r)
}

// ExtensionsOf returns the records extending the given identity, in the
// order they were discovered.
func (c *Catalog) ExtensionsOf(id record.Identity) []*record.Record {
	c.extLock.Lock()
	defer c.extLock.Unlock()
	return c.Extensions[id]
}

// LookupActive resolves an identity against the active-record map.
func (c *Catalog) LookupActive(id record.Identity) (*record.Record, bool) {
	c.activeLock.Lock()
	defer c.activeLock.Unlock()
	r, ok := c.Active[id]
	return r, ok
}

// PutName inserts the canonical name tuple for an identity. Only the first
// insertion per identity succeeds; later candidates (hard links, alternate
// names, deleted records shadowed by active ones) are ignored. Reports
// whether the entry was inserted.
func (c *Catalog) PutName(id record.Identity, name string, parent record.Identity, deleted bool) bool {
	c.namesLock.Lock()
	defer c.namesLock.Unlock()
	if _, ok := c.names[id]; ok {
		return false
	}
	c.names[id] = NameEntry{Name: name, Parent: parent, Deleted: deleted}
	if c.nameFilter != nil {
		c.nameFilter.Add(id)
	}
	return true
}

// LookupName resolves an identity against the directory name map.
func (c *Catalog) LookupName(id record.Identity) (NameEntry, bool) {
	if c.nameFilter != nil && !c.nameFilter.Contains(id) {
		return NameEntry{}, false
	}
	c.namesLock.Lock()
	defer c.namesLock.Unlock()
	ent, ok := c.names[id]
	return ent, ok
}

// NameCount returns the number of directories the name map resolved.
func (c *Catalog) NameCount() int {
	c.namesLock.Lock()
	defer c.namesLock.Unlock()
	return len(c.names)
}

// NameIdentities returns every identity in the directory name map, sorted
// by entry then sequence number for stable listings.
func (c *Catalog) NameIdentities() []record.Identity {
	c.namesLock.Lock()
	ids := make([]record.Identity, 0, len(c.names))
	for id := range c.names {
		ids = append(ids, id)
	}
	c.namesLock.Unlock()

	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Entry != ids[j].Entry {
			return ids[i].Entry < ids[j].Entry
		}
		return ids[i].Seq < ids[j].Seq
	})
	return ids
}
