// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	"sync"

	"github.com/IBM/mftwalk/record"
	"github.com/IBM/mftwalk/store"
)

// ReassembleAttributes folds extension-record attributes back into their
// base records, for every active and free base record that carries an
// attribute list. Extension records themselves are never reassembled; their
// attributes flow one way, into the base. Must run after classification and
// before the name map is built, since merged $FILE_NAME attributes are what
// naming sees.
func ReassembleAttributes(cat *store.Catalog) {
	var candidates []*record.Record
	for _, r := range cat.Active {
		if !r.IsExtension() {
			candidates = append(candidates, r)
		}
	}
	for _, r := range cat.Free {
		if !r.IsExtension() {
			candidates = append(candidates, r)
		}
	}

	// safe to parallelize: each worker writes only its own record's
	// attribute slice and extension sources are read-only here
	work := make(chan *record.Record, len(candidates))
	wg := sync.WaitGroup{}
	for _, r := range candidates {
		work <- r
	}
	close(work)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			for r := range work {
				reassembleRecord(cat, r)
			}
			wg.Done()
		}()
	}
	wg.Wait()
}

// reassembleRecord merges extension attributes into one base record. The
// merge is coarse: a referenced extension record contributes all of its
// attributes, keeping slot order, with no deduplication against what the
// base already holds.
func reassembleRecord(cat *store.Catalog, r *record.Record) {
	al := r.AttributeList()
	if al == nil {
		return
	}

	merged := make([]record.Attribute, len(r.Attributes))
	copy(merged, r.Attributes)

	if al.NonResident {
		// the list entries live in external clusters we cannot read, so
		// fall back to every extension record indexed against this base
		exts := cat.ExtensionsOf(r.ID)
		if len(exts) == 0 {
			log.Debugf("Record %s: non-resident attribute list with no indexed extensions", r.ID)
		}
		for _, ext := range exts {
			merged = append(merged, ext.Attributes...)
		}
		r.Attributes = merged
		return
	}

	for _, entry := range al.Entries {
		if entry.Target.Entry == r.ID.Entry {
			// descriptor for an attribute stored in the base itself
			continue
		}
		if entry.Name != "" {
			continue
		}
		ext, ok := cat.LookupActive(entry.Target)
		if !ok {
			log.Warnf("Record %s: extension target %s not found in the active map", r.ID, entry.Target)
			continue
		}
		merged = append(merged, ext.Attributes...)
	}
	r.Attributes = merged
}
