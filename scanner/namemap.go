// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	"github.com/IBM/mftwalk/record"
	"github.com/IBM/mftwalk/store"
)

// BuildNameMap populates the directory name map from the reassembled
// records: active records first so a deleted directory can never shadow a
// live one under a recycled identity, then free records so deleted
// directory trees still resolve. Only directories are named; files are
// resolved on demand against their parent's path.
func BuildNameMap(cat *store.Catalog) {
	for _, r := range cat.Active {
		nameRecord(cat, r)
	}
	for _, r := range cat.Free {
		nameRecord(cat, r)
	}
}

// nameRecord inserts the first usable $FILE_NAME of one directory record.
// DOS 8.3 names are skipped so the long name always wins when both are
// present; first-wins per identity is enforced by the catalog itself.
func nameRecord(cat *store.Catalog, r *record.Record) {
	if r.IsExtension() || !r.IsDir() {
		return
	}
	if len(r.Attributes) == 0 {
		log.Debugf("Directory record %s has no attributes", r.ID)
		return
	}
	for _, fn := range r.FileNames() {
		if fn.NameType == record.NameDos {
			continue
		}
		if cat.PutName(r.ID, fn.Name, fn.Parent, r.IsDeleted()) {
			break
		}
	}
}
