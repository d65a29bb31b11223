// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/IBM/mftwalk/record"
	"github.com/IBM/mftwalk/store"
)

// ClassifyRecord routes one decoded record into its catalog bucket.
// Extension membership is indexed independently of the bucket: an extension
// record is still active or free in its own right. The only error is an
// identity collision, which is fatal for the whole construction.
func ClassifyRecord(cat *store.Catalog, r *record.Record) error {
	switch {
	case r.Uninitialized:
		cat.AddUninitialized(r)
		return nil
	case r.Bad:
		cat.AddBad(r)
		return nil
	}

	if r.IsExtension() {
		cat.AddExtension(r.Base, r)
	}

	if r.IsDeleted() {
		return cat.PutFree(r)
	}
	return cat.PutActive(r)
}

// ClassifyTable decodes and classifies every slot of a raw MFT image in
// table order. A trailing partial slot is ignored with a warning; damaged
// slots are retained in the diagnostic buckets rather than skipped. The
// optional progress bar is incremented once per slot.
func ClassifyTable(cat *store.Catalog, table []byte, bar *pb.ProgressBar) error {
	slots := len(table) / RecordSize
	if rem := len(table) % RecordSize; rem != 0 {
		log.Warnf("Table size %d is not a multiple of the %d byte slot size, ignoring %d trailing bytes", len(table), RecordSize, rem)
	}

	for i := 0; i < slots; i++ {
		offset := int64(i) * RecordSize
		r := DecodeRecord(offset, table[offset:offset+RecordSize])
		if err := ClassifyRecord(cat, r); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
		}
	}
	return nil
}
