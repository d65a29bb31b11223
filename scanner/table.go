// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/IBM/mftwalk/store"
)

// ParseTable runs the full reconstruction pipeline over one raw MFT image:
// classify every slot, reassemble attribute lists, then build the directory
// name map. The phases are strictly ordered; each consumes the complete
// output of the one before it. Showing progress adds a bar over the
// classification phase, which dominates the runtime.
func ParseTable(table []byte, showProgress bool) (*store.Catalog, error) {
	cat := store.NewCatalog()

	classifyDone := logTime("classify")
	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.New(len(table) / RecordSize).Prefix("Records:").Start()
	}
	if err := ClassifyTable(cat, table, bar); err != nil {
		return nil, err
	}
	if bar != nil {
		bar.Finish()
	}
	classifyDone()

	reassembleDone := logTime("reassemble")
	ReassembleAttributes(cat)
	reassembleDone()

	nameMapDone := logTime("name map")
	BuildNameMap(cat)
	nameMapDone()

	log.Printf("Parsed: %d active, %d free, %d bad, %d uninitialized, %d named directories\n",
		len(cat.Active), len(cat.Free), len(cat.Bad), len(cat.Uninitialized), cat.NameCount())
	return cat, nil
}
