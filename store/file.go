// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package store

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"
	"sort"

	"github.com/golang/snappy"
	"gopkg.in/yaml.v2"

	"github.com/IBM/mftwalk/record"
)

// SerializedCatalog is an alternative representation of Catalog that is
// flat and pointer-free. Other than creating the serialized struct from an
// existing Catalog, it is directly serializable using the defaults for more
// or less any encoding format desired. The extension index is not
// serialized; it is derivable from base-record references and rebuilt on
// load.
type SerializedCatalog struct {
	Active        []record.SerializedRecord
	Free          []record.SerializedRecord `yaml:",omitempty"`
	Bad           []record.SerializedRecord `yaml:",omitempty"`
	Uninitialized []record.SerializedRecord `yaml:",omitempty"`
	Names         []SerializedNameEntry     `yaml:",omitempty"`
}

// SerializedNameEntry is the flattened form of one directory name map
// entry, keyed by the owning identity.
type SerializedNameEntry struct {
	Entry       uint32
	Seq         uint16
	Name        string
	ParentEntry uint32
	ParentSeq   uint16
	Deleted     bool `yaml:",omitempty"`
}

// NewSerializedCatalog creates a new serializable copy of the catalog.
func (c *Catalog) NewSerializedCatalog() *SerializedCatalog {
	c.activeLock.Lock()
	defer c.activeLock.Unlock()
	c.freeLock.Lock()
	defer c.freeLock.Unlock()
	c.badLock.Lock()
	defer c.badLock.Unlock()
	c.uninitLock.Lock()
	defer c.uninitLock.Unlock()
	c.namesLock.Lock()
	defer c.namesLock.Unlock()

	onDisk := SerializedCatalog{
		Active: make([]record.SerializedRecord, 0, len(c.Active)),
		Free:   make([]record.SerializedRecord, 0, len(c.Free)),
		Names:  make([]SerializedNameEntry, 0, len(c.names)),
	}

	// 1. encode the classified records; slot offsets order each list so the
	// extension index rebuilds in table-scan order on load
	for _, r := range c.Active {
		onDisk.Active = append(onDisk.Active, record.NewSerializedRecord(r))
	}
	for _, r := range c.Free {
		onDisk.Free = append(onDisk.Free, record.NewSerializedRecord(r))
	}
	sortByOffset(onDisk.Active)
	sortByOffset(onDisk.Free)

	// 2. encode the diagnostic lists as-is, they are already in scan order
	for _, r := range c.Bad {
		onDisk.Bad = append(onDisk.Bad, record.NewSerializedRecord(r))
	}
	for _, r := range c.Uninitialized {
		onDisk.Uninitialized = append(onDisk.Uninitialized, record.NewSerializedRecord(r))
	}

	// 3. encode the name map, sorted for deterministic output
	for id, ent := range c.names {
		onDisk.Names = append(onDisk.Names, SerializedNameEntry{
			Entry:       id.Entry,
			Seq:         id.Seq,
			Name:        ent.Name,
			ParentEntry: ent.Parent.Entry,
			ParentSeq:   ent.Parent.Seq,
			Deleted:     ent.Deleted,
		})
	}
	sort.Slice(onDisk.Names, func(i, j int) bool {
		if onDisk.Names[i].Entry != onDisk.Names[j].Entry {
			return onDisk.Names[i].Entry < onDisk.Names[j].Entry
		}
		return onDisk.Names[i].Seq < onDisk.Names[j].Seq
	})

	return &onDisk
}

func sortByOffset(recs []record.SerializedRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Offset < recs[j].Offset })
}

func (c *Catalog) loadSerializedCatalog(onDisk *SerializedCatalog) error {
	// 1. restore the classified records into their maps, re-applying the
	// duplicate-identity rule so a tampered file cannot smuggle collisions in
	restored := make([]*record.Record, 0, len(onDisk.Active)+len(onDisk.Free))
	for _, sr := range onDisk.Active {
		r := sr.Restore()
		if err := c.PutActive(r); err != nil {
			return err
		}
		restored = append(restored, r)
	}
	for _, sr := range onDisk.Free {
		r := sr.Restore()
		if err := c.PutFree(r); err != nil {
			return err
		}
		restored = append(restored, r)
	}

	// 2. restore the diagnostic lists
	for _, sr := range onDisk.Bad {
		c.AddBad(sr.Restore())
	}
	for _, sr := range onDisk.Uninitialized {
		c.AddUninitialized(sr.Restore())
	}

	// 3. rebuild the extension index from base references, in scan order
	sort.Slice(restored, func(i, j int) bool { return restored[i].Offset < restored[j].Offset })
	for _, r := range restored {
		if r.IsExtension() {
			c.AddExtension(r.Base, r)
		}
	}

	// 4. reload the name map through the normal insert path so the bloom
	// filter is repopulated
	for _, n := range onDisk.Names {
		c.PutName(
			record.Identity{Entry: n.Entry, Seq: n.Seq},
			n.Name,
			record.Identity{Entry: n.ParentEntry, Seq: n.ParentSeq},
			n.Deleted,
		)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler via the serialized form.
func (c *Catalog) MarshalYAML() (interface{}, error) {
	return c.NewSerializedCatalog(), nil
}

// UnmarshalYAML modifies the receiver so it must take a pointer receiver.
func (c *Catalog) UnmarshalYAML(unmarshal func(interface{}) error) error {
	onDisk := new(SerializedCatalog)
	if err := unmarshal(onDisk); err != nil {
		return err
	}
	return c.loadSerializedCatalog(onDisk)
}

// Persist writes the catalog to the named file as a snappy-compressed gob
// stream so path queries can reload it without rescanning the table.
func (c *Catalog) Persist(path string) error {
	onDisk := c.NewSerializedCatalog()

	binFile, err := os.Create(path)
	if err != nil {
		return err
	}
	snappyFile := snappy.NewBufferedWriter(binFile)
	encoder := gob.NewEncoder(snappyFile)
	if err := encoder.Encode(onDisk); err != nil {
		binFile.Close()
		return err
	}
	if err := snappyFile.Close(); err != nil {
		binFile.Close()
		return err
	}
	return binFile.Close()
}

// PersistYAML writes the catalog to the named file as YAML for humans and
// other tools.
func (c *Catalog) PersistYAML(path string) error {
	onDisk := c.NewSerializedCatalog()

	yamlFile, err := os.Create(path)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(yamlFile)
	if err := encoder.Encode(onDisk); err != nil {
		yamlFile.Close()
		return err
	}
	if err := encoder.Close(); err != nil {
		yamlFile.Close()
		return err
	}
	return yamlFile.Close()
}

// As per the snappy spec, this is the magic header that is at the start of
// every valid snappy compressed stream.
var snappyMagic = []byte("\xff\x06\x00\x00" + "sNaPpY")

// RestoreCatalog loads a catalog persisted by Persist or PersistYAML,
// deciding the format by peeking at the stream header.
func RestoreCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, len(snappyMagic))
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	onDisk := new(SerializedCatalog)
	if n == len(snappyMagic) && bytes.Equal(header, snappyMagic) {
		decoder := gob.NewDecoder(snappy.NewReader(f))
		if err := decoder.Decode(onDisk); err != nil {
			return nil, err
		}
	} else {
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(onDisk); err != nil {
			return nil, err
		}
	}

	cat := NewCatalog()
	if err := cat.loadSerializedCatalog(onDisk); err != nil {
		log.Println("Restore failed due to inconsistency:", err)
		return nil, err
	}
	return cat, nil
}
