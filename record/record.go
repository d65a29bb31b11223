// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package record

// Header flag bits of an MFT record.
const (
	FlagInUse     uint16 = 0x0001
	FlagDirectory uint16 = 0x0002
)

// Record is a single decoded MFT slot. Records are produced once by the
// decoder and mutated exactly once afterwards, when attribute reassembly
// replaces the Attributes slice of a base record with the merged collection.
type Record struct {
	// Offset is the byte offset of the slot within the raw table. It is
	// diagnostic only and takes no part in identity or classification.
	Offset int64
	ID     Identity
	Flags  uint16
	// Bad marks a slot whose signature or update-sequence fixups were
	// unrecoverable. Bad records carry no usable fields beyond Offset.
	Bad bool
	// Uninitialized marks a slot that was never allocated by the volume. It
	// carries no usable identity.
	Uninitialized bool
	// Base is the identity of the record this one extends. The zero identity
	// means the record is itself a base record.
	Base       Identity
	Attributes []Attribute
}

// IsDeleted reports whether the slot describes a deleted filesystem object.
// The slot contents remain decodable until the volume recycles it.
func (r *Record) IsDeleted() bool {
	return r.Flags&FlagInUse == 0
}

// IsDir reports whether the record describes a directory.
func (r *Record) IsDir() bool {
	return r.Flags&FlagDirectory != 0
}

// IsExtension reports whether the record holds overflow attributes for
// another record. Extension records are consumed through their base record
// and never processed on their own.
func (r *Record) IsExtension() bool {
	return r.Base.Entry != 0 && r.Base.Seq != 0
}

// AttributeList returns the record's attribute-list attribute, or nil. A
// record carries at most one; more than one is a decoder contract breach and
// the first wins here.
func (r *Record) AttributeList() *AttributeListAttr {
	for _, a := range r.Attributes {
		if al, ok := a.(*AttributeListAttr); ok {
			return al
		}
	}
	return nil
}

// FileNames returns the record's file-name attributes in attribute order,
// which is the order the decoder found them in the slot plus any merged
// extension attributes appended during reassembly.
func (r *Record) FileNames() []*FileNameAttr {
	var names []*FileNameAttr
	for _, a := range r.Attributes {
		if fn, ok := a.(*FileNameAttr); ok {
			names = append(names, fn)
		}
	}
	return names
}

func (r *Record) String() string {
	state := "active"
	switch {
	case r.Bad:
		state = "bad"
	case r.Uninitialized:
		state = "uninitialized"
	case r.IsDeleted():
		state = "free"
	}
	return r.ID.String() + " (" + state + ")"
}
