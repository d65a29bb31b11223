// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package record

import (
	"encoding/binary"
	"fmt"
	"hash"
)

// Identity is the unique key of an MFT record: the slot index within the
// table plus the reuse-generation counter of that slot. Two records with the
// same entry number but different sequence numbers are different identities;
// the slot was recycled between them.
type Identity struct {
	Entry uint32
	Seq   uint16
}

// RootIdentity is the well-known identity of the volume root directory.
// Entry 5 of every NTFS volume is the root and its sequence number is 5
// unless the slot has been recycled, which does not happen to the root.
var RootIdentity = Identity{Entry: 5, Seq: 5}

// IsZero returns true for the zero identity, which is what a base-record
// reference holds when the record is itself a base record.
func (id Identity) IsZero() bool {
	return id.Entry == 0 && id.Seq == 0
}

// String renders the canonical text form EEEEEEEE-SSSSSSSS used at every
// external boundary (serialization, CLI, log output).
func (id Identity) String() string {
	return fmt.Sprintf("%08X-%08X", id.Entry, id.Seq)
}

// ParseIdentity parses the canonical text form produced by String.
func ParseIdentity(s string) (Identity, error) {
	var entry, seq uint32
	if _, err := fmt.Sscanf(s, "%8x-%8x", &entry, &seq); err != nil {
		return Identity{}, fmt.Errorf("invalid record identity %q: %v", s, err)
	}
	if seq > 0xFFFF {
		return Identity{}, fmt.Errorf("invalid record identity %q: sequence number out of range", s)
	}
	return Identity{Entry: entry, Seq: uint16(seq)}, nil
}

// let the compiler tell us if Identity stops being usable as a bloom filter
// member, which requires the hash.Hash64 interface
var _ hash.Hash64 = Identity{}

func (Identity) Write([]byte) (int, error) { defer panic("Unimplemented"); return 0, nil }
func (Identity) Reset()                    { panic("Unimplemented") }
func (Identity) BlockSize() int            { defer panic("Unimplemented"); return 0 }
func (Identity) Size() int                 { return 8 }
func (id Identity) Sum(in []byte) []byte   { return append(in, id.Bytes()...) }

// Bytes returns the identity packed into 8 little-endian bytes.
func (id Identity) Bytes() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, id.Sum64())
	return b
}

// Sum64 satisfies the hash.Hash64 interface
func (id Identity) Sum64() uint64 {
	return uint64(id.Entry)<<16 | uint64(id.Seq)
}
