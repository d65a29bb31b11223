// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/IBM/mftwalk/record"
)

// packRef packs an identity into the on-disk 8 byte file reference.
func packRef(entry uint32, seq uint16) uint64 {
	return uint64(entry) | uint64(seq)<<48
}

// residentAttr frames a resident attribute around the given value bytes,
// padding the total length to the 8 byte alignment real records use.
func residentAttr(attrType uint32, body []byte) []byte {
	attrLen := (24 + len(body) + 7) &^ 7
	raw := make([]byte, attrLen)
	binary.LittleEndian.PutUint32(raw[0:4], attrType)
	binary.LittleEndian.PutUint32(raw[4:8], uint32(attrLen))
	binary.LittleEndian.PutUint32(raw[16:20], uint32(len(body)))
	binary.LittleEndian.PutUint16(raw[20:22], 24)
	copy(raw[24:], body)
	return raw
}

func utf16Bytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	raw := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[i*2:], u)
	}
	return raw
}

// fileNameAttr builds a resident $FILE_NAME attribute.
func fileNameAttr(parentEntry uint32, parentSeq uint16, name string, nameType byte) []byte {
	nameBytes := utf16Bytes(name)
	body := make([]byte, 66+len(nameBytes))
	binary.LittleEndian.PutUint64(body[0:8], packRef(parentEntry, parentSeq))
	body[64] = byte(len(utf16.Encode([]rune(name))))
	body[65] = nameType
	copy(body[66:], nameBytes)
	return residentAttr(uint32(record.AttrTypeFileName), body)
}

type listEntry struct {
	attrType uint32
	entry    uint32
	seq      uint16
	name     string
}

// attrListAttr builds a resident $ATTRIBUTE_LIST attribute.
func attrListAttr(entries ...listEntry) []byte {
	var body []byte
	for _, e := range entries {
		nameBytes := utf16Bytes(e.name)
		entryLen := (26 + len(nameBytes) + 7) &^ 7
		raw := make([]byte, entryLen)
		binary.LittleEndian.PutUint32(raw[0:4], e.attrType)
		binary.LittleEndian.PutUint16(raw[4:6], uint16(entryLen))
		raw[6] = byte(len(utf16.Encode([]rune(e.name))))
		raw[7] = 26
		binary.LittleEndian.PutUint64(raw[16:24], packRef(e.entry, e.seq))
		copy(raw[26:], nameBytes)
		body = append(body, raw...)
	}
	return residentAttr(uint32(record.AttrTypeAttributeList), body)
}

// nonResidentAttr frames a minimal non-resident attribute header.
func nonResidentAttr(attrType uint32) []byte {
	raw := make([]byte, 64)
	binary.LittleEndian.PutUint32(raw[0:4], attrType)
	binary.LittleEndian.PutUint32(raw[4:8], 64)
	raw[8] = 1
	return raw
}

// buildSlot assembles a full 1KB record slot with no fixup-protected
// sectors, so the content can be laid out freely.
func buildSlot(entry uint32, seq uint16, flags uint16, base uint64, attrs ...[]byte) []byte {
	slot := make([]byte, RecordSize)
	copy(slot[0:4], "FILE")
	binary.LittleEndian.PutUint16(slot[4:6], 48)
	binary.LittleEndian.PutUint16(slot[16:18], seq)
	binary.LittleEndian.PutUint16(slot[20:22], 56)
	binary.LittleEndian.PutUint16(slot[22:24], flags)
	binary.LittleEndian.PutUint64(slot[32:40], base)
	binary.LittleEndian.PutUint32(slot[44:48], entry)

	offset := 56
	for _, a := range attrs {
		copy(slot[offset:], a)
		offset += len(a)
	}
	binary.LittleEndian.PutUint32(slot[offset:offset+4], uint32(record.AttrTypeEnd))
	return slot
}

func TestDecodeDirectoryRecord(t *testing.T) {
	slot := buildSlot(40, 1, record.FlagInUse|record.FlagDirectory, 0,
		residentAttr(uint32(record.AttrTypeStandardInformation), make([]byte, 48)),
		fileNameAttr(5, 5, "Windows", byte(record.NameWin32)),
		fileNameAttr(5, 5, "WINDOW~1", byte(record.NameDos)),
	)

	r := DecodeRecord(40*RecordSize, slot)
	if r.Bad || r.Uninitialized {
		t.Fatalf("record decoded as bad=%t uninitialized=%t", r.Bad, r.Uninitialized)
	}
	if want := (record.Identity{Entry: 40, Seq: 1}); r.ID != want {
		t.Errorf("ID got %s, want %s", r.ID, want)
	}
	if !r.IsDir() || r.IsDeleted() || r.IsExtension() {
		t.Errorf("flags misdecoded: dir=%t deleted=%t extension=%t", r.IsDir(), r.IsDeleted(), r.IsExtension())
	}

	names := r.FileNames()
	if len(names) != 2 {
		t.Fatalf("decoded %d file names, want 2", len(names))
	}
	if names[0].Name != "Windows" || names[0].NameType != record.NameWin32 || names[0].Parent != record.RootIdentity {
		t.Errorf("first name got %+v, want Windows/Win32 under the root", names[0])
	}
	if names[1].Name != "WINDOW~1" || names[1].NameType != record.NameDos {
		t.Errorf("second name got %+v, want the DOS alias", names[1])
	}
}

func TestDecodeSlotSignatures(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func([]byte)
		bad           bool
		uninitialized bool
	}{
		{"zeroed slot", func(s []byte) { copy(s[0:4], []byte{0, 0, 0, 0}) }, false, true},
		{"chkdsk BAAD stamp", func(s []byte) { copy(s[0:4], "BAAD") }, true, false},
		{"garbage signature", func(s []byte) { copy(s[0:4], "EVIL") }, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := buildSlot(7, 1, record.FlagInUse, 0)
			tt.mutate(slot)
			r := DecodeRecord(7*RecordSize, slot)
			if r.Bad != tt.bad || r.Uninitialized != tt.uninitialized {
				t.Errorf("got bad=%t uninitialized=%t, want bad=%t uninitialized=%t",
					r.Bad, r.Uninitialized, tt.bad, tt.uninitialized)
			}
			if r.Offset != 7*RecordSize {
				t.Errorf("offset got %d, want %d", r.Offset, 7*RecordSize)
			}
		})
	}

	t.Run("short buffer", func(t *testing.T) {
		if r := DecodeRecord(0, make([]byte, 100)); !r.Bad {
			t.Error("truncated slot should decode as bad")
		}
	})
}

func TestDecodeFixups(t *testing.T) {
	// protect both 512 byte sectors: usn at 48, saved tail words at 50 and 52
	withFixups := func() []byte {
		slot := buildSlot(9, 2, record.FlagInUse, 0)
		binary.LittleEndian.PutUint16(slot[6:8], 3)
		copy(slot[48:50], []byte{0xAA, 0xBB})
		copy(slot[50:52], []byte{0x11, 0x22})
		copy(slot[52:54], []byte{0x33, 0x44})
		copy(slot[510:512], []byte{0xAA, 0xBB})
		copy(slot[1022:1024], []byte{0xAA, 0xBB})
		return slot
	}

	t.Run("intact", func(t *testing.T) {
		r := DecodeRecord(9*RecordSize, withFixups())
		if r.Bad {
			t.Fatal("slot with matching fixups should decode")
		}
		if want := (record.Identity{Entry: 9, Seq: 2}); r.ID != want {
			t.Errorf("ID got %s, want %s", r.ID, want)
		}
	})

	t.Run("torn write", func(t *testing.T) {
		slot := withFixups()
		copy(slot[1022:1024], []byte{0xDE, 0xAD})
		if r := DecodeRecord(9*RecordSize, slot); !r.Bad {
			t.Error("slot with a mismatched sector tail should decode as bad")
		}
	})
}

func TestDecodeExtensionRecord(t *testing.T) {
	slot := buildSlot(31, 1, record.FlagInUse, packRef(30, 2),
		nonResidentAttr(uint32(record.AttrTypeData)),
	)
	r := DecodeRecord(31*RecordSize, slot)
	if !r.IsExtension() {
		t.Fatal("record with a base reference should be an extension")
	}
	if want := (record.Identity{Entry: 30, Seq: 2}); r.Base != want {
		t.Errorf("base got %s, want %s", r.Base, want)
	}
	if len(r.Attributes) != 1 || !r.Attributes[0].IsNonResident() {
		t.Errorf("attributes got %v, want one non-resident data attribute", r.Attributes)
	}
}

func TestDecodeAttributeList(t *testing.T) {
	slot := buildSlot(30, 2, record.FlagInUse, 0,
		attrListAttr(
			listEntry{attrType: uint32(record.AttrTypeStandardInformation), entry: 30, seq: 2},
			listEntry{attrType: uint32(record.AttrTypeData), entry: 31, seq: 1},
			listEntry{attrType: uint32(record.AttrTypeData), entry: 32, seq: 1, name: "stream"},
		),
	)

	r := DecodeRecord(30*RecordSize, slot)
	al := r.AttributeList()
	if al == nil {
		t.Fatal("attribute list should have been decoded")
	}
	if al.NonResident {
		t.Error("resident attribute list decoded as non-resident")
	}
	if len(al.Entries) != 3 {
		t.Fatalf("decoded %d list entries, want 3", len(al.Entries))
	}
	if al.Entries[0].Target != (record.Identity{Entry: 30, Seq: 2}) || al.Entries[0].Type != record.AttrTypeStandardInformation {
		t.Errorf("first entry got %+v, want the self reference", al.Entries[0])
	}
	if al.Entries[1].Target != (record.Identity{Entry: 31, Seq: 1}) || al.Entries[1].Name != "" {
		t.Errorf("second entry got %+v, want unnamed data in 31-1", al.Entries[1])
	}
	if al.Entries[2].Name != "stream" {
		t.Errorf("third entry name got %q, want %q", al.Entries[2].Name, "stream")
	}
}

func TestDecodeEntryNumberFallback(t *testing.T) {
	slot := buildSlot(0, 4, record.FlagInUse, 0)
	r := DecodeRecord(3*RecordSize, slot)
	if want := (record.Identity{Entry: 3, Seq: 4}); r.ID != want {
		t.Errorf("ID got %s, want the slot ordinal fallback %s", r.ID, want)
	}
}
