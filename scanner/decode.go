// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package scanner

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"

	"github.com/IBM/mftwalk/record"
)

// RecordSize is the fixed on-disk size of one MFT slot. Every modern NTFS
// volume uses 1KB records regardless of cluster size.
const RecordSize = 1024

var (
	goodSignature = []byte("FILE")
	// BAAD is stamped by chkdsk over records it found unrecoverable
	badSignature = []byte("BAAD")
)

// decodeReference unpacks a packed 8-byte file reference: 48 bits of entry
// number, 16 bits of sequence number.
func decodeReference(ref uint64) record.Identity {
	return record.Identity{
		Entry: uint32(ref & 0xffffffffffff),
		Seq:   uint16(ref >> 48),
	}
}

// DecodeRecord decodes one raw slot at the given table offset into a Record.
// It never fails: slots that cannot be decoded come back flagged Bad or
// Uninitialized so the caller can still account for them. The buffer is
// copied before fixups are applied, so callers may reuse it.
func DecodeRecord(offset int64, buf []byte) *record.Record {
	r := &record.Record{Offset: offset}
	if len(buf) < RecordSize {
		r.Bad = true
		return r
	}

	sig := buf[0:4]
	if bytes.Equal(sig, []byte{0, 0, 0, 0}) {
		r.Uninitialized = true
		return r
	}
	if bytes.Equal(sig, badSignature) {
		r.Bad = true
		return r
	}
	if !bytes.Equal(sig, goodSignature) {
		// arbitrary garbage lands in the same bucket as a BAAD stamp
		r.Bad = true
		return r
	}

	// fixups modify sector tails in place, so work on a copy
	slot := make([]byte, RecordSize)
	copy(slot, buf)
	if !applyFixups(slot) {
		r.Bad = true
		return r
	}

	r.Flags = binary.LittleEndian.Uint16(slot[22:24])
	r.Base = decodeReference(binary.LittleEndian.Uint64(slot[32:40]))

	entry := binary.LittleEndian.Uint32(slot[44:48])
	if entry == 0 && offset >= RecordSize {
		// pre-XP records do not carry their own number; fall back to the
		// slot ordinal
		entry = uint32(offset / RecordSize)
	}
	r.ID = record.Identity{
		Entry: entry,
		Seq:   binary.LittleEndian.Uint16(slot[16:18]),
	}

	attrOffset := binary.LittleEndian.Uint16(slot[20:22])
	r.Attributes = decodeAttributes(r.ID, slot, int(attrOffset))
	return r
}

// applyFixups validates and reverses the update sequence array: the last two
// bytes of each sector must equal the update sequence number and are
// replaced with the values saved in the array. A mismatch means the record
// was torn mid-write.
func applyFixups(slot []byte) bool {
	usaOffset := int(binary.LittleEndian.Uint16(slot[4:6]))
	usaCount := int(binary.LittleEndian.Uint16(slot[6:8]))
	if usaCount < 2 {
		// no protected sectors recorded, nothing to undo
		return true
	}
	if usaOffset+usaCount*2 > len(slot) {
		return false
	}

	usn := slot[usaOffset : usaOffset+2]
	for i := 1; i < usaCount; i++ {
		tail := i * 512
		if tail > len(slot) {
			return false
		}
		if !bytes.Equal(slot[tail-2:tail], usn) {
			return false
		}
		copy(slot[tail-2:tail], slot[usaOffset+i*2:usaOffset+i*2+2])
	}
	return true
}

func decodeAttributes(owner record.Identity, slot []byte, offset int) []record.Attribute {
	var attrs []record.Attribute
	for {
		if offset < 0 || offset+8 > len(slot) {
			log.Warnf("Record %s: attribute walk ran past the slot at offset %d", owner, offset)
			break
		}
		attrType := record.AttrType(binary.LittleEndian.Uint32(slot[offset : offset+4]))
		if attrType == record.AttrTypeEnd {
			break
		}
		attrLen := int(binary.LittleEndian.Uint32(slot[offset+4 : offset+8]))
		if attrLen < 16 || offset+attrLen > len(slot) {
			log.Warnf("Record %s: attribute 0x%X at offset %d has invalid length %d", owner, uint32(attrType), offset, attrLen)
			break
		}
		attrs = append(attrs, decodeAttribute(attrType, slot[offset:offset+attrLen]))
		offset += attrLen
	}
	return attrs
}

func decodeAttribute(attrType record.AttrType, raw []byte) record.Attribute {
	nonResident := raw[8] != 0
	switch attrType {
	case record.AttrTypeFileName:
		if fn := decodeFileName(raw); fn != nil {
			return fn
		}
	case record.AttrTypeAttributeList:
		return decodeAttributeList(raw, nonResident)
	}
	return &record.OtherAttr{
		Type:        attrType,
		NonResident: nonResident,
		Name:        attrName(raw),
	}
}

// attrName extracts the optional attribute name, e.g. an alternate data
// stream name on a $DATA attribute.
func attrName(raw []byte) string {
	nameLen := int(raw[9])
	if nameLen == 0 {
		return ""
	}
	nameOff := int(binary.LittleEndian.Uint16(raw[10:12]))
	if nameOff+nameLen*2 > len(raw) {
		return ""
	}
	return decodeUTF16(raw[nameOff : nameOff+nameLen*2])
}

// decodeFileName decodes a $FILE_NAME attribute. The attribute is always
// resident; a non-resident one is malformed and dropped.
func decodeFileName(raw []byte) *record.FileNameAttr {
	if raw[8] != 0 {
		return nil
	}
	body := residentPayload(raw)
	if len(body) < 66 {
		return nil
	}
	nameLen := int(body[64])
	if 66+nameLen*2 > len(body) {
		return nil
	}
	return &record.FileNameAttr{
		Parent:   decodeReference(binary.LittleEndian.Uint64(body[0:8])),
		NameType: record.NameType(body[65]),
		Name:     decodeUTF16(body[66 : 66+nameLen*2]),
	}
}

// decodeAttributeList decodes a $ATTRIBUTE_LIST attribute. Only resident
// lists carry entries in the slot; a non-resident list keeps its entries in
// external clusters, which the reassembler compensates for via the
// extension index.
func decodeAttributeList(raw []byte, nonResident bool) *record.AttributeListAttr {
	al := &record.AttributeListAttr{NonResident: nonResident}
	if nonResident {
		return al
	}

	body := residentPayload(raw)
	offset := 0
	for offset+26 <= len(body) {
		entryLen := int(binary.LittleEndian.Uint16(body[offset+4 : offset+6]))
		if entryLen < 26 || offset+entryLen > len(body) {
			break
		}
		entry := record.AttrListEntry{
			Type:   record.AttrType(binary.LittleEndian.Uint32(body[offset : offset+4])),
			Target: decodeReference(binary.LittleEndian.Uint64(body[offset+16 : offset+24])),
		}
		nameLen := int(body[offset+6])
		if nameLen > 0 {
			nameOff := int(body[offset+7])
			if offset+nameOff+nameLen*2 <= len(body) {
				entry.Name = decodeUTF16(body[offset+nameOff : offset+nameOff+nameLen*2])
			}
		}
		al.Entries = append(al.Entries, entry)
		offset += entryLen
	}
	return al
}

// residentPayload returns the value bytes of a resident attribute, or nil
// if the header lies about its size.
func residentPayload(raw []byte) []byte {
	if len(raw) < 24 {
		return nil
	}
	size := int(binary.LittleEndian.Uint32(raw[16:20]))
	off := int(binary.LittleEndian.Uint16(raw[20:22]))
	if off < 0 || size < 0 || off+size > len(raw) {
		return nil
	}
	return raw[off : off+size]
}

func decodeUTF16(raw []byte) string {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		// the decoder substitutes rather than fails, but keep the guard
		return ""
	}
	return string(decoded)
}
