// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package record

// AttrType is the NTFS attribute type tag from the attribute header.
type AttrType uint32

// The attribute types that appear in MFT records. Only AttributeList and
// FileName are interpreted during reconstruction; every other type is
// carried opaquely.
const (
	AttrTypeStandardInformation AttrType = 0x10
	AttrTypeAttributeList       AttrType = 0x20
	AttrTypeFileName            AttrType = 0x30
	AttrTypeObjectID            AttrType = 0x40
	AttrTypeSecurityDescriptor  AttrType = 0x50
	AttrTypeVolumeName          AttrType = 0x60
	AttrTypeVolumeInformation   AttrType = 0x70
	AttrTypeData                AttrType = 0x80
	AttrTypeIndexRoot           AttrType = 0x90
	AttrTypeIndexAllocation     AttrType = 0xA0
	AttrTypeBitmap              AttrType = 0xB0

	// AttrTypeEnd terminates the attribute walk within a slot.
	AttrTypeEnd AttrType = 0xFFFFFFFF
)

// NameType classifies a file-name attribute. Dos marks the legacy 8.3 short
// alias, which is never preferred as a display name.
type NameType uint8

const (
	NamePosix NameType = iota
	NameWin32
	NameDos
	NameWin32AndDos
)

func (n NameType) String() string {
	switch n {
	case NamePosix:
		return "POSIX"
	case NameWin32:
		return "Win32"
	case NameDos:
		return "DOS"
	case NameWin32AndDos:
		return "Win32 & DOS"
	default:
		return "unknown"
	}
}

// Attribute is one decoded attribute of a record. The concrete types form a
// closed set: FileNameAttr, AttributeListAttr, and OtherAttr for everything
// the reconstruction does not interpret. Consumers type-switch over the
// three variants.
type Attribute interface {
	TypeID() AttrType
	IsNonResident() bool
}

// FileNameAttr is a decoded $FILE_NAME attribute: the display name of the
// filesystem object plus a reference to the directory record that contains
// it. A record carries one per hard link, plus DOS aliases.
type FileNameAttr struct {
	Name     string
	NameType NameType
	// Parent is the identity of the directory record this name lives in.
	Parent Identity
}

// TypeID implements Attribute.
func (*FileNameAttr) TypeID() AttrType { return AttrTypeFileName }

// IsNonResident implements Attribute. $FILE_NAME is always resident.
func (*FileNameAttr) IsNonResident() bool { return false }

// AttrListEntry is one location descriptor from a resident attribute list:
// which record physically holds an attribute of the given type. Name is the
// attribute's own name and is empty for anonymous attributes; named entries
// describe alternate streams, not extension records.
type AttrListEntry struct {
	Target Identity
	Type   AttrType
	Name   string
}

// AttributeListAttr is a decoded $ATTRIBUTE_LIST attribute. When resident it
// carries the ordered location descriptors for every attribute of the owning
// record. When the list itself has overflowed the slot it is non-resident
// and Entries is empty; the only way to find the record's extensions is then
// the extension index built from base-record references.
type AttributeListAttr struct {
	NonResident bool
	Entries     []AttrListEntry
}

// TypeID implements Attribute.
func (*AttributeListAttr) TypeID() AttrType { return AttrTypeAttributeList }

// IsNonResident implements Attribute.
func (a *AttributeListAttr) IsNonResident() bool { return a.NonResident }

// OtherAttr is any attribute type the reconstruction carries but does not
// interpret: timestamps, security descriptors, data streams, indexes. Only
// the type tag, residency, and optional attribute name survive decoding.
type OtherAttr struct {
	Type        AttrType
	NonResident bool
	Name        string
}

// TypeID implements Attribute.
func (a *OtherAttr) TypeID() AttrType { return a.Type }

// IsNonResident implements Attribute.
func (a *OtherAttr) IsNonResident() bool { return a.NonResident }
