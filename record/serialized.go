// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package record

// SerializedRecord is an alternative representation of Record that is flat
// and pointer-free, so it is directly serializable with the defaults of more
// or less any encoding format.
type SerializedRecord struct {
	Offset        int64
	Entry         uint32
	Seq           uint16
	Flags         uint16                `yaml:",omitempty"`
	Bad           bool                  `yaml:",omitempty"`
	Uninitialized bool                  `yaml:",omitempty"`
	BaseEntry     uint32                `yaml:",omitempty"`
	BaseSeq       uint16                `yaml:",omitempty"`
	Attributes    []SerializedAttribute `yaml:",omitempty"`
}

// SerializedAttribute is the flattened form of the Attribute variants. The
// type tag decides which of the optional fields are meaningful.
type SerializedAttribute struct {
	Type        uint32
	NonResident bool                      `yaml:",omitempty"`
	Name        string                    `yaml:",omitempty"`
	NameType    uint8                     `yaml:",omitempty"`
	ParentEntry uint32                    `yaml:",omitempty"`
	ParentSeq   uint16                    `yaml:",omitempty"`
	Entries     []SerializedAttrListEntry `yaml:",omitempty"`
}

// SerializedAttrListEntry is the flattened form of AttrListEntry.
type SerializedAttrListEntry struct {
	Entry uint32
	Seq   uint16
	Type  uint32
	Name  string `yaml:",omitempty"`
}

// NewSerializedRecord creates a serializable copy of the given record.
func NewSerializedRecord(r *Record) SerializedRecord {
	s := SerializedRecord{
		Offset:        r.Offset,
		Entry:         r.ID.Entry,
		Seq:           r.ID.Seq,
		Flags:         r.Flags,
		Bad:           r.Bad,
		Uninitialized: r.Uninitialized,
		BaseEntry:     r.Base.Entry,
		BaseSeq:       r.Base.Seq,
	}
	for _, a := range r.Attributes {
		var sa SerializedAttribute
		switch attr := a.(type) {
		case *FileNameAttr:
			sa = SerializedAttribute{
				Type:        uint32(AttrTypeFileName),
				Name:        attr.Name,
				NameType:    uint8(attr.NameType),
				ParentEntry: attr.Parent.Entry,
				ParentSeq:   attr.Parent.Seq,
			}
		case *AttributeListAttr:
			sa = SerializedAttribute{
				Type:        uint32(AttrTypeAttributeList),
				NonResident: attr.NonResident,
			}
			for _, ent := range attr.Entries {
				sa.Entries = append(sa.Entries, SerializedAttrListEntry{
					Entry: ent.Target.Entry,
					Seq:   ent.Target.Seq,
					Type:  uint32(ent.Type),
					Name:  ent.Name,
				})
			}
		case *OtherAttr:
			sa = SerializedAttribute{
				Type:        uint32(attr.Type),
				NonResident: attr.NonResident,
				Name:        attr.Name,
			}
		default:
			// a fourth variant would be a bug in this package
			continue
		}
		s.Attributes = append(s.Attributes, sa)
	}
	return s
}

// Restore rebuilds the full Record from its serialized form.
func (s SerializedRecord) Restore() *Record {
	r := &Record{
		Offset:        s.Offset,
		ID:            Identity{Entry: s.Entry, Seq: s.Seq},
		Flags:         s.Flags,
		Bad:           s.Bad,
		Uninitialized: s.Uninitialized,
		Base:          Identity{Entry: s.BaseEntry, Seq: s.BaseSeq},
	}
	for _, sa := range s.Attributes {
		switch AttrType(sa.Type) {
		case AttrTypeFileName:
			r.Attributes = append(r.Attributes, &FileNameAttr{
				Name:     sa.Name,
				NameType: NameType(sa.NameType),
				Parent:   Identity{Entry: sa.ParentEntry, Seq: sa.ParentSeq},
			})
		case AttrTypeAttributeList:
			al := &AttributeListAttr{NonResident: sa.NonResident}
			for _, ent := range sa.Entries {
				al.Entries = append(al.Entries, AttrListEntry{
					Target: Identity{Entry: ent.Entry, Seq: ent.Seq},
					Type:   AttrType(ent.Type),
					Name:   ent.Name,
				})
			}
			r.Attributes = append(r.Attributes, al)
		default:
			r.Attributes = append(r.Attributes, &OtherAttr{
				Type:        AttrType(sa.Type),
				NonResident: sa.NonResident,
				Name:        sa.Name,
			})
		}
	}
	return r
}
