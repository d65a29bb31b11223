// Copyright 2018 IBM Corporation
// Licensed under the Apache License, Version 2.0. See LICENSE file.

package record

import (
	"reflect"
	"testing"
)

func TestRecordFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   uint16
		deleted bool
		dir     bool
	}{
		{"active file", FlagInUse, false, false},
		{"active directory", FlagInUse | FlagDirectory, false, true},
		{"deleted file", 0, true, false},
		{"deleted directory", FlagDirectory, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Flags: tt.flags}
			if got := r.IsDeleted(); got != tt.deleted {
				t.Errorf("IsDeleted() got %t, want %t", got, tt.deleted)
			}
			if got := r.IsDir(); got != tt.dir {
				t.Errorf("IsDir() got %t, want %t", got, tt.dir)
			}
		})
	}
}

func TestRecordIsExtension(t *testing.T) {
	tests := []struct {
		name string
		base Identity
		want bool
	}{
		{"zero base", Identity{}, false},
		{"entry without sequence", Identity{Entry: 30}, false},
		{"sequence without entry", Identity{Seq: 2}, false},
		{"full reference", Identity{Entry: 30, Seq: 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{Base: tt.base}
			if got := r.IsExtension(); got != tt.want {
				t.Errorf("IsExtension() got %t, want %t", got, tt.want)
			}
		})
	}
}

func TestRecordAttributeSelection(t *testing.T) {
	al := &AttributeListAttr{NonResident: true}
	first := &FileNameAttr{Name: "alpha", NameType: NameWin32}
	second := &FileNameAttr{Name: "ALPHA~1", NameType: NameDos}
	r := &Record{Attributes: []Attribute{
		&OtherAttr{Type: AttrTypeStandardInformation},
		al,
		first,
		second,
	}}

	if got := r.AttributeList(); got != al {
		t.Errorf("AttributeList() got %v, want the record's list attribute", got)
	}
	names := r.FileNames()
	if len(names) != 2 || names[0] != first || names[1] != second {
		t.Errorf("FileNames() got %v, want [alpha ALPHA~1] in attribute order", names)
	}

	empty := &Record{Attributes: []Attribute{&OtherAttr{Type: AttrTypeData}}}
	if empty.AttributeList() != nil {
		t.Error("AttributeList() on a record without one should be nil")
	}
	if len(empty.FileNames()) != 0 {
		t.Error("FileNames() on a record without names should be empty")
	}
}

func TestSerializedRecordRoundTrip(t *testing.T) {
	r := &Record{
		Offset: 3072,
		ID:     Identity{Entry: 3, Seq: 9},
		Flags:  FlagInUse | FlagDirectory,
		Base:   Identity{Entry: 30, Seq: 2},
		Attributes: []Attribute{
			&OtherAttr{Type: AttrTypeStandardInformation},
			&AttributeListAttr{Entries: []AttrListEntry{
				{Target: Identity{Entry: 31, Seq: 1}, Type: AttrTypeFileName},
				{Target: Identity{Entry: 32, Seq: 1}, Type: AttrTypeData, Name: "stream"},
			}},
			&FileNameAttr{Name: "System32", NameType: NameWin32AndDos, Parent: RootIdentity},
		},
	}

	restored := NewSerializedRecord(r).Restore()
	if !reflect.DeepEqual(r, restored) {
		t.Errorf("serialized round trip changed the record:\n got %#v\nwant %#v", restored, r)
	}
}
