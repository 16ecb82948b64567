// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"time"

	"github.com/google/uuid"
)

// ObjectType distinguishes the kinds of objects the catalogue stores. The
// numeric values are persisted and must not be renumbered.
type ObjectType int16

// Object types.
const (
	ObjectTypeUnspecified ObjectType = 0
	ObjectTypeData        ObjectType = 1
	ObjectTypeModel       ObjectType = 2
	ObjectTypeFlow        ObjectType = 3
	ObjectTypeJob         ObjectType = 4
	ObjectTypeFile        ObjectType = 5
	ObjectTypeSchema      ObjectType = 6
	ObjectTypeStorage     ObjectType = 7
	ObjectTypeCustom      ObjectType = 8
	ObjectTypeResult      ObjectType = 9
)

var objectTypeNames = map[ObjectType]string{
	ObjectTypeData:    "DATA",
	ObjectTypeModel:   "MODEL",
	ObjectTypeFlow:    "FLOW",
	ObjectTypeJob:     "JOB",
	ObjectTypeFile:    "FILE",
	ObjectTypeSchema:  "SCHEMA",
	ObjectTypeStorage: "STORAGE",
	ObjectTypeCustom:  "CUSTOM",
	ObjectTypeResult:  "RESULT",
}

var objectTypeValues = func() map[string]ObjectType {
	values := make(map[string]ObjectType, len(objectTypeNames))
	for typ, name := range objectTypeNames {
		values[name] = typ
	}
	return values
}()

// Valid reports whether the object type is one of the defined kinds.
func (typ ObjectType) Valid() bool {
	_, ok := objectTypeNames[typ]
	return ok
}

func (typ ObjectType) String() string {
	if name, ok := objectTypeNames[typ]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// ParseObjectType parses the textual form of an object type.
func ParseObjectType(s string) (ObjectType, error) {
	if typ, ok := objectTypeValues[s]; ok {
		return typ, nil
	}
	return ObjectTypeUnspecified, ErrInputValidation.New("unknown object type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (typ ObjectType) MarshalText() ([]byte, error) {
	if !typ.Valid() {
		return nil, Error.New("cannot marshal object type %d", typ)
	}
	return []byte(typ.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (typ *ObjectType) UnmarshalText(data []byte) error {
	parsed, err := ParseObjectType(string(data))
	if err != nil {
		return err
	}
	*typ = parsed
	return nil
}

// ClientWritable reports whether untrusted clients may create and update
// objects of this type. The remaining types are produced by trusted platform
// components only.
func (typ ObjectType) ClientWritable() bool {
	switch typ {
	case ObjectTypeFlow, ObjectTypeCustom, ObjectTypeSchema:
		return true
	default:
		return false
	}
}

// TagHeader addresses one tag of one object version.
type TagHeader struct {
	ObjectType      ObjectType
	ObjectID        uuid.UUID
	ObjectVersion   int
	ObjectTimestamp time.Time
	TagVersion      int
	TagTimestamp    time.Time
}

// Verify checks that the header addresses a concrete tag.
func (header TagHeader) Verify() error {
	switch {
	case !header.ObjectType.Valid():
		return ErrInputValidation.New("ObjectType invalid")
	case header.ObjectID == uuid.Nil:
		return ErrInputValidation.New("ObjectID missing")
	case header.ObjectVersion < 1:
		return ErrInputValidation.New("ObjectVersion must be positive")
	case header.TagVersion < 1:
		return ErrInputValidation.New("TagVersion must be positive")
	}
	return nil
}

// Tag is one immutable snapshot of an object version together with its
// attribute map.
type Tag struct {
	Header     TagHeader
	Definition ObjectDefinition
	Attrs      map[string]Value
}

// Clone returns a copy with its own attribute map. The definition is shared;
// definitions are immutable once stored.
func (tag Tag) Clone() Tag {
	out := tag
	if tag.Attrs != nil {
		out.Attrs = make(map[string]Value, len(tag.Attrs))
		for name, value := range tag.Attrs {
			out.Attrs[name] = value.Clone()
		}
	}
	return out
}
