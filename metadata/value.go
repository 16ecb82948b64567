// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AttrType identifies the primitive type of an attribute value. The numeric
// values are persisted and must not be renumbered.
type AttrType int16

// Attribute types.
const (
	AttrTypeUnspecified AttrType = 0
	AttrTypeBoolean     AttrType = 1
	AttrTypeInteger     AttrType = 2
	AttrTypeFloat       AttrType = 3
	AttrTypeDecimal     AttrType = 4
	AttrTypeString      AttrType = 5
	AttrTypeDate        AttrType = 6
	AttrTypeDatetime    AttrType = 7
)

var attrTypeNames = map[AttrType]string{
	AttrTypeBoolean:  "BOOLEAN",
	AttrTypeInteger:  "INTEGER",
	AttrTypeFloat:    "FLOAT",
	AttrTypeDecimal:  "DECIMAL",
	AttrTypeString:   "STRING",
	AttrTypeDate:     "DATE",
	AttrTypeDatetime: "DATETIME",
}

var attrTypeValues = func() map[string]AttrType {
	values := make(map[string]AttrType, len(attrTypeNames))
	for typ, name := range attrTypeNames {
		values[name] = typ
	}
	return values
}()

// Valid reports whether the attribute type is one of the defined kinds.
func (typ AttrType) Valid() bool {
	_, ok := attrTypeNames[typ]
	return ok
}

// Ordered reports whether the type supports LT/LE/GT/GE comparisons.
func (typ AttrType) Ordered() bool {
	switch typ {
	case AttrTypeInteger, AttrTypeFloat, AttrTypeDecimal, AttrTypeDate, AttrTypeDatetime:
		return true
	default:
		return false
	}
}

func (typ AttrType) String() string {
	if name, ok := attrTypeNames[typ]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// ParseAttrType parses the textual form of an attribute type.
func ParseAttrType(s string) (AttrType, error) {
	if typ, ok := attrTypeValues[s]; ok {
		return typ, nil
	}
	return AttrTypeUnspecified, ErrInputValidation.New("unknown attribute type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (typ AttrType) MarshalText() ([]byte, error) {
	if !typ.Valid() {
		return nil, Error.New("cannot marshal attribute type %d", typ)
	}
	return []byte(typ.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (typ *AttrType) UnmarshalText(data []byte) error {
	parsed, err := ParseAttrType(string(data))
	if err != nil {
		return err
	}
	*typ = parsed
	return nil
}

// Value is a typed attribute value: a single primitive, or an array of
// primitives sharing one element type when Multi is set. Only the member
// matching Type is meaningful.
type Value struct {
	Type  AttrType
	Multi bool

	Bool     bool
	Int      int64
	Float    float64
	Decimal  decimal.Decimal
	Str      string
	Date     Date
	Datetime time.Time

	Items []Value
}

// BoolValue returns a BOOLEAN value.
func BoolValue(v bool) Value { return Value{Type: AttrTypeBoolean, Bool: v} }

// IntValue returns an INTEGER value.
func IntValue(v int64) Value { return Value{Type: AttrTypeInteger, Int: v} }

// FloatValue returns a FLOAT value.
func FloatValue(v float64) Value { return Value{Type: AttrTypeFloat, Float: v} }

// DecimalValue returns a DECIMAL value.
func DecimalValue(v decimal.Decimal) Value { return Value{Type: AttrTypeDecimal, Decimal: v} }

// StringValue returns a STRING value.
func StringValue(v string) Value { return Value{Type: AttrTypeString, Str: v} }

// DateValue returns a DATE value.
func DateValue(v Date) Value { return Value{Type: AttrTypeDate, Date: v} }

// DatetimeValue returns a DATETIME value truncated to the storage resolution.
func DatetimeValue(v time.Time) Value {
	return Value{Type: AttrTypeDatetime, Datetime: TruncateTimestamp(v)}
}

// ArrayValue returns a multi-value with the given elements. All elements must
// be single values of one shared type; empty arrays are illegal.
func ArrayValue(items ...Value) (Value, error) {
	if len(items) == 0 {
		return Value{}, ErrInputValidation.New("empty arrays are illegal")
	}
	typ := items[0].Type
	for _, item := range items {
		if item.Multi {
			return Value{}, ErrInputValidation.New("nested arrays are illegal")
		}
		if item.Type != typ {
			return Value{}, ErrInputValidation.New("array elements must share one type, got %v and %v", typ, item.Type)
		}
	}
	out := Value{Type: typ, Multi: true, Items: make([]Value, len(items))}
	copy(out.Items, items)
	return out, nil
}

// Verify checks the value is well formed.
func (v Value) Verify() error {
	if !v.Type.Valid() {
		return ErrInputValidation.New("attribute type invalid")
	}
	if v.Multi {
		if len(v.Items) == 0 {
			return ErrInputValidation.New("empty arrays are illegal")
		}
		for _, item := range v.Items {
			if item.Multi {
				return ErrInputValidation.New("nested arrays are illegal")
			}
			if item.Type != v.Type {
				return ErrInputValidation.New("array element type %v does not match %v", item.Type, v.Type)
			}
			if err := item.Verify(); err != nil {
				return err
			}
		}
		return nil
	}
	switch v.Type {
	case AttrTypeDate:
		if v.Date.IsZero() {
			return ErrInputValidation.New("date value missing")
		}
		return v.Date.Validate()
	case AttrTypeDatetime:
		if v.Datetime.IsZero() {
			return ErrInputValidation.New("datetime value missing")
		}
	}
	return nil
}

// Elements returns the value as a list of single values.
func (v Value) Elements() []Value {
	if v.Multi {
		return v.Items
	}
	return []Value{v}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	out := v
	if v.Items != nil {
		out.Items = make([]Value, len(v.Items))
		copy(out.Items, v.Items)
	}
	return out
}

// Equal reports whether two values carry the same type and content. Datetime
// values compare by instant, decimals numerically, both matching how the
// storage layer compares them.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type || v.Multi != other.Multi {
		return false
	}
	if v.Multi {
		if len(v.Items) != len(other.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	}
	switch v.Type {
	case AttrTypeBoolean:
		return v.Bool == other.Bool
	case AttrTypeInteger:
		return v.Int == other.Int
	case AttrTypeFloat:
		return v.Float == other.Float
	case AttrTypeDecimal:
		return v.Decimal.Equal(other.Decimal)
	case AttrTypeString:
		return v.Str == other.Str
	case AttrTypeDate:
		return v.Date == other.Date
	case AttrTypeDatetime:
		return v.Datetime.Equal(other.Datetime)
	default:
		return false
	}
}

type valueJSON struct {
	Type     AttrType         `json:"type"`
	Multi    bool             `json:"multi,omitempty"`
	Bool     *bool            `json:"bool,omitempty"`
	Int      *int64           `json:"int,omitempty"`
	Float    *float64         `json:"float,omitempty"`
	Decimal  *decimal.Decimal `json:"decimal,omitempty"`
	Str      *string          `json:"str,omitempty"`
	Date     *Date            `json:"date,omitempty"`
	Datetime *time.Time       `json:"datetime,omitempty"`
	Items    []Value          `json:"items,omitempty"`
}

// MarshalJSON implements json.Marshaler, emitting only the active member.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Type: v.Type, Multi: v.Multi}
	if v.Multi {
		out.Items = v.Items
		return json.Marshal(out)
	}
	switch v.Type {
	case AttrTypeBoolean:
		out.Bool = &v.Bool
	case AttrTypeInteger:
		out.Int = &v.Int
	case AttrTypeFloat:
		out.Float = &v.Float
	case AttrTypeDecimal:
		out.Decimal = &v.Decimal
	case AttrTypeString:
		out.Str = &v.Str
	case AttrTypeDate:
		out.Date = &v.Date
	case AttrTypeDatetime:
		out.Datetime = &v.Datetime
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Value{Type: in.Type, Multi: in.Multi, Items: in.Items}
	switch {
	case in.Bool != nil:
		out.Bool = *in.Bool
	case in.Int != nil:
		out.Int = *in.Int
	case in.Float != nil:
		out.Float = *in.Float
	case in.Decimal != nil:
		out.Decimal = *in.Decimal
	case in.Str != nil:
		out.Str = *in.Str
	case in.Date != nil:
		out.Date = *in.Date
	case in.Datetime != nil:
		out.Datetime = *in.Datetime
	}
	*v = out
	return nil
}
