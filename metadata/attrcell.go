// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metadata

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AttrCell is the typed-column image of one attribute row: exactly one value
// member set, matching the declared attribute type. Numeric coercions are
// forbidden, so decoding verifies the populated column against the type.
type AttrCell struct {
	Bool           *bool
	Int            *int64
	Float          *float64
	Decimal        *string
	Str            *string
	Date           *string
	Datetime       *time.Time
	DatetimeOffset *int32
}

// EncodeDecimal renders the exact, normalised textual form of a decimal:
// trailing fractional zeros are stripped so equal numbers share one text.
func EncodeDecimal(d decimal.Decimal) string {
	s := d.String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// DecodeDecimal parses the stored decimal text.
func DecodeDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrDataCorruption.New("invalid decimal %q: %v", s, err)
	}
	return d, nil
}

// EncodeAttrCell returns the column image of a single value element.
func EncodeAttrCell(v Value) (AttrCell, error) {
	if v.Multi {
		return AttrCell{}, Error.New("cannot encode an array into one cell")
	}
	if err := v.Verify(); err != nil {
		return AttrCell{}, err
	}

	var cell AttrCell
	switch v.Type {
	case AttrTypeBoolean:
		cell.Bool = &v.Bool
	case AttrTypeInteger:
		cell.Int = &v.Int
	case AttrTypeFloat:
		cell.Float = &v.Float
	case AttrTypeDecimal:
		text := EncodeDecimal(v.Decimal)
		cell.Decimal = &text
	case AttrTypeString:
		cell.Str = &v.Str
	case AttrTypeDate:
		text := v.Date.String()
		cell.Date = &text
	case AttrTypeDatetime:
		utc, offset := SplitTimestamp(v.Datetime)
		cell.Datetime = &utc
		cell.DatetimeOffset = &offset
	default:
		return AttrCell{}, Error.New("cannot encode attribute type %v", v.Type)
	}
	return cell, nil
}

// DecodeAttrCell rebuilds a single value element from its column image,
// failing with ErrDataCorruption when the populated column disagrees with the
// declared type.
func DecodeAttrCell(typ AttrType, cell AttrCell) (Value, error) {
	if populated := cell.populatedColumns(); populated != 1 {
		return Value{}, ErrDataCorruption.New("attribute of type %v has %d value columns populated", typ, populated)
	}

	switch typ {
	case AttrTypeBoolean:
		if cell.Bool == nil {
			break
		}
		return BoolValue(*cell.Bool), nil
	case AttrTypeInteger:
		if cell.Int == nil {
			break
		}
		return IntValue(*cell.Int), nil
	case AttrTypeFloat:
		if cell.Float == nil {
			break
		}
		return FloatValue(*cell.Float), nil
	case AttrTypeDecimal:
		if cell.Decimal == nil {
			break
		}
		d, err := DecodeDecimal(*cell.Decimal)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil
	case AttrTypeString:
		if cell.Str == nil {
			break
		}
		return StringValue(*cell.Str), nil
	case AttrTypeDate:
		if cell.Date == nil {
			break
		}
		date, err := ParseDate(*cell.Date)
		if err != nil {
			return Value{}, ErrDataCorruption.New("invalid date %q", *cell.Date)
		}
		return DateValue(date), nil
	case AttrTypeDatetime:
		if cell.Datetime == nil {
			break
		}
		offset := int32(0)
		if cell.DatetimeOffset != nil {
			offset = *cell.DatetimeOffset
		}
		return Value{Type: AttrTypeDatetime, Datetime: JoinTimestamp(cell.Datetime.UTC(), offset)}, nil
	default:
		return Value{}, ErrDataCorruption.New("unknown attribute type %v", typ)
	}

	return Value{}, ErrDataCorruption.New("attribute of type %v stored in the wrong column", typ)
}

func (cell AttrCell) populatedColumns() int {
	populated := 0
	if cell.Bool != nil {
		populated++
	}
	if cell.Int != nil {
		populated++
	}
	if cell.Float != nil {
		populated++
	}
	if cell.Decimal != nil {
		populated++
	}
	if cell.Str != nil {
		populated++
	}
	if cell.Date != nil {
		populated++
	}
	if cell.Datetime != nil {
		populated++
	}
	return populated
}
