// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"database/sql"
	"sort"
	"time"

	"storj.io/tracmeta/metadata"
)

// timestampScanner scans a nullable timestamp column. SQLite stores text, the
// other engines native timestamp types.
type timestampScanner struct {
	text bool
	t    sql.NullTime
	s    sql.NullString
}

func (ts *timestampScanner) dest() interface{} {
	if ts.text {
		return &ts.s
	}
	return &ts.t
}

func (ts *timestampScanner) value() (time.Time, bool, error) {
	if ts.text {
		if !ts.s.Valid {
			return time.Time{}, false, nil
		}
		t, err := time.Parse(sqliteTimeLayout, ts.s.String)
		if err != nil {
			return time.Time{}, false, metadata.ErrDataCorruption.New("invalid stored timestamp %q: %v", ts.s.String, err)
		}
		return t.UTC(), true, nil
	}
	if !ts.t.Valid {
		return time.Time{}, false, nil
	}
	return ts.t.Time.UTC(), true, nil
}

// boolScanner scans a nullable boolean column. MySQL stores TINYINT(1) and
// hands back integers.
type boolScanner struct {
	asInt bool
	b     sql.NullBool
	i     sql.NullInt64
}

func (bs *boolScanner) dest() interface{} {
	if bs.asInt {
		return &bs.i
	}
	return &bs.b
}

func (bs *boolScanner) value() (bool, bool) {
	if bs.asInt {
		return bs.i.Int64 != 0, bs.i.Valid
	}
	return bs.b.Bool, bs.b.Valid
}

// singleValueIndex marks rows that hold a single value rather than an array
// element. Array elements count from zero.
const singleValueIndex = -1

// attrRow is the column image of one tag_attr row.
type attrRow struct {
	tagPK    int64
	tenantPK int64
	name     string
	index    int
	typ      metadata.AttrType
	cell     metadata.AttrCell
}

// attrRowsForTag flattens an attribute map into index rows, ordered by name
// and element index so inserts are deterministic.
func attrRowsForTag(tagPK, tenantPK int64, attrs map[string]metadata.Value) ([]attrRow, error) {
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []attrRow
	for _, name := range names {
		value := attrs[name]
		if err := value.Verify(); err != nil {
			return nil, err
		}
		for i, element := range value.Elements() {
			cell, err := metadata.EncodeAttrCell(element)
			if err != nil {
				return nil, err
			}
			index := singleValueIndex
			if value.Multi {
				index = i
			}
			rows = append(rows, attrRow{
				tagPK:    tagPK,
				tenantPK: tenantPK,
				name:     name,
				index:    index,
				typ:      value.Type,
				cell:     cell,
			})
		}
	}
	return rows, nil
}

// params renders the row as bind parameters in tag_attr column order:
// tag_pk, tenant_pk, attr_name, attr_index, attr_type, then the seven value
// columns and the datetime offset.
func (r attrRow) params(adapter Adapter) []interface{} {
	var vBool, vInt, vFloat, vDecimal, vStr, vDate, vDatetime, vOffset interface{}
	switch {
	case r.cell.Bool != nil:
		vBool = *r.cell.Bool
	case r.cell.Int != nil:
		vInt = *r.cell.Int
	case r.cell.Float != nil:
		vFloat = *r.cell.Float
	case r.cell.Decimal != nil:
		vDecimal = *r.cell.Decimal
	case r.cell.Str != nil:
		vStr = *r.cell.Str
	case r.cell.Date != nil:
		vDate = *r.cell.Date
	case r.cell.Datetime != nil:
		vDatetime = adapter.timestampParam(*r.cell.Datetime)
		if r.cell.DatetimeOffset != nil {
			vOffset = *r.cell.DatetimeOffset
		}
	}
	return []interface{}{
		r.tagPK, r.tenantPK, r.name, r.index, int16(r.typ),
		vBool, vInt, vFloat, vDecimal, vStr, vDate, vDatetime, vOffset,
	}
}

// attrScanner scans one tag_attr row back into an AttrCell.
type attrScanner struct {
	tagPK    int64
	name     string
	index    int64
	typ      int16
	vBool    boolScanner
	vInt     sql.NullInt64
	vFloat   sql.NullFloat64
	vDecimal sql.NullString
	vStr     sql.NullString
	vDate    sql.NullString
	vTime    timestampScanner
	vOffset  sql.NullInt64
}

func newAttrScanner(adapter Adapter) *attrScanner {
	return &attrScanner{
		vBool: boolScanner{asInt: adapter.intBools()},
		vTime: timestampScanner{text: adapter.textTimestamps()},
	}
}

func (s *attrScanner) dests() []interface{} {
	return []interface{}{
		&s.tagPK, &s.name, &s.index, &s.typ,
		s.vBool.dest(), &s.vInt, &s.vFloat, &s.vDecimal, &s.vStr, &s.vDate, s.vTime.dest(), &s.vOffset,
	}
}

// element rebuilds the stored value element of the scanned row.
func (s *attrScanner) element() (metadata.Value, error) {
	var cell metadata.AttrCell
	if b, ok := s.vBool.value(); ok {
		cell.Bool = &b
	}
	if s.vInt.Valid {
		cell.Int = &s.vInt.Int64
	}
	if s.vFloat.Valid {
		cell.Float = &s.vFloat.Float64
	}
	if s.vDecimal.Valid {
		cell.Decimal = &s.vDecimal.String
	}
	if s.vStr.Valid {
		cell.Str = &s.vStr.String
	}
	if s.vDate.Valid {
		cell.Date = &s.vDate.String
	}
	if t, ok, err := s.vTime.value(); err != nil {
		return metadata.Value{}, err
	} else if ok {
		cell.Datetime = &t
		if s.vOffset.Valid {
			offset := int32(s.vOffset.Int64)
			cell.DatetimeOffset = &offset
		}
	}
	return metadata.DecodeAttrCell(metadata.AttrType(s.typ), cell)
}

// attrCollector groups scanned rows, ordered by (tag_pk, attr_name,
// attr_index), back into attribute maps keyed by tag_pk.
type attrCollector struct {
	attrs map[int64]map[string]metadata.Value

	currentTag  int64
	currentName string
	elements    []metadata.Value
	multi       bool
}

func newAttrCollector() *attrCollector {
	return &attrCollector{attrs: map[int64]map[string]metadata.Value{}}
}

func (c *attrCollector) add(tagPK int64, name string, index int64, element metadata.Value) error {
	if len(c.elements) > 0 && (tagPK != c.currentTag || name != c.currentName) {
		if err := c.flush(); err != nil {
			return err
		}
	}
	c.currentTag = tagPK
	c.currentName = name
	c.multi = index != singleValueIndex
	c.elements = append(c.elements, element)
	return nil
}

func (c *attrCollector) flush() error {
	if len(c.elements) == 0 {
		return nil
	}
	var value metadata.Value
	if c.multi {
		joined, err := metadata.ArrayValue(c.elements...)
		if err != nil {
			return metadata.ErrDataCorruption.New("stored array is inconsistent: %v", err)
		}
		value = joined
	} else {
		if len(c.elements) != 1 {
			return metadata.ErrDataCorruption.New("attribute %q has %d rows for a single value", c.currentName, len(c.elements))
		}
		value = c.elements[0]
	}
	attrs := c.attrs[c.currentTag]
	if attrs == nil {
		attrs = map[string]metadata.Value{}
		c.attrs[c.currentTag] = attrs
	}
	attrs[c.currentName] = value
	c.elements = nil
	return nil
}
