// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/tagsql"
)

// Search finds objects of one type whose tags match an expression. Of every
// matching object the single best tag is returned: the highest tag of the
// highest object version inside the search scope. Results order newest
// objects first.
type Search struct {
	Tenant string
	Params metadata.SearchParameters
}

// Verify verifies the request fields.
func (opts *Search) Verify() error {
	if opts.Tenant == "" {
		return metadata.ErrInputValidation.New("tenant missing")
	}
	return opts.Params.Verify()
}

// searchCandidate is one (object version, tag) pair inside the search scope
// whose attributes matched the expression.
type searchCandidate struct {
	objectPK      int64
	id            uuid.UUID
	objectVersion int
	objectTime    time.Time
	tagVersion    int
	tagPK         int64
}

// Search runs the search and loads the winning tags.
func (db *DB) Search(ctx context.Context, opts Search) (_ []metadata.Tag, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return nil, wrapError(err)
	}

	tenantPK, err := db.tenantPK(ctx, db.db, opts.Tenant)
	if err != nil {
		return nil, wrapError(err)
	}

	scope, args := db.searchScope(opts.Params)
	query := `
		SELECT o.object_pk, o.object_id_hi, o.object_id_lo,
			d.object_version, d.object_timestamp, t.tag_version, t.tag_pk
		FROM object o` + scope + `
		WHERE o.tenant_pk = ? AND o.object_type = ?`
	args = append(args, tenantPK, int16(opts.Params.ObjectType))

	if opts.Params.Expression != nil {
		var cond strings.Builder
		if err := db.compileExpression(opts.Params.Expression, &cond, &args); err != nil {
			return nil, wrapError(err)
		}
		query += " AND " + cond.String()
	}

	// The scope can hold several matching pairs per object; the best pair
	// wins. The reduction happens here since picking a two-column maximum
	// per group has no portable SQL form.
	best := make(map[int64]searchCandidate)
	err = withRows(db.db.QueryContext(ctx, db.rebind(query), args...))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var c searchCandidate
			var hi, lo int64
			objectTime := timestampScanner{text: db.adapter.textTimestamps()}

			err := rows.Scan(&c.objectPK, &hi, &lo, &c.objectVersion, objectTime.dest(), &c.tagVersion, &c.tagPK)
			if err != nil {
				return err
			}
			c.id = metadata.UUIDFromHiLo(hi, lo)

			t, ok, err := objectTime.value()
			if err != nil {
				return err
			}
			if !ok {
				return metadata.ErrDataCorruption.New("object %s version %d has no timestamp", c.id, c.objectVersion)
			}
			c.objectTime = t

			cur, ok := best[c.objectPK]
			if !ok || c.objectVersion > cur.objectVersion ||
				(c.objectVersion == cur.objectVersion && c.tagVersion > cur.tagVersion) {
				best[c.objectPK] = c
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	mon.Meter("search").Mark(1)
	if len(best) == 0 {
		return nil, nil
	}

	winners := make([]searchCandidate, 0, len(best))
	for _, c := range best {
		winners = append(winners, c)
	}
	sort.Slice(winners, func(i, j int) bool {
		if !winners[i].objectTime.Equal(winners[j].objectTime) {
			return winners[i].objectTime.After(winners[j].objectTime)
		}
		return bytes.Compare(winners[i].id[:], winners[j].id[:]) < 0
	})

	pks := make([]int64, len(winners))
	for i, w := range winners {
		pks[i] = w.tagPK
	}
	rows, err := db.loadTagRows(ctx, db.db, pks)
	if err != nil {
		return nil, wrapError(err)
	}
	attrs, err := db.loadTagAttrs(ctx, db.db, pks)
	if err != nil {
		return nil, wrapError(err)
	}

	tags := make([]metadata.Tag, len(winners))
	for i, w := range winners {
		row, ok := rows[w.tagPK]
		if !ok {
			return nil, wrapError(metadata.ErrInternal.New("matched tag %d vanished during load", w.tagPK))
		}
		definition, err := metadata.DecodeDefinition(row.payload)
		if err != nil {
			return nil, wrapError(err)
		}
		if definition.Type != opts.Params.ObjectType {
			return nil, wrapError(metadata.ErrDataCorruption.New("stored definition is %s, object row says %s",
				definition.Type, opts.Params.ObjectType))
		}

		tagAttrs := attrs[w.tagPK]
		if tagAttrs == nil {
			tagAttrs = map[string]metadata.Value{}
		}
		tags[i] = metadata.Tag{
			Header: metadata.TagHeader{
				ObjectType:      opts.Params.ObjectType,
				ObjectID:        w.id,
				ObjectVersion:   row.objectVersion,
				ObjectTimestamp: metadata.JoinTimestamp(row.objectTime, row.objectOffset),
				TagVersion:      row.tagVersion,
				TagTimestamp:    metadata.JoinTimestamp(row.tagTime, row.tagOffset),
			},
			Definition: definition,
			Attrs:      tagAttrs,
		}
	}
	return tags, nil
}

// searchScope renders the version and tag joins for the requested temporal
// scope. Without prior flags only the latest markers are considered; an
// as-of time replaces the markers with the newest rows at that instant.
func (db *DB) searchScope(params metadata.SearchParameters) (string, []interface{}) {
	var scope strings.Builder
	var args []interface{}

	var asOfParam interface{}
	if params.AsOf != nil {
		asOfParam = db.adapter.timestampParam(metadata.TruncateTimestamp(*params.AsOf))
	}

	switch {
	case params.PriorVersions && params.AsOf == nil:
		scope.WriteString(`
		JOIN object_definition d ON d.object_pk = o.object_pk`)
	case params.PriorVersions:
		scope.WriteString(`
		JOIN object_definition d ON d.object_pk = o.object_pk AND d.object_timestamp <= ?`)
		args = append(args, asOfParam)
	case params.AsOf == nil:
		scope.WriteString(`
		JOIN latest_version lv ON lv.object_pk = o.object_pk
		JOIN object_definition d ON d.version_pk = lv.version_pk`)
	default:
		scope.WriteString(`
		JOIN object_definition d ON d.object_pk = o.object_pk
			AND d.object_version = (
				SELECT MAX(d2.object_version) FROM object_definition d2
				WHERE d2.object_pk = o.object_pk AND d2.object_timestamp <= ?)`)
		args = append(args, asOfParam)
	}

	switch {
	case params.PriorTags && params.AsOf == nil:
		scope.WriteString(`
		JOIN tag t ON t.version_pk = d.version_pk`)
	case params.PriorTags:
		scope.WriteString(`
		JOIN tag t ON t.version_pk = d.version_pk AND t.tag_timestamp <= ?`)
		args = append(args, asOfParam)
	case params.AsOf == nil:
		scope.WriteString(`
		JOIN latest_tag lt ON lt.version_pk = d.version_pk
		JOIN tag t ON t.tag_pk = lt.tag_pk`)
	default:
		scope.WriteString(`
		JOIN tag t ON t.version_pk = d.version_pk
			AND t.tag_version = (
				SELECT MAX(t2.tag_version) FROM tag t2
				WHERE t2.version_pk = d.version_pk AND t2.tag_timestamp <= ?)`)
		args = append(args, asOfParam)
	}

	return scope.String(), args
}

func (db *DB) compileExpression(expr *metadata.SearchExpression, sql *strings.Builder, args *[]interface{}) error {
	switch {
	case expr == nil:
		return metadata.ErrInputValidation.New("search expression is nil")
	case expr.Term != nil:
		return db.compileTerm(expr.Term, sql, args)
	case expr.Logical != nil:
		return db.compileLogical(expr.Logical, sql, args)
	default:
		return metadata.ErrInputValidation.New("search expression carries neither term nor logical node")
	}
}

func (db *DB) compileLogical(node *metadata.LogicalExpression, sql *strings.Builder, args *[]interface{}) error {
	if len(node.Items) == 0 {
		return metadata.ErrInputValidation.New("logical expression has no items")
	}

	if node.Operator == metadata.LogicalNOT {
		sql.WriteString("NOT (")
		if err := db.compileExpression(node.Items[0], sql, args); err != nil {
			return err
		}
		sql.WriteString(")")
		return nil
	}

	joiner := " AND "
	if node.Operator == metadata.LogicalOR {
		joiner = " OR "
	}
	sql.WriteString("(")
	for i, item := range node.Items {
		if i > 0 {
			sql.WriteString(joiner)
		}
		if err := db.compileExpression(item, sql, args); err != nil {
			return err
		}
	}
	sql.WriteString(")")
	return nil
}

var orderedOps = map[metadata.SearchOperator]string{
	metadata.SearchLT: "<",
	metadata.SearchLE: "<=",
	metadata.SearchGT: ">",
	metadata.SearchGE: ">=",
}

// compileTerm renders one term as a semi-join against tag_attr. A term over a
// multi valued attribute matches when any element satisfies it; NE negates
// EQ, so it also holds when the attribute is missing or differently typed;
// ordered comparisons hold only on single values.
func (db *DB) compileTerm(term *metadata.SearchTerm, sql *strings.Builder, args *[]interface{}) error {
	base := `SELECT 1 FROM tag_attr a
		WHERE a.tag_pk = t.tag_pk AND a.tenant_pk = o.tenant_pk AND a.attr_name = ? AND a.attr_type = ?`
	baseArgs := []interface{}{term.AttrName, int16(term.AttrType)}

	switch term.Operator {
	case metadata.SearchExists:
		if term.AttrType == metadata.AttrTypeUnspecified {
			sql.WriteString(`EXISTS (SELECT 1 FROM tag_attr a
		WHERE a.tag_pk = t.tag_pk AND a.tenant_pk = o.tenant_pk AND a.attr_name = ?)`)
			*args = append(*args, term.AttrName)
			return nil
		}
		sql.WriteString("EXISTS (" + base + ")")
		*args = append(*args, baseArgs...)
		return nil

	case metadata.SearchIN:
		column := attrColumn(term.AttrType)
		item := "?"
		if term.AttrType == metadata.AttrTypeDecimal {
			column = db.adapter.decimalExpr(column)
			item = db.adapter.decimalExpr("?")
		}
		list := item + strings.Repeat(", "+item, len(term.Value.Items)-1)
		sql.WriteString("EXISTS (" + base + " AND " + column + " IN (" + list + "))")
		*args = append(*args, baseArgs...)
		for _, element := range term.Value.Items {
			*args = append(*args, db.scalarParam(term.AttrType, element))
		}
		return nil

	case metadata.SearchEQ:
		sql.WriteString("EXISTS (" + base + " AND " + db.comparison(term.AttrType, "=") + ")")
		*args = append(*args, baseArgs...)
		*args = append(*args, db.scalarParam(term.AttrType, term.Value))
		return nil

	case metadata.SearchNE:
		sql.WriteString("NOT EXISTS (" + base + " AND " + db.comparison(term.AttrType, "=") + ")")
		*args = append(*args, baseArgs...)
		*args = append(*args, db.scalarParam(term.AttrType, term.Value))
		return nil

	default:
		op, ok := orderedOps[term.Operator]
		if !ok {
			return metadata.ErrInputValidation.New("unsupported search operator %q", term.Operator)
		}
		single := " AND a.attr_index = " + strconv.Itoa(singleValueIndex)
		sql.WriteString("EXISTS (" + base + single + " AND " + db.comparison(term.AttrType, op) + ")")
		*args = append(*args, baseArgs...)
		*args = append(*args, db.scalarParam(term.AttrType, term.Value))
		return nil
	}
}

// comparison renders "column op placeholder" for the value column of the
// given type. Decimals are stored as text and compare through a numeric cast.
func (db *DB) comparison(typ metadata.AttrType, op string) string {
	column := attrColumn(typ)
	if typ == metadata.AttrTypeDecimal {
		return db.adapter.decimalExpr(column) + " " + op + " " + db.adapter.decimalExpr("?")
	}
	return column + " " + op + " ?"
}

func attrColumn(typ metadata.AttrType) string {
	switch typ {
	case metadata.AttrTypeBoolean:
		return "a.v_bool"
	case metadata.AttrTypeInteger:
		return "a.v_int"
	case metadata.AttrTypeFloat:
		return "a.v_float"
	case metadata.AttrTypeDecimal:
		return "a.v_decimal"
	case metadata.AttrTypeString:
		return "a.v_str"
	case metadata.AttrTypeDate:
		return "a.v_date"
	case metadata.AttrTypeDatetime:
		return "a.v_datetime"
	default:
		return "a.v_str"
	}
}

// scalarParam encodes one search value element the way the matching column
// stores it.
func (db *DB) scalarParam(typ metadata.AttrType, v metadata.Value) interface{} {
	switch typ {
	case metadata.AttrTypeBoolean:
		return v.Bool
	case metadata.AttrTypeInteger:
		return v.Int
	case metadata.AttrTypeFloat:
		return v.Float
	case metadata.AttrTypeDecimal:
		return metadata.EncodeDecimal(v.Decimal)
	case metadata.AttrTypeString:
		return v.Str
	case metadata.AttrTypeDate:
		return v.Date.String()
	case metadata.AttrTypeDatetime:
		utc, _ := metadata.SplitTimestamp(metadata.TruncateTimestamp(v.Datetime))
		return db.adapter.timestampParam(utc)
	default:
		return nil
	}
}
