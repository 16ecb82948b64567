// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"strings"
	"time"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/dbutil/txutil"
	"storj.io/tracmeta/shared/tagsql"
)

// LoadTags reads one tag per selector. All selectors resolve against the same
// snapshot and the batch fails as a whole when any of them resolves to
// nothing.
type LoadTags struct {
	Tenant    string
	Selectors []metadata.TagSelector
}

// Verify verifies the request fields.
func (opts *LoadTags) Verify() error {
	if err := verifyBatch(opts.Tenant, len(opts.Selectors)); err != nil {
		return err
	}
	for i := range opts.Selectors {
		if err := opts.Selectors[i].Verify(); err != nil {
			return metadata.ErrInputValidation.New("item %d: %v", i, err)
		}
	}
	return nil
}

// LoadTags returns the addressed tags in request order.
func (db *DB) LoadTags(ctx context.Context, opts LoadTags) (_ []metadata.Tag, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return nil, wrapError(err)
	}

	var tags []metadata.Tag
	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		keys, err := db.resolveTagKeys(ctx, tx, tenantPK, opts.Selectors)
		if err != nil {
			return err
		}

		pks := make([]int64, 0, len(keys))
		seen := make(map[int64]bool, len(keys))
		for _, key := range keys {
			if !seen[key.TagPK] {
				seen[key.TagPK] = true
				pks = append(pks, key.TagPK)
			}
		}

		rows, err := db.loadTagRows(ctx, tx, pks)
		if err != nil {
			return err
		}
		attrs, err := db.loadTagAttrs(ctx, tx, pks)
		if err != nil {
			return err
		}

		tags = make([]metadata.Tag, len(keys))
		for i, key := range keys {
			sel := opts.Selectors[i]
			row, ok := rows[key.TagPK]
			if !ok {
				return metadata.ErrInternal.New("resolved tag %d vanished during load", key.TagPK)
			}

			definition, err := metadata.DecodeDefinition(row.payload)
			if err != nil {
				return err
			}
			if definition.Type != sel.ObjectType {
				return metadata.ErrDataCorruption.New("stored definition is %s, object row says %s",
					definition.Type, sel.ObjectType)
			}

			// Attribute maps are copied per result so that duplicate
			// selectors do not alias each other.
			stored := attrs[key.TagPK]
			tagAttrs := make(map[string]metadata.Value, len(stored))
			for name, value := range stored {
				tagAttrs[name] = value
			}

			tags[i] = metadata.Tag{
				Header: metadata.TagHeader{
					ObjectType:      sel.ObjectType,
					ObjectID:        sel.ObjectID,
					ObjectVersion:   row.objectVersion,
					ObjectTimestamp: metadata.JoinTimestamp(row.objectTime, row.objectOffset),
					TagVersion:      row.tagVersion,
					TagTimestamp:    metadata.JoinTimestamp(row.tagTime, row.tagOffset),
				},
				Definition: definition,
				Attrs:      tagAttrs,
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return tags, nil
}

type loadedTagRow struct {
	objectVersion int
	objectTime    time.Time
	objectOffset  int32
	payload       []byte
	tagVersion    int
	tagTime       time.Time
	tagOffset     int32
}

func (db *DB) loadTagRows(ctx context.Context, q queryer, pks []int64) (map[int64]loadedTagRow, error) {
	query := `
		SELECT t.tag_pk, d.object_version, d.object_timestamp, d.object_ts_offset, d.payload,
			t.tag_version, t.tag_timestamp, t.tag_ts_offset
		FROM tag t
		JOIN object_definition d ON d.version_pk = t.version_pk
		WHERE t.tag_pk IN (` + placeholders(len(pks)) + `)`

	result := make(map[int64]loadedTagRow, len(pks))
	err := withRows(q.QueryContext(ctx, db.rebind(query), pkArgs(pks)...))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var tagPK int64
			var row loadedTagRow
			objectTime := timestampScanner{text: db.adapter.textTimestamps()}
			tagTime := timestampScanner{text: db.adapter.textTimestamps()}

			err := rows.Scan(&tagPK, &row.objectVersion, objectTime.dest(), &row.objectOffset, &row.payload,
				&row.tagVersion, tagTime.dest(), &row.tagOffset)
			if err != nil {
				return err
			}

			t, ok, err := objectTime.value()
			if err != nil {
				return err
			}
			if !ok {
				return metadata.ErrDataCorruption.New("tag %d has no object timestamp", tagPK)
			}
			row.objectTime = t

			if t, ok, err = tagTime.value(); err != nil {
				return err
			} else if !ok {
				return metadata.ErrDataCorruption.New("tag %d has no tag timestamp", tagPK)
			}
			row.tagTime = t

			result[tagPK] = row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (db *DB) loadTagAttrs(ctx context.Context, q queryer, pks []int64) (map[int64]map[string]metadata.Value, error) {
	query := `
		SELECT tag_pk, attr_name, attr_index, attr_type,
			v_bool, v_int, v_float, v_decimal, v_str, v_date, v_datetime, v_datetime_offset
		FROM tag_attr
		WHERE tag_pk IN (` + placeholders(len(pks)) + `)
		ORDER BY tag_pk, attr_name, attr_index`

	collector := newAttrCollector()
	scanner := newAttrScanner(db.adapter)
	err := withRows(q.QueryContext(ctx, db.rebind(query), pkArgs(pks)...))(func(rows tagsql.Rows) error {
		for rows.Next() {
			if err := rows.Scan(scanner.dests()...); err != nil {
				return err
			}
			element, err := scanner.element()
			if err != nil {
				return err
			}
			if err := collector.add(scanner.tagPK, scanner.name, scanner.index, element); err != nil {
				return err
			}
		}
		return collector.flush()
	})
	if err != nil {
		return nil, err
	}
	return collector.attrs, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func pkArgs(pks []int64) []interface{} {
	args := make([]interface{}, len(pks))
	for i, pk := range pks {
		args[i] = pk
	}
	return args
}
