// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"database/sql"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/tagsql"
)

// scratchChunk caps rows per INSERT into key_mapping. Nine parameters per row
// keeps every chunk under the strictest driver placeholder limits.
const scratchChunk = 100

// keyEntry is one scratch row for the key mapper. An axis with neither a
// version nor an as-of time addresses the latest marker.
type keyEntry struct {
	Type metadata.ObjectType
	ID   uuid.UUID

	ObjectVersion int
	ObjectAsOf    *time.Time

	TagVersion int
	TagAsOf    *time.Time
}

func entryForRef(ref ObjectRef) keyEntry {
	return keyEntry{Type: ref.Type, ID: ref.ID}
}

func entryForSelector(sel metadata.TagSelector) keyEntry {
	entry := keyEntry{
		Type:          sel.ObjectType,
		ID:            sel.ObjectID,
		ObjectVersion: sel.ObjectVersion,
		TagVersion:    sel.TagVersion,
	}
	// As-of times truncate to stored precision so that engines rounding bind
	// parameters cannot match versions created just after the requested time.
	if sel.ObjectAsOf != nil {
		t := metadata.TruncateTimestamp(*sel.ObjectAsOf)
		entry.ObjectAsOf = &t
	}
	if sel.TagAsOf != nil {
		t := metadata.TruncateTimestamp(*sel.TagAsOf)
		entry.TagAsOf = &t
	}
	return entry
}

// resolvedKey holds the surrogate keys produced for one scratch row. Axes
// beyond the requested depth stay zero.
type resolvedKey struct {
	ObjectPK      int64
	VersionPK     int64
	TagPK         int64
	ObjectVersion int
	TagVersion    int
}

// keyDepth selects how far along the object, version and tag axes a
// resolution has to reach.
type keyDepth int

const (
	depthObject keyDepth = iota
	depthVersion
	depthTag
)

// Join fragments of the resolution query. Every branch of an axis condition
// is mutually exclusive because a selector carries exactly one criterion per
// axis, so each scratch row joins at most one row per level.
const (
	keyMapObjectJoin = `
		FROM key_mapping km
		LEFT JOIN object o
			ON o.tenant_pk = ?
			AND o.object_id_hi = km.id_hi
			AND o.object_id_lo = km.id_lo`

	keyMapVersionJoin = `
		LEFT JOIN object_definition d
			ON d.object_pk = o.object_pk
			AND (
				(km.object_version IS NOT NULL AND d.object_version = km.object_version)
				OR (km.object_version IS NULL AND km.object_asof IS NULL AND d.version_pk =
					(SELECT lv.version_pk FROM latest_version lv WHERE lv.object_pk = d.object_pk))
				OR (km.object_asof IS NOT NULL AND d.object_version =
					(SELECT MAX(d2.object_version) FROM object_definition d2
						WHERE d2.object_pk = d.object_pk AND d2.object_timestamp <= km.object_asof))
			)`

	keyMapTagJoin = `
		LEFT JOIN tag t
			ON t.version_pk = d.version_pk
			AND (
				(km.tag_version IS NOT NULL AND t.tag_version = km.tag_version)
				OR (km.tag_version IS NULL AND km.tag_asof IS NULL AND t.tag_pk =
					(SELECT lt.tag_pk FROM latest_tag lt WHERE lt.version_pk = d.version_pk))
				OR (km.tag_asof IS NOT NULL AND t.tag_version =
					(SELECT MAX(t2.tag_version) FROM tag t2
						WHERE t2.version_pk = d.version_pk AND t2.tag_timestamp <= km.tag_asof))
			)`
)

// loadKeyEntries writes the entries into the key_mapping scratch table under
// a fresh batch key. The rows stay invisible to other transactions and are
// deleted again before the transaction commits.
func (db *DB) loadKeyEntries(ctx context.Context, tx tagsql.Tx, entries []keyEntry) (_ int64, err error) {
	batchKey := rand.Int63()

	for start := 0; start < len(entries); start += scratchChunk {
		end := start + scratchChunk
		if end > len(entries) {
			end = len(entries)
		}
		chunk := entries[start:end]

		var query strings.Builder
		query.WriteString(`INSERT INTO key_mapping (
			batch_key, ordinal, object_type, id_hi, id_lo,
			object_version, object_asof, tag_version, tag_asof
		) VALUES `)

		args := make([]interface{}, 0, len(chunk)*9)
		for i, entry := range chunk {
			if i > 0 {
				query.WriteString(", ")
			}
			query.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?)")

			hi, lo := metadata.UUIDHiLo(entry.ID)
			args = append(args,
				batchKey, start+i, int16(entry.Type), hi, lo,
				nullVersion(entry.ObjectVersion), db.nullTimestamp(entry.ObjectAsOf),
				nullVersion(entry.TagVersion), db.nullTimestamp(entry.TagAsOf),
			)
		}

		if _, err := tx.ExecContext(ctx, db.rebind(query.String()), args...); err != nil {
			return 0, err
		}
	}
	return batchKey, nil
}

func (db *DB) deleteKeyEntries(ctx context.Context, tx tagsql.Tx, batchKey int64) error {
	_, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM key_mapping WHERE batch_key = ?`), batchKey)
	return err
}

// resolveKeys maps all entries onto surrogate keys in a single query and
// enforces existence and type agreement per position.
func (db *DB) resolveKeys(ctx context.Context, tx tagsql.Tx, tenantPK int64, entries []keyEntry, depth keyDepth) (_ []resolvedKey, err error) {
	defer mon.Task()(&ctx)(&err)

	batchKey, err := db.loadKeyEntries(ctx, tx, entries)
	if err != nil {
		return nil, err
	}

	query := "SELECT km.ordinal, o.object_pk, o.object_type"
	if depth >= depthVersion {
		query += ", d.version_pk, d.object_version"
	}
	if depth >= depthTag {
		query += ", t.tag_pk, t.tag_version"
	}
	query += keyMapObjectJoin
	if depth >= depthVersion {
		query += keyMapVersionJoin
	}
	if depth >= depthTag {
		query += keyMapTagJoin
	}
	query += " WHERE km.batch_key = ? ORDER BY km.ordinal"

	results := make([]resolvedKey, 0, len(entries))
	err = withRows(tx.QueryContext(ctx, db.rebind(query), tenantPK, batchKey))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var ordinal int
			var objectPK, storedType, versionPK, objectVersion, tagPK, tagVersion sql.NullInt64

			dests := []interface{}{&ordinal, &objectPK, &storedType}
			if depth >= depthVersion {
				dests = append(dests, &versionPK, &objectVersion)
			}
			if depth >= depthTag {
				dests = append(dests, &tagPK, &tagVersion)
			}
			if err := rows.Scan(dests...); err != nil {
				return err
			}
			if ordinal != len(results) || ordinal >= len(entries) {
				return metadata.ErrInternal.New("key mapping produced unexpected ordinal %d", ordinal)
			}

			entry := entries[ordinal]
			switch {
			case !objectPK.Valid:
				return metadata.ErrMissingItem.New("%s object %s does not exist (item %d)",
					entry.Type, entry.ID, ordinal)
			case metadata.ObjectType(storedType.Int64) != entry.Type:
				return metadata.ErrWrongItemType.New("object %s holds %s, not %s (item %d)",
					entry.ID, metadata.ObjectType(storedType.Int64), entry.Type, ordinal)
			}
			if depth >= depthVersion && !versionPK.Valid {
				return metadata.ErrMissingItem.New("%s object %s has no %s (item %d)",
					entry.Type, entry.ID, describeAxis("version", entry.ObjectVersion, entry.ObjectAsOf), ordinal)
			}
			if depth >= depthTag && !tagPK.Valid {
				return metadata.ErrMissingItem.New("%s object %s version %d has no %s (item %d)",
					entry.Type, entry.ID, objectVersion.Int64, describeAxis("tag", entry.TagVersion, entry.TagAsOf), ordinal)
			}

			results = append(results, resolvedKey{
				ObjectPK:      objectPK.Int64,
				VersionPK:     versionPK.Int64,
				TagPK:         tagPK.Int64,
				ObjectVersion: int(objectVersion.Int64),
				TagVersion:    int(tagVersion.Int64),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(results) != len(entries) {
		return nil, metadata.ErrInternal.New("key mapping resolved %d of %d entries", len(results), len(entries))
	}

	if err := db.deleteKeyEntries(ctx, tx, batchKey); err != nil {
		return nil, err
	}
	return results, nil
}

// resolveObjectKeys maps refs onto object keys.
func (db *DB) resolveObjectKeys(ctx context.Context, tx tagsql.Tx, tenantPK int64, refs []ObjectRef) ([]resolvedKey, error) {
	entries := make([]keyEntry, len(refs))
	for i, ref := range refs {
		entries[i] = entryForRef(ref)
	}
	return db.resolveKeys(ctx, tx, tenantPK, entries, depthObject)
}

// resolveVersionKeys maps entries onto object and version keys.
func (db *DB) resolveVersionKeys(ctx context.Context, tx tagsql.Tx, tenantPK int64, entries []keyEntry) ([]resolvedKey, error) {
	return db.resolveKeys(ctx, tx, tenantPK, entries, depthVersion)
}

// resolveTagKeys maps selectors onto object, version and tag keys.
func (db *DB) resolveTagKeys(ctx context.Context, tx tagsql.Tx, tenantPK int64, selectors []metadata.TagSelector) ([]resolvedKey, error) {
	entries := make([]keyEntry, len(selectors))
	for i, sel := range selectors {
		entries[i] = entryForSelector(sel)
	}
	return db.resolveKeys(ctx, tx, tenantPK, entries, depthTag)
}

func describeAxis(axis string, version int, asOf *time.Time) string {
	switch {
	case version > 0:
		return axis + " " + strconv.Itoa(version)
	case asOf != nil:
		return axis + " as of " + metadata.EncodeTimestamp(*asOf)
	default:
		return "latest " + axis
	}
}

func nullVersion(v int) interface{} {
	if v <= 0 {
		return nil
	}
	return int64(v)
}

func (db *DB) nullTimestamp(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return db.adapter.timestampParam(*t)
}
