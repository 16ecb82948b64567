// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/tagsql"
)

// RawTenant is the column image of one tenant row. It should be rarely used
// directly.
type RawTenant struct {
	TenantPK    int64
	Code        string
	Description string
}

// RawObject is the column image of one object row.
type RawObject struct {
	ObjectPK int64
	TenantPK int64
	Type     metadata.ObjectType
	ID       uuid.UUID
}

// RawDefinition is the column image of one object_definition row.
type RawDefinition struct {
	VersionPK int64
	ObjectPK  int64
	Version   int
	Timestamp time.Time
}

// RawTag is the column image of one tag row.
type RawTag struct {
	TagPK     int64
	VersionPK int64
	Version   int
	Timestamp time.Time
}

// RawState contains the full state of the catalogue tables.
type RawState struct {
	Tenants     []RawTenant
	Objects     []RawObject
	Definitions []RawDefinition
	Tags        []RawTag

	// LatestVersions maps object_pk to the version_pk its marker points at.
	// LatestTags maps version_pk to the tag_pk of the current tag.
	LatestVersions map[int64]int64
	LatestTags     map[int64]int64

	AttrRows    int
	ScratchRows int
}

// TestingGetState returns the state of the database.
func (db *DB) TestingGetState(ctx context.Context) (_ *RawState, err error) {
	state := &RawState{
		LatestVersions: map[int64]int64{},
		LatestTags:     map[int64]int64{},
	}

	state.Tenants, err = db.testingGetAllTenants(ctx)
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}
	state.Objects, err = db.testingGetAllObjects(ctx)
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}
	state.Definitions, err = db.testingGetAllDefinitions(ctx)
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}
	state.Tags, err = db.testingGetAllTags(ctx)
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}

	err = withRows(db.db.QueryContext(ctx, `SELECT object_pk, version_pk FROM latest_version`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var objectPK, versionPK int64
			if err := rows.Scan(&objectPK, &versionPK); err != nil {
				return err
			}
			state.LatestVersions[objectPK] = versionPK
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}

	err = withRows(db.db.QueryContext(ctx, `SELECT version_pk, tag_pk FROM latest_tag`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var versionPK, tagPK int64
			if err := rows.Scan(&versionPK, &tagPK); err != nil {
				return err
			}
			state.LatestTags[versionPK] = tagPK
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}

	state.AttrRows, err = db.testingCount(ctx, "tag_attr")
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}
	state.ScratchRows, err = db.testingCount(ctx, "key_mapping")
	if err != nil {
		return nil, Error.New("GetState: %w", err)
	}

	return state, nil
}

// TestingDeleteAll empties every catalogue table.
func (db *DB) TestingDeleteAll(ctx context.Context) (err error) {
	// Children before parents, the engines enforce the foreign keys.
	for _, table := range []string{
		"tag_attr", "latest_tag", "latest_version", "tag",
		"object_definition", "object", "tenant", "key_mapping",
	} {
		if _, err := db.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Error.Wrap(err)
		}
	}
	return nil
}

func (db *DB) testingGetAllTenants(ctx context.Context) (tenants []RawTenant, err error) {
	err = withRows(db.db.QueryContext(ctx, `
		SELECT tenant_pk, tenant_code, description FROM tenant ORDER BY tenant_code
	`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var t RawTenant
			var description sql.NullString
			if err := rows.Scan(&t.TenantPK, &t.Code, &description); err != nil {
				return err
			}
			t.Description = description.String
			tenants = append(tenants, t)
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("testingGetAllTenants: %w", err)
	}
	return tenants, nil
}

func (db *DB) testingGetAllObjects(ctx context.Context) (objects []RawObject, err error) {
	err = withRows(db.db.QueryContext(ctx, `
		SELECT object_pk, tenant_pk, object_type, object_id_hi, object_id_lo
		FROM object ORDER BY object_pk
	`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var o RawObject
			var typ int16
			var hi, lo int64
			if err := rows.Scan(&o.ObjectPK, &o.TenantPK, &typ, &hi, &lo); err != nil {
				return err
			}
			o.Type = metadata.ObjectType(typ)
			o.ID = metadata.UUIDFromHiLo(hi, lo)
			objects = append(objects, o)
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("testingGetAllObjects: %w", err)
	}
	return objects, nil
}

func (db *DB) testingGetAllDefinitions(ctx context.Context) (definitions []RawDefinition, err error) {
	err = withRows(db.db.QueryContext(ctx, `
		SELECT version_pk, object_pk, object_version, object_timestamp
		FROM object_definition ORDER BY object_pk, object_version
	`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var d RawDefinition
			ts := timestampScanner{text: db.adapter.textTimestamps()}
			if err := rows.Scan(&d.VersionPK, &d.ObjectPK, &d.Version, ts.dest()); err != nil {
				return err
			}
			t, ok, err := ts.value()
			if err != nil {
				return err
			}
			if ok {
				d.Timestamp = t
			}
			definitions = append(definitions, d)
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("testingGetAllDefinitions: %w", err)
	}
	return definitions, nil
}

func (db *DB) testingGetAllTags(ctx context.Context) (tags []RawTag, err error) {
	err = withRows(db.db.QueryContext(ctx, `
		SELECT tag_pk, version_pk, tag_version, tag_timestamp
		FROM tag ORDER BY version_pk, tag_version
	`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var t RawTag
			ts := timestampScanner{text: db.adapter.textTimestamps()}
			if err := rows.Scan(&t.TagPK, &t.VersionPK, &t.Version, ts.dest()); err != nil {
				return err
			}
			stamp, ok, err := ts.value()
			if err != nil {
				return err
			}
			if ok {
				t.Timestamp = stamp
			}
			tags = append(tags, t)
		}
		return nil
	})
	if err != nil {
		return nil, Error.New("testingGetAllTags: %w", err)
	}
	return tags, nil
}

func (db *DB) testingCount(ctx context.Context, table string) (count int, err error) {
	err = db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, Error.New("testingCount %s: %w", table, err)
	}
	return count, nil
}
