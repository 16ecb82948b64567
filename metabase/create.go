// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/dbutil/txutil"
	"storj.io/tracmeta/shared/tagsql"
)

// attrChunk caps rows per INSERT into tag_attr. Thirteen parameters per row
// keeps chunks under the strictest driver placeholder limits.
const attrChunk = 70

func verifyBatch(tenant string, count int) error {
	switch {
	case tenant == "":
		return metadata.ErrInputValidation.New("tenant missing")
	case count == 0:
		return metadata.ErrInputValidation.New("batch empty")
	case count > batchSizeLimit:
		return metadata.ErrInputValidation.New("batch holds %d items, limit is %d", count, batchSizeLimit)
	}
	return nil
}

// verifyTagShape checks the invariants every stored tag obeys regardless of
// which operation writes it.
func verifyTagShape(i int, tag metadata.Tag) error {
	header := tag.Header
	switch {
	case !header.ObjectType.Valid():
		return metadata.ErrInputValidation.New("item %d: object type invalid", i)
	case header.ObjectID == uuid.Nil:
		return metadata.ErrInputValidation.New("item %d: object id missing", i)
	case header.ObjectType != tag.Definition.Type:
		return metadata.ErrInputValidation.New("item %d: definition type %s does not match header type %s",
			i, tag.Definition.Type, header.ObjectType)
	case header.ObjectVersion < 1:
		return metadata.ErrInputValidation.New("item %d: object version must be positive, got %d", i, header.ObjectVersion)
	case header.TagVersion < 1:
		return metadata.ErrInputValidation.New("item %d: tag version must be positive, got %d", i, header.TagVersion)
	case header.ObjectTimestamp.IsZero():
		return metadata.ErrInputValidation.New("item %d: object timestamp missing", i)
	case header.TagTimestamp.IsZero():
		return metadata.ErrInputValidation.New("item %d: tag timestamp missing", i)
	case len(tag.Attrs) > metadata.MaxAttrCount:
		return metadata.ErrInputValidation.New("item %d: tag holds %d attributes, limit is %d",
			i, len(tag.Attrs), metadata.MaxAttrCount)
	}
	for name := range tag.Attrs {
		if err := metadata.VerifyAttrName(name); err != nil {
			return err
		}
	}
	return nil
}

func encodePayloads(tags []metadata.Tag) ([][]byte, error) {
	payloads := make([][]byte, len(tags))
	for i := range tags {
		payload, err := metadata.EncodeDefinition(tags[i].Definition)
		if err != nil {
			return nil, metadata.ErrInputValidation.New("item %d: %v", i, err)
		}
		payloads[i] = payload
	}
	return payloads, nil
}

// SaveNewObjects creates brand new objects: the identity row, definition
// version one and tag one, with both latest markers. The batch commits or
// fails as a whole.
type SaveNewObjects struct {
	Tenant string
	Tags   []metadata.Tag
}

// Verify verifies the request fields.
func (opts *SaveNewObjects) Verify() error {
	if err := verifyBatch(opts.Tenant, len(opts.Tags)); err != nil {
		return err
	}
	for i, tag := range opts.Tags {
		if err := verifyTagShape(i, tag); err != nil {
			return err
		}
		if tag.Header.ObjectVersion != 1 || tag.Header.TagVersion != 1 {
			return metadata.ErrInputValidation.New("item %d: new objects start at version 1 tag 1, got version %d tag %d",
				i, tag.Header.ObjectVersion, tag.Header.TagVersion)
		}
	}
	return nil
}

// SaveNewObjects stores new objects with their first version and tag.
func (db *DB) SaveNewObjects(ctx context.Context, opts SaveNewObjects) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}
	payloads, err := encodePayloads(opts.Tags)
	if err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		return db.saveNewObjectsTx(ctx, tx, tenantPK, opts.Tags, payloads)
	})
	if err != nil {
		return wrapError(err)
	}
	mon.Meter("object_create").Mark(len(opts.Tags))
	return nil
}

func (db *DB) saveNewObjectsTx(ctx context.Context, tx tagsql.Tx, tenantPK int64, tags []metadata.Tag, payloads [][]byte) error {
	for i, tag := range tags {
		objectPK, err := db.insertObject(ctx, tx, tenantPK, tag.Header.ObjectType, tag.Header.ObjectID)
		if err != nil {
			if dbutil.IsUniqueViolation(err) {
				return metadata.ErrDuplicateItem.New("%s object %s already exists (item %d)",
					tag.Header.ObjectType, tag.Header.ObjectID, i)
			}
			return err
		}
		if err := db.saveVersionOne(ctx, tx, tenantPK, objectPK, tag, payloads[i], i); err != nil {
			return err
		}
	}
	return nil
}

// NewVersion carries one version increment: the full successor tag and the
// version number the writer last observed.
type NewVersion struct {
	Tag          metadata.Tag
	PriorVersion int
}

// SaveNewVersions appends a new definition version to existing objects. Each
// item races through its prior version number: if another writer superseded
// it first, the batch fails with a version conflict.
type SaveNewVersions struct {
	Tenant string
	Items  []NewVersion
}

// Verify verifies the request fields.
func (opts *SaveNewVersions) Verify() error {
	if err := verifyBatch(opts.Tenant, len(opts.Items)); err != nil {
		return err
	}
	for i, item := range opts.Items {
		if err := verifyTagShape(i, item.Tag); err != nil {
			return err
		}
		header := item.Tag.Header
		switch {
		case header.ObjectVersion < 2:
			return metadata.ErrInputValidation.New("item %d: successor version must exceed 1, got %d", i, header.ObjectVersion)
		case item.PriorVersion != header.ObjectVersion-1:
			return metadata.ErrInputValidation.New("item %d: prior version %d does not precede %d",
				i, item.PriorVersion, header.ObjectVersion)
		case header.TagVersion != 1:
			return metadata.ErrInputValidation.New("item %d: new versions start at tag 1, got %d", i, header.TagVersion)
		}
	}
	return nil
}

// SaveNewVersions stores successor versions of existing objects.
func (db *DB) SaveNewVersions(ctx context.Context, opts SaveNewVersions) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}

	tags := make([]metadata.Tag, len(opts.Items))
	for i, item := range opts.Items {
		tags[i] = item.Tag
	}
	payloads, err := encodePayloads(tags)
	if err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		return db.saveNewVersionsTx(ctx, tx, tenantPK, opts.Items, payloads)
	})
	if err != nil {
		return wrapError(err)
	}
	mon.Meter("version_create").Mark(len(opts.Items))
	return nil
}

func (db *DB) saveNewVersionsTx(ctx context.Context, tx tagsql.Tx, tenantPK int64, items []NewVersion, payloads [][]byte) error {
	refs := make([]ObjectRef, len(items))
	for i, item := range items {
		refs[i] = ObjectRef{Type: item.Tag.Header.ObjectType, ID: item.Tag.Header.ObjectID}
	}
	keys, err := db.resolveObjectKeys(ctx, tx, tenantPK, refs)
	if err != nil {
		return err
	}

	for i, item := range items {
		header := item.Tag.Header

		versionPK, err := db.insertDefinition(ctx, tx, keys[i].ObjectPK, header, payloads[i])
		if err != nil {
			if dbutil.IsUniqueViolation(err) {
				return metadata.ErrVersionConflict.New("%s object %s version %d already exists (item %d)",
					header.ObjectType, header.ObjectID, header.ObjectVersion, i)
			}
			return err
		}
		tagPK, err := db.insertTag(ctx, tx, versionPK, tenantPK, header, item.Tag.Attrs)
		if err != nil {
			return err
		}
		if err := db.insertLatestTag(ctx, tx, versionPK, tagPK); err != nil {
			return err
		}

		advanced, err := db.advanceLatestVersion(ctx, tx, keys[i].ObjectPK, versionPK, item.PriorVersion)
		if err != nil {
			return err
		}
		if !advanced {
			return metadata.ErrVersionConflict.New("%s object %s version %d is not the latest (item %d)",
				header.ObjectType, header.ObjectID, item.PriorVersion, i)
		}
	}
	return nil
}

// NewTag carries one tag increment: the full updated tag and the tag version
// number the writer last observed.
type NewTag struct {
	Tag             metadata.Tag
	PriorTagVersion int
}

// SaveNewTags appends a new tag to existing object versions. Each item races
// through its prior tag version number.
type SaveNewTags struct {
	Tenant string
	Items  []NewTag
}

// Verify verifies the request fields.
func (opts *SaveNewTags) Verify() error {
	if err := verifyBatch(opts.Tenant, len(opts.Items)); err != nil {
		return err
	}
	for i, item := range opts.Items {
		if err := verifyTagShape(i, item.Tag); err != nil {
			return err
		}
		header := item.Tag.Header
		switch {
		case header.TagVersion < 2:
			return metadata.ErrInputValidation.New("item %d: successor tag must exceed 1, got %d", i, header.TagVersion)
		case item.PriorTagVersion != header.TagVersion-1:
			return metadata.ErrInputValidation.New("item %d: prior tag %d does not precede %d",
				i, item.PriorTagVersion, header.TagVersion)
		}
	}
	return nil
}

// SaveNewTags stores successor tags of existing object versions.
func (db *DB) SaveNewTags(ctx context.Context, opts SaveNewTags) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		return db.saveNewTagsTx(ctx, tx, tenantPK, opts.Items)
	})
	if err != nil {
		return wrapError(err)
	}
	mon.Meter("tag_create").Mark(len(opts.Items))
	return nil
}

func (db *DB) saveNewTagsTx(ctx context.Context, tx tagsql.Tx, tenantPK int64, items []NewTag) error {
	entries := make([]keyEntry, len(items))
	for i, item := range items {
		entries[i] = keyEntry{
			Type:          item.Tag.Header.ObjectType,
			ID:            item.Tag.Header.ObjectID,
			ObjectVersion: item.Tag.Header.ObjectVersion,
		}
	}
	keys, err := db.resolveVersionKeys(ctx, tx, tenantPK, entries)
	if err != nil {
		return err
	}

	for i, item := range items {
		header := item.Tag.Header

		tagPK, err := db.insertTag(ctx, tx, keys[i].VersionPK, tenantPK, header, item.Tag.Attrs)
		if err != nil {
			if dbutil.IsUniqueViolation(err) {
				return metadata.ErrVersionConflict.New("%s object %s version %d tag %d already exists (item %d)",
					header.ObjectType, header.ObjectID, header.ObjectVersion, header.TagVersion, i)
			}
			return err
		}

		advanced, err := db.advanceLatestTag(ctx, tx, keys[i].VersionPK, tagPK, item.PriorTagVersion)
		if err != nil {
			return err
		}
		if !advanced {
			return metadata.ErrVersionConflict.New("%s object %s version %d tag %d is not the latest (item %d)",
				header.ObjectType, header.ObjectID, header.ObjectVersion, item.PriorTagVersion, i)
		}
	}
	return nil
}

// PreallocateObjectIDs reserves object identities with no content. Reserved
// ids stay invisible to reads and search until saved.
type PreallocateObjectIDs struct {
	Tenant string
	Refs   []ObjectRef
}

// Verify verifies the request fields.
func (opts *PreallocateObjectIDs) Verify() error {
	if err := verifyBatch(opts.Tenant, len(opts.Refs)); err != nil {
		return err
	}
	for i, ref := range opts.Refs {
		switch {
		case !ref.Type.Valid():
			return metadata.ErrInputValidation.New("item %d: object type invalid", i)
		case ref.ID == uuid.Nil:
			return metadata.ErrInputValidation.New("item %d: object id missing", i)
		}
	}
	return nil
}

// PreallocateObjectIDs reserves the given identities.
func (db *DB) PreallocateObjectIDs(ctx context.Context, opts PreallocateObjectIDs) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		return db.preallocateObjectIDsTx(ctx, tx, tenantPK, opts.Refs)
	})
	return wrapError(err)
}

func (db *DB) preallocateObjectIDsTx(ctx context.Context, tx tagsql.Tx, tenantPK int64, refs []ObjectRef) error {
	for i, ref := range refs {
		if _, err := db.insertObject(ctx, tx, tenantPK, ref.Type, ref.ID); err != nil {
			if dbutil.IsUniqueViolation(err) {
				return metadata.ErrDuplicateItem.New("%s object %s already exists (item %d)", ref.Type, ref.ID, i)
			}
			return err
		}
	}
	return nil
}

// SavePreallocatedObjects stores version one of previously reserved
// identities. The identity must exist with the same object type and must not
// have been saved before.
type SavePreallocatedObjects struct {
	Tenant string
	Tags   []metadata.Tag
}

// Verify verifies the request fields.
func (opts *SavePreallocatedObjects) Verify() error {
	return (&SaveNewObjects{Tenant: opts.Tenant, Tags: opts.Tags}).Verify()
}

// SavePreallocatedObjects stores the first version and tag of reserved ids.
func (db *DB) SavePreallocatedObjects(ctx context.Context, opts SavePreallocatedObjects) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}
	payloads, err := encodePayloads(opts.Tags)
	if err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		return db.savePreallocatedTx(ctx, tx, tenantPK, opts.Tags, payloads)
	})
	if err != nil {
		return wrapError(err)
	}
	mon.Meter("object_create").Mark(len(opts.Tags))
	return nil
}

func (db *DB) savePreallocatedTx(ctx context.Context, tx tagsql.Tx, tenantPK int64, tags []metadata.Tag, payloads [][]byte) error {
	refs := make([]ObjectRef, len(tags))
	for i, tag := range tags {
		refs[i] = ObjectRef{Type: tag.Header.ObjectType, ID: tag.Header.ObjectID}
	}
	keys, err := db.resolveObjectKeys(ctx, tx, tenantPK, refs)
	if err != nil {
		return err
	}
	for i, tag := range tags {
		if err := db.saveVersionOne(ctx, tx, tenantPK, keys[i].ObjectPK, tag, payloads[i], i); err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch persists a mixed set of writes in a single transaction. Groups
// apply in a fixed order: reserved identities first, then new objects, saved
// preallocations, new versions and finally new tags. Any failing item rolls
// back the whole batch.
type SaveBatch struct {
	Tenant       string
	Preallocate  []ObjectRef
	NewObjects   []metadata.Tag
	Preallocated []metadata.Tag
	NewVersions  []NewVersion
	NewTags      []NewTag
}

// Verify verifies the request fields.
func (opts *SaveBatch) Verify() error {
	total := len(opts.Preallocate) + len(opts.NewObjects) + len(opts.Preallocated) +
		len(opts.NewVersions) + len(opts.NewTags)
	if err := verifyBatch(opts.Tenant, total); err != nil {
		return err
	}
	if len(opts.Preallocate) > 0 {
		if err := (&PreallocateObjectIDs{Tenant: opts.Tenant, Refs: opts.Preallocate}).Verify(); err != nil {
			return err
		}
	}
	if len(opts.NewObjects) > 0 {
		if err := (&SaveNewObjects{Tenant: opts.Tenant, Tags: opts.NewObjects}).Verify(); err != nil {
			return err
		}
	}
	if len(opts.Preallocated) > 0 {
		if err := (&SavePreallocatedObjects{Tenant: opts.Tenant, Tags: opts.Preallocated}).Verify(); err != nil {
			return err
		}
	}
	if len(opts.NewVersions) > 0 {
		if err := (&SaveNewVersions{Tenant: opts.Tenant, Items: opts.NewVersions}).Verify(); err != nil {
			return err
		}
	}
	if len(opts.NewTags) > 0 {
		if err := (&SaveNewTags{Tenant: opts.Tenant, Items: opts.NewTags}).Verify(); err != nil {
			return err
		}
	}
	return nil
}

// SaveBatch stores all groups of the batch atomically.
func (db *DB) SaveBatch(ctx context.Context, opts SaveBatch) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}

	newPayloads, err := encodePayloads(opts.NewObjects)
	if err != nil {
		return wrapError(err)
	}
	preallocatedPayloads, err := encodePayloads(opts.Preallocated)
	if err != nil {
		return wrapError(err)
	}
	versionTags := make([]metadata.Tag, len(opts.NewVersions))
	for i, item := range opts.NewVersions {
		versionTags[i] = item.Tag
	}
	versionPayloads, err := encodePayloads(versionTags)
	if err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		tenantPK, err := db.tenantPK(ctx, tx, opts.Tenant)
		if err != nil {
			return err
		}
		if len(opts.Preallocate) > 0 {
			if err := db.preallocateObjectIDsTx(ctx, tx, tenantPK, opts.Preallocate); err != nil {
				return err
			}
		}
		if len(opts.NewObjects) > 0 {
			if err := db.saveNewObjectsTx(ctx, tx, tenantPK, opts.NewObjects, newPayloads); err != nil {
				return err
			}
		}
		if len(opts.Preallocated) > 0 {
			if err := db.savePreallocatedTx(ctx, tx, tenantPK, opts.Preallocated, preallocatedPayloads); err != nil {
				return err
			}
		}
		if len(opts.NewVersions) > 0 {
			if err := db.saveNewVersionsTx(ctx, tx, tenantPK, opts.NewVersions, versionPayloads); err != nil {
				return err
			}
		}
		if len(opts.NewTags) > 0 {
			if err := db.saveNewTagsTx(ctx, tx, tenantPK, opts.NewTags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapError(err)
	}
	mon.Meter("object_create").Mark(len(opts.NewObjects) + len(opts.Preallocated))
	mon.Meter("version_create").Mark(len(opts.NewVersions))
	mon.Meter("tag_create").Mark(len(opts.NewTags))
	return nil
}

func (db *DB) insertObject(ctx context.Context, tx tagsql.Tx, tenantPK int64, typ metadata.ObjectType, id uuid.UUID) (int64, error) {
	hi, lo := metadata.UUIDHiLo(id)
	return db.adapter.insertReturningPK(ctx, tx,
		`INSERT INTO object (tenant_pk, object_type, object_id_hi, object_id_lo)`,
		`VALUES (?, ?, ?, ?)`, "object_pk",
		tenantPK, int16(typ), hi, lo)
}

func (db *DB) insertDefinition(ctx context.Context, tx tagsql.Tx, objectPK int64, header metadata.TagHeader, payload []byte) (int64, error) {
	utc, offset := metadata.SplitTimestamp(header.ObjectTimestamp)
	return db.adapter.insertReturningPK(ctx, tx,
		`INSERT INTO object_definition (object_pk, object_version, object_timestamp, object_ts_offset, payload)`,
		`VALUES (?, ?, ?, ?, ?)`, "version_pk",
		objectPK, header.ObjectVersion, db.adapter.timestampParam(utc), offset, payload)
}

// insertTag stores one tag row together with its attribute rows.
func (db *DB) insertTag(ctx context.Context, tx tagsql.Tx, versionPK, tenantPK int64, header metadata.TagHeader, attrs map[string]metadata.Value) (int64, error) {
	utc, offset := metadata.SplitTimestamp(header.TagTimestamp)
	tagPK, err := db.adapter.insertReturningPK(ctx, tx,
		`INSERT INTO tag (version_pk, tag_version, tag_timestamp, tag_ts_offset)`,
		`VALUES (?, ?, ?, ?)`, "tag_pk",
		versionPK, header.TagVersion, db.adapter.timestampParam(utc), offset)
	if err != nil {
		return 0, err
	}
	return tagPK, db.insertAttrs(ctx, tx, tagPK, tenantPK, attrs)
}

func (db *DB) insertAttrs(ctx context.Context, tx tagsql.Tx, tagPK, tenantPK int64, attrs map[string]metadata.Value) error {
	rows, err := attrRowsForTag(tagPK, tenantPK, attrs)
	if err != nil {
		return err
	}

	for start := 0; start < len(rows); start += attrChunk {
		end := start + attrChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var query strings.Builder
		query.WriteString(`INSERT INTO tag_attr (
			tag_pk, tenant_pk, attr_name, attr_index, attr_type,
			v_bool, v_int, v_float, v_decimal, v_str, v_date, v_datetime, v_datetime_offset
		) VALUES `)

		args := make([]interface{}, 0, len(chunk)*13)
		for i, row := range chunk {
			if i > 0 {
				query.WriteString(", ")
			}
			query.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row.params(db.adapter)...)
		}

		if _, err := tx.ExecContext(ctx, db.rebind(query.String()), args...); err != nil {
			return err
		}
	}
	return nil
}

// saveVersionOne stores definition version one with its first tag and creates
// both latest markers for an object that has no content yet.
func (db *DB) saveVersionOne(ctx context.Context, tx tagsql.Tx, tenantPK, objectPK int64, tag metadata.Tag, payload []byte, item int) error {
	versionPK, err := db.insertDefinition(ctx, tx, objectPK, tag.Header, payload)
	if err != nil {
		if dbutil.IsUniqueViolation(err) {
			return metadata.ErrDuplicateItem.New("%s object %s has already been saved (item %d)",
				tag.Header.ObjectType, tag.Header.ObjectID, item)
		}
		return err
	}
	tagPK, err := db.insertTag(ctx, tx, versionPK, tenantPK, tag.Header, tag.Attrs)
	if err != nil {
		return err
	}
	if err := db.insertLatestVersion(ctx, tx, objectPK, versionPK, tenantPK); err != nil {
		if dbutil.IsUniqueViolation(err) {
			return metadata.ErrDuplicateItem.New("%s object %s has already been saved (item %d)",
				tag.Header.ObjectType, tag.Header.ObjectID, item)
		}
		return err
	}
	return db.insertLatestTag(ctx, tx, versionPK, tagPK)
}

func (db *DB) insertLatestVersion(ctx context.Context, tx tagsql.Tx, objectPK, versionPK, tenantPK int64) error {
	_, err := tx.ExecContext(ctx, db.rebind(
		`INSERT INTO latest_version (object_pk, version_pk, tenant_pk) VALUES (?, ?, ?)`),
		objectPK, versionPK, tenantPK)
	return err
}

func (db *DB) insertLatestTag(ctx context.Context, tx tagsql.Tx, versionPK, tagPK int64) error {
	_, err := tx.ExecContext(ctx, db.rebind(
		`INSERT INTO latest_tag (version_pk, tag_pk) VALUES (?, ?)`),
		versionPK, tagPK)
	return err
}

// advanceLatestVersion moves the latest marker off the prior version. A false
// return means the marker no longer points at priorVersion, so a concurrent
// writer won the increment.
func (db *DB) advanceLatestVersion(ctx context.Context, tx tagsql.Tx, objectPK, newVersionPK int64, priorVersion int) (bool, error) {
	result, err := tx.ExecContext(ctx, db.rebind(`
		UPDATE latest_version SET version_pk = ?
		WHERE object_pk = ?
		AND version_pk = (
			SELECT d.version_pk FROM object_definition d
			WHERE d.object_pk = ? AND d.object_version = ?
		)`),
		newVersionPK, objectPK, objectPK, priorVersion)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// advanceLatestTag moves the latest marker off the prior tag of one version.
func (db *DB) advanceLatestTag(ctx context.Context, tx tagsql.Tx, versionPK, newTagPK int64, priorTagVersion int) (bool, error) {
	result, err := tx.ExecContext(ctx, db.rebind(`
		UPDATE latest_tag SET tag_pk = ?
		WHERE version_pk = ?
		AND tag_pk = (
			SELECT t.tag_pk FROM tag t
			WHERE t.version_pk = ? AND t.tag_version = ?
		)`),
		newTagPK, versionPK, versionPK, priorTagVersion)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
