// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metadata"
)

// WriteService assembles and persists new tags: it stamps controlled
// attributes, applies user updates, validates version increments and hands
// the finished batch to the store.
type WriteService struct {
	log       *zap.Logger
	db        *metabase.DB
	validator VersionValidator
	clock     clockwork.Clock
	config    Config
}

// NewWriteService constructs a WriteService. A nil validator accepts every
// version increment.
func NewWriteService(log *zap.Logger, db *metabase.DB, validator VersionValidator, config Config) *WriteService {
	return &WriteService{
		log:       log,
		db:        db,
		validator: validator,
		clock:     clockwork.NewRealClock(),
		config:    config,
	}
}

// TestingSetClock replaces the wall clock so tests can pin write timestamps.
func (service *WriteService) TestingSetClock(clock clockwork.Clock) {
	service.clock = clock
}

// WriteBatch groups per-item write requests. BatchUpdates apply to every
// written tag after the item's own updates. All groups commit in one
// transaction.
type WriteBatch struct {
	CreateObjects             []metadata.WriteRequest
	UpdateObjects             []metadata.WriteRequest
	UpdateTags                []metadata.WriteRequest
	PreallocateIDs            []metadata.WriteRequest
	CreatePreallocatedObjects []metadata.WriteRequest

	BatchUpdates []metadata.TagUpdate
}

func (batch WriteBatch) items() int {
	return len(batch.CreateObjects) + len(batch.UpdateObjects) + len(batch.UpdateTags) +
		len(batch.PreallocateIDs) + len(batch.CreatePreallocatedObjects)
}

// WriteBatchResult carries the written tag coordinates, positionally aligned
// with the request groups. Preallocated identities report their id with zero
// versions.
type WriteBatchResult struct {
	CreateObjects             []metadata.TagHeader
	UpdateObjects             []metadata.TagHeader
	UpdateTags                []metadata.TagHeader
	PreallocateIDs            []metadata.TagHeader
	CreatePreallocatedObjects []metadata.TagHeader
}

// WriteBatch assembles and persists every request of the batch atomically.
// One clock reading supplies the object and tag timestamps of all items.
func (service *WriteService) WriteBatch(ctx context.Context, tenant string, batch WriteBatch) (_ WriteBatchResult, err error) {
	defer mon.Task()(&ctx)(&err)

	caller, err := requireCaller(ctx)
	if err != nil {
		return WriteBatchResult{}, err
	}
	if err := service.config.verifyTenant(tenant); err != nil {
		return WriteBatchResult{}, err
	}
	if batch.items() == 0 {
		return WriteBatchResult{}, metadata.ErrInputValidation.New("batch empty")
	}
	if err := metadata.VerifyClientUpdates(batch.BatchUpdates); err != nil {
		return WriteBatchResult{}, err
	}

	now := metadata.TruncateTimestamp(service.clock.Now().UTC())

	priors, err := service.loadPriors(ctx, tenant, batch)
	if err != nil {
		return WriteBatchResult{}, err
	}

	save := metabase.SaveBatch{Tenant: tenant}
	var result WriteBatchResult

	for i, req := range batch.CreateObjects {
		tag, err := service.buildCreate(caller, now, req, batch.BatchUpdates, "create objects", i)
		if err != nil {
			return WriteBatchResult{}, err
		}
		save.NewObjects = append(save.NewObjects, tag)
		result.CreateObjects = append(result.CreateObjects, tag.Header)
	}
	for i, req := range batch.UpdateObjects {
		item, err := service.buildNewVersion(caller, now, req, priors[i], batch.BatchUpdates, i)
		if err != nil {
			return WriteBatchResult{}, err
		}
		save.NewVersions = append(save.NewVersions, item)
		result.UpdateObjects = append(result.UpdateObjects, item.Tag.Header)
	}
	for i, req := range batch.UpdateTags {
		item, err := service.buildNewTag(caller, now, req, priors[len(batch.UpdateObjects)+i], batch.BatchUpdates, i)
		if err != nil {
			return WriteBatchResult{}, err
		}
		save.NewTags = append(save.NewTags, item)
		result.UpdateTags = append(result.UpdateTags, item.Tag.Header)
	}
	for i, req := range batch.PreallocateIDs {
		ref, err := buildPreallocation(caller, req, i)
		if err != nil {
			return WriteBatchResult{}, err
		}
		save.Preallocate = append(save.Preallocate, ref)
		result.PreallocateIDs = append(result.PreallocateIDs, metadata.TagHeader{
			ObjectType: ref.Type,
			ObjectID:   ref.ID,
		})
	}
	for i, req := range batch.CreatePreallocatedObjects {
		tag, err := service.buildPreallocatedSave(caller, now, req, batch.BatchUpdates, i)
		if err != nil {
			return WriteBatchResult{}, err
		}
		save.Preallocated = append(save.Preallocated, tag)
		result.CreatePreallocatedObjects = append(result.CreatePreallocatedObjects, tag.Header)
	}

	if err := service.db.SaveBatch(ctx, save); err != nil {
		return WriteBatchResult{}, err
	}

	service.log.Debug("write batch committed",
		zap.String("tenant", tenant),
		zap.Int("items", batch.items()),
		zap.Time("written_at", now))
	return result, nil
}

// loadPriors fetches the prior tags the update items build on: update object
// items first, then update tag items, one selector each. A stale prior is
// caught later by the store's race rule, not here.
func (service *WriteService) loadPriors(ctx context.Context, tenant string, batch WriteBatch) ([]metadata.Tag, error) {
	count := len(batch.UpdateObjects) + len(batch.UpdateTags)
	if count == 0 {
		return nil, nil
	}
	selectors := make([]metadata.TagSelector, 0, count)
	for i, req := range batch.UpdateObjects {
		if req.Prior == nil {
			return nil, metadata.ErrInputValidation.New("update objects item %d: prior selector missing", i)
		}
		selectors = append(selectors, *req.Prior)
	}
	for i, req := range batch.UpdateTags {
		if req.Prior == nil {
			return nil, metadata.ErrInputValidation.New("update tags item %d: prior selector missing", i)
		}
		selectors = append(selectors, *req.Prior)
	}
	return service.db.LoadTags(ctx, metabase.LoadTags{Tenant: tenant, Selectors: selectors})
}

func (service *WriteService) buildCreate(caller Caller, now time.Time, req metadata.WriteRequest, batchUpdates []metadata.TagUpdate, group string, item int) (metadata.Tag, error) {
	switch {
	case req.Prior != nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("%s item %d: prior selector on a create", group, item)
	case req.Definition == nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("%s item %d: definition missing", group, item)
	case req.ObjectType != req.Definition.Type:
		return metadata.Tag{}, metadata.ErrInputValidation.New("%s item %d: request type %s does not match definition type %s",
			group, item, req.ObjectType, req.Definition.Type)
	}
	if err := service.verifyDefinition(caller, *req.Definition); err != nil {
		return metadata.Tag{}, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return metadata.Tag{}, metadata.ErrInternal.Wrap(err)
	}
	tag := metadata.Tag{
		Header: metadata.TagHeader{
			ObjectType:      req.Definition.Type,
			ObjectID:        id,
			ObjectVersion:   1,
			ObjectTimestamp: now,
			TagVersion:      1,
			TagTimestamp:    now,
		},
		Definition: *req.Definition,
	}
	tag, err = service.applyUserUpdates(tag, req.Updates, batchUpdates)
	if err != nil {
		return metadata.Tag{}, err
	}
	return stampUpdate(stampCreate(tag, caller, now), caller, now), nil
}

func (service *WriteService) buildNewVersion(caller Caller, now time.Time, req metadata.WriteRequest, prior metadata.Tag, batchUpdates []metadata.TagUpdate, item int) (metabase.NewVersion, error) {
	switch {
	case req.Definition == nil:
		return metabase.NewVersion{}, metadata.ErrInputValidation.New("update objects item %d: definition missing", item)
	case req.ObjectType != req.Definition.Type:
		return metabase.NewVersion{}, metadata.ErrInputValidation.New("update objects item %d: request type %s does not match definition type %s",
			item, req.ObjectType, req.Definition.Type)
	}
	// Every version carries the type of version one.
	if req.Definition.Type != prior.Header.ObjectType {
		return metabase.NewVersion{}, metadata.ErrWrongItemType.New("update objects item %d: object %s holds %s, not %s",
			item, prior.Header.ObjectID, prior.Header.ObjectType, req.Definition.Type)
	}
	if err := service.verifyDefinition(caller, *req.Definition); err != nil {
		return metabase.NewVersion{}, err
	}
	if service.validator != nil {
		if err := service.validator.Validate(&prior.Definition, req.Definition); err != nil {
			return metabase.NewVersion{}, metadata.ErrVersionValidation.Wrap(err)
		}
	}

	next := prior.Clone()
	next.Definition = *req.Definition
	next.Header.ObjectVersion = prior.Header.ObjectVersion + 1
	next.Header.ObjectTimestamp = now
	next.Header.TagVersion = 1
	next.Header.TagTimestamp = now

	next, err := service.applyUserUpdates(next, req.Updates, batchUpdates)
	if err != nil {
		return metabase.NewVersion{}, err
	}
	return metabase.NewVersion{
		Tag:          stampUpdate(next, caller, now),
		PriorVersion: prior.Header.ObjectVersion,
	}, nil
}

func (service *WriteService) buildNewTag(caller Caller, now time.Time, req metadata.WriteRequest, prior metadata.Tag, batchUpdates []metadata.TagUpdate, item int) (metabase.NewTag, error) {
	switch {
	case req.Definition != nil:
		return metabase.NewTag{}, metadata.ErrInputValidation.New("update tags item %d: tag updates cannot change the definition", item)
	case req.ObjectType != prior.Header.ObjectType:
		return metabase.NewTag{}, metadata.ErrInputValidation.New("update tags item %d: request type %s does not match object type %s",
			item, req.ObjectType, prior.Header.ObjectType)
	}
	if err := verifyWritable(caller, prior.Header.ObjectType); err != nil {
		return metabase.NewTag{}, err
	}

	next := prior.Clone()
	next.Header.TagVersion = prior.Header.TagVersion + 1
	next.Header.TagTimestamp = now

	next, err := service.applyUserUpdates(next, req.Updates, batchUpdates)
	if err != nil {
		return metabase.NewTag{}, err
	}
	return metabase.NewTag{
		Tag:             stampUpdate(next, caller, now),
		PriorTagVersion: prior.Header.TagVersion,
	}, nil
}

func buildPreallocation(caller Caller, req metadata.WriteRequest, item int) (metabase.ObjectRef, error) {
	switch {
	case req.Prior != nil:
		return metabase.ObjectRef{}, metadata.ErrInputValidation.New("preallocate ids item %d: prior selector on a preallocation", item)
	case req.Definition != nil:
		return metabase.ObjectRef{}, metadata.ErrInputValidation.New("preallocate ids item %d: preallocation stores no definition", item)
	case len(req.Updates) > 0:
		return metabase.ObjectRef{}, metadata.ErrInputValidation.New("preallocate ids item %d: preallocation stores no attributes", item)
	case !req.ObjectType.Valid():
		return metabase.ObjectRef{}, metadata.ErrInputValidation.New("preallocate ids item %d: object type invalid", item)
	}
	if err := verifyWritable(caller, req.ObjectType); err != nil {
		return metabase.ObjectRef{}, err
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return metabase.ObjectRef{}, metadata.ErrInternal.Wrap(err)
	}
	return metabase.ObjectRef{Type: req.ObjectType, ID: id}, nil
}

func (service *WriteService) buildPreallocatedSave(caller Caller, now time.Time, req metadata.WriteRequest, batchUpdates []metadata.TagUpdate, item int) (metadata.Tag, error) {
	prior := req.Prior
	switch {
	case prior == nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: reserved identity missing", item)
	case prior.ObjectID == uuid.Nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: reserved id missing", item)
	case prior.ObjectVersion != 0 || prior.LatestObject || prior.ObjectAsOf != nil ||
		prior.TagVersion != 0 || prior.LatestTag || prior.TagAsOf != nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: reserved identities have no versions to select", item)
	case req.Definition == nil:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: definition missing", item)
	case req.ObjectType != prior.ObjectType:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: request type %s does not match reserved type %s",
			item, req.ObjectType, prior.ObjectType)
	case req.ObjectType != req.Definition.Type:
		return metadata.Tag{}, metadata.ErrInputValidation.New("create preallocated item %d: request type %s does not match definition type %s",
			item, req.ObjectType, req.Definition.Type)
	}
	if err := service.verifyDefinition(caller, *req.Definition); err != nil {
		return metadata.Tag{}, err
	}

	tag := metadata.Tag{
		Header: metadata.TagHeader{
			ObjectType:      req.Definition.Type,
			ObjectID:        prior.ObjectID,
			ObjectVersion:   1,
			ObjectTimestamp: now,
			TagVersion:      1,
			TagTimestamp:    now,
		},
		Definition: *req.Definition,
	}
	tag, err := service.applyUserUpdates(tag, req.Updates, batchUpdates)
	if err != nil {
		return metadata.Tag{}, err
	}
	return stampUpdate(stampCreate(tag, caller, now), caller, now), nil
}

// verifyDefinition checks the body agrees with its declared type, the caller
// may write the type, and the encoded payload stays under the size cap.
func (service *WriteService) verifyDefinition(caller Caller, def metadata.ObjectDefinition) error {
	if err := def.Verify(); err != nil {
		return err
	}
	if err := verifyWritable(caller, def.Type); err != nil {
		return err
	}
	payload, err := metadata.EncodeDefinition(def)
	if err != nil {
		return metadata.ErrInputValidation.Wrap(err)
	}
	if len(payload) > service.config.maxPayloadSize() {
		return metadata.ErrInputValidation.New("definition payload holds %d bytes, limit is %d",
			len(payload), service.config.maxPayloadSize())
	}
	return nil
}

// applyUserUpdates runs the item updates then the batch level updates under
// the client rules. The batch list is verified once per request, not per
// item.
func (service *WriteService) applyUserUpdates(tag metadata.Tag, itemUpdates, batchUpdates []metadata.TagUpdate) (metadata.Tag, error) {
	if err := metadata.VerifyClientUpdates(itemUpdates); err != nil {
		return metadata.Tag{}, err
	}
	tag, err := metadata.ApplyTagUpdates(tag, itemUpdates)
	if err != nil {
		return metadata.Tag{}, err
	}
	return metadata.ApplyTagUpdates(tag, batchUpdates)
}

// verifyWritable gates object types by caller trust. Untrusted callers may
// only touch the client writable types.
func verifyWritable(caller Caller, typ metadata.ObjectType) error {
	if caller.Trusted || typ.ClientWritable() {
		return nil
	}
	return metadata.ErrInputValidation.New("%s objects require a trusted caller", typ)
}

// stampCreate records creation provenance. Only object creation writes these
// attributes; later versions and tags carry them forward from the prior tag.
func stampCreate(tag metadata.Tag, caller Caller, now time.Time) metadata.Tag {
	tag.Attrs[metadata.AttrCreateTime] = metadata.DatetimeValue(now)
	tag.Attrs[metadata.AttrCreateUserID] = metadata.StringValue(caller.ID)
	tag.Attrs[metadata.AttrCreateUserName] = metadata.StringValue(caller.Name)
	return tag
}

// stampUpdate records update provenance. Every write refreshes these
// attributes.
func stampUpdate(tag metadata.Tag, caller Caller, now time.Time) metadata.Tag {
	tag.Attrs[metadata.AttrUpdateTime] = metadata.DatetimeValue(now)
	tag.Attrs[metadata.AttrUpdateUserID] = metadata.StringValue(caller.ID)
	tag.Attrs[metadata.AttrUpdateUserName] = metadata.StringValue(caller.Name)
	return tag
}

// CreateObject writes a brand new object and returns its first coordinates.
func (service *WriteService) CreateObject(ctx context.Context, tenant string, req metadata.WriteRequest) (_ metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{CreateObjects: []metadata.WriteRequest{req}})
	if err != nil {
		return metadata.TagHeader{}, err
	}
	return result.CreateObjects[0], nil
}

// CreateObjectBatch writes several new objects atomically.
func (service *WriteService) CreateObjectBatch(ctx context.Context, tenant string, reqs []metadata.WriteRequest) (_ []metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{CreateObjects: reqs})
	if err != nil {
		return nil, err
	}
	return result.CreateObjects, nil
}

// UpdateObject writes the next version of an existing object.
func (service *WriteService) UpdateObject(ctx context.Context, tenant string, req metadata.WriteRequest) (_ metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{UpdateObjects: []metadata.WriteRequest{req}})
	if err != nil {
		return metadata.TagHeader{}, err
	}
	return result.UpdateObjects[0], nil
}

// UpdateObjectBatch writes next versions of several objects atomically.
func (service *WriteService) UpdateObjectBatch(ctx context.Context, tenant string, reqs []metadata.WriteRequest) (_ []metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{UpdateObjects: reqs})
	if err != nil {
		return nil, err
	}
	return result.UpdateObjects, nil
}

// UpdateTag writes the next tag of an existing object version, leaving the
// definition untouched.
func (service *WriteService) UpdateTag(ctx context.Context, tenant string, req metadata.WriteRequest) (_ metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{UpdateTags: []metadata.WriteRequest{req}})
	if err != nil {
		return metadata.TagHeader{}, err
	}
	return result.UpdateTags[0], nil
}

// UpdateTagBatch writes next tags of several object versions atomically.
func (service *WriteService) UpdateTagBatch(ctx context.Context, tenant string, reqs []metadata.WriteRequest) (_ []metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{UpdateTags: reqs})
	if err != nil {
		return nil, err
	}
	return result.UpdateTags, nil
}

// PreallocateID reserves a fresh identity of the given type. The returned
// header carries the new id and no version; the object stays invisible to
// reads and search until saved.
func (service *WriteService) PreallocateID(ctx context.Context, tenant string, typ metadata.ObjectType) (_ metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{PreallocateIDs: []metadata.WriteRequest{{ObjectType: typ}}})
	if err != nil {
		return metadata.TagHeader{}, err
	}
	return result.PreallocateIDs[0], nil
}

// PreallocateIDBatch reserves several identities atomically.
func (service *WriteService) PreallocateIDBatch(ctx context.Context, tenant string, types []metadata.ObjectType) (_ []metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	reqs := make([]metadata.WriteRequest, len(types))
	for i, typ := range types {
		reqs[i] = metadata.WriteRequest{ObjectType: typ}
	}
	result, err := service.WriteBatch(ctx, tenant, WriteBatch{PreallocateIDs: reqs})
	if err != nil {
		return nil, err
	}
	return result.PreallocateIDs, nil
}

// CreatePreallocatedObject writes the first version of a previously reserved
// identity.
func (service *WriteService) CreatePreallocatedObject(ctx context.Context, tenant string, req metadata.WriteRequest) (_ metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{CreatePreallocatedObjects: []metadata.WriteRequest{req}})
	if err != nil {
		return metadata.TagHeader{}, err
	}
	return result.CreatePreallocatedObjects[0], nil
}

// CreatePreallocatedObjectBatch writes first versions of several reserved
// identities atomically.
func (service *WriteService) CreatePreallocatedObjectBatch(ctx context.Context, tenant string, reqs []metadata.WriteRequest) (_ []metadata.TagHeader, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := service.WriteBatch(ctx, tenant, WriteBatch{CreatePreallocatedObjects: reqs})
	if err != nil {
		return nil, err
	}
	return result.CreatePreallocatedObjects, nil
}
