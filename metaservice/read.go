// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice

import (
	"context"

	"go.uber.org/zap"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metadata"
)

// ReadService resolves selectors and search requests against the store.
type ReadService struct {
	log    *zap.Logger
	db     *metabase.DB
	config Config
}

// NewReadService constructs a ReadService.
func NewReadService(log *zap.Logger, db *metabase.DB, config Config) *ReadService {
	return &ReadService{log: log, db: db, config: config}
}

// ReadObject loads the tag the selector addresses.
func (service *ReadService) ReadObject(ctx context.Context, tenant string, selector metadata.TagSelector) (_ metadata.Tag, err error) {
	defer mon.Task()(&ctx)(&err)

	tags, err := service.ReadBatch(ctx, tenant, []metadata.TagSelector{selector})
	if err != nil {
		return metadata.Tag{}, err
	}
	return tags[0], nil
}

// ReadBatch loads the tags the selectors address, positionally aligned with
// the request. One missing item fails the whole batch.
func (service *ReadService) ReadBatch(ctx context.Context, tenant string, selectors []metadata.TagSelector) (_ []metadata.Tag, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := service.config.verifyTenant(tenant); err != nil {
		return nil, err
	}
	return service.db.LoadTags(ctx, metabase.LoadTags{Tenant: tenant, Selectors: selectors})
}

// Search returns the tags matching the expression under the requested
// temporal scope, newest object first.
func (service *ReadService) Search(ctx context.Context, tenant string, params metadata.SearchParameters) (_ []metadata.Tag, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := service.config.verifyTenant(tenant); err != nil {
		return nil, err
	}
	tags, err := service.db.Search(ctx, metabase.Search{Tenant: tenant, Params: params})
	if err != nil {
		return nil, err
	}
	service.log.Debug("search",
		zap.String("tenant", tenant),
		zap.Int("results", len(tags)))
	return tags, nil
}
