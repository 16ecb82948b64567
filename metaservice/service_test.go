// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metaservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/metabase/metabasetest"
	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/metaservice"
	"storj.io/tracmeta/shared/testcontext"
)

// writeStart is where the fake clock of every test begins.
var writeStart = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

var (
	trusted   = metaservice.Caller{ID: "svc-loader", Name: "Order Loader", Trusted: true}
	untrusted = metaservice.Caller{ID: "jane", Name: "Jane Doe"}
)

type services struct {
	db    *metabase.DB
	write *metaservice.WriteService
	read  *metaservice.ReadService
	clock clockwork.FakeClock
}

// run builds both services over every configured database engine. The write
// service runs on a fake clock starting at writeStart.
func run(t *testing.T, config metaservice.Config, validator metaservice.VersionValidator,
	fn func(ctx *testcontext.Context, t *testing.T, s services)) {
	metabasetest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *metabase.DB) {
		defer metabasetest.DeleteAll{}.Check(ctx, t, db)
		metabasetest.EnsureTenant{
			Opts: metabase.EnsureTenant{Code: metabasetest.TestTenant},
		}.Check(ctx, t, db)

		log := zaptest.NewLogger(t)
		clock := clockwork.NewFakeClockAt(writeStart)
		write := metaservice.NewWriteService(log.Named("write"), db, validator, config)
		write.TestingSetClock(clock)
		read := metaservice.NewReadService(log.Named("read"), db, config)

		fn(ctx, t, services{db: db, write: write, read: read, clock: clock})
	})
}

func as(ctx context.Context, caller metaservice.Caller) context.Context {
	return metaservice.WithCaller(ctx, caller)
}

func createReq(typ metadata.ObjectType, updates ...metadata.TagUpdate) metadata.WriteRequest {
	def := metabasetest.TestDefinition(typ)
	return metadata.WriteRequest{ObjectType: typ, Definition: &def, Updates: updates}
}

func setAttr(name string, value metadata.Value) metadata.TagUpdate {
	return metadata.TagUpdate{Operation: metadata.CreateOrReplaceAttr, AttrName: name, Value: value}
}
