// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabasetest

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"storj.io/tracmeta/metabase"
	"storj.io/tracmeta/shared/dbutil/dbtest"
	"storj.io/tracmeta/shared/testcontext"
)

// Run runs the test against all configured databases.
func Run(t *testing.T, fn func(ctx *testcontext.Context, t *testing.T, db *metabase.DB)) {
	for _, dbinfo := range dbtest.Databases() {
		dbinfo := dbinfo
		t.Run(dbinfo.Name, func(t *testing.T) {
			t.Parallel()
			if dbinfo.URL == "" {
				t.Skipf("Database %s connection string not provided. %s", dbinfo.Name, dbinfo.Message)
			}

			ctx := testcontext.New(t)
			defer ctx.Cleanup()

			db := OpenUnique(ctx, t, dbinfo.URL)
			defer ctx.Check(db.Close)

			if err := db.MigrateToLatest(ctx); err != nil {
				t.Fatal(err)
			}

			fn(ctx, t, db)
		})
	}
}

// OpenUnique opens a catalogue on a freshly created temporary database or
// schema. Closing the returned DB drops the temporary namespace again.
func OpenUnique(ctx *testcontext.Context, t testing.TB, connstr string) *metabase.DB {
	tempDB, err := dbtest.OpenUnique(ctx, connstr, strings.ToLower(t.Name()))
	if err != nil {
		t.Fatal(err)
	}

	db, err := metabase.Open(ctx, zaptest.NewLogger(t).Named("metabase"), tempDB.ConnStr, metabase.Config{
		ApplicationName: "tracmeta-test",
	})
	if err != nil {
		_ = tempDB.Close(ctx)
		t.Fatal(err)
	}
	db.TestingSetCleanup(func() error { return tempDB.Close(context.Background()) })

	return db
}
