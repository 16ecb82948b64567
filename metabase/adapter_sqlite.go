// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"time"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

// sqliteTimeLayout is the text form of timestamps in SQLite columns. The
// numeric offset (never Z) matches what the driver parses back, and the fixed
// width keeps lexicographic order chronological for stored UTC instants.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000-07:00"

// SQLiteAdapter uses SQLite related SQL queries.
type SQLiteAdapter struct {
	impl dbutil.Implementation
}

var _ Adapter = &SQLiteAdapter{}

// Name returns the name of the adapter.
func (a *SQLiteAdapter) Name() string { return "sqlite" }

// Implementation returns the dialect the adapter serves.
func (a *SQLiteAdapter) Implementation() dbutil.Implementation { return a.impl }

func (a *SQLiteAdapter) insertReturningPK(ctx context.Context, tx tagsql.Tx, head, tail, pkColumn string, args ...interface{}) (int64, error) {
	result, err := tx.ExecContext(ctx, dbutil.Rebind(a.impl, head+" "+tail), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (a *SQLiteAdapter) timestampParam(t time.Time) interface{} {
	return t.UTC().Format(sqliteTimeLayout)
}

func (a *SQLiteAdapter) textTimestamps() bool { return true }

func (a *SQLiteAdapter) intBools() bool { return false }

// decimalExpr converts to NUMERIC affinity. SQLite compares as float beyond
// 53 bits, which is the closest the engine offers.
func (a *SQLiteAdapter) decimalExpr(expr string) string {
	return "CAST(" + expr + " AS NUMERIC)"
}
