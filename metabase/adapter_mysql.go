// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"time"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

// MySQLAdapter uses MySQL and MariaDB related SQL queries.
type MySQLAdapter struct {
	impl dbutil.Implementation
}

var _ Adapter = &MySQLAdapter{}

// Name returns the name of the adapter.
func (a *MySQLAdapter) Name() string { return "mysql" }

// Implementation returns the dialect the adapter serves.
func (a *MySQLAdapter) Implementation() dbutil.Implementation { return a.impl }

func (a *MySQLAdapter) insertReturningPK(ctx context.Context, tx tagsql.Tx, head, tail, pkColumn string, args ...interface{}) (int64, error) {
	result, err := tx.ExecContext(ctx, dbutil.Rebind(a.impl, head+" "+tail), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (a *MySQLAdapter) timestampParam(t time.Time) interface{} { return t.UTC() }

func (a *MySQLAdapter) textTimestamps() bool { return false }

// intBools is set because BOOLEAN columns are TINYINT(1) and scan as
// integers.
func (a *MySQLAdapter) intBools() bool { return true }

func (a *MySQLAdapter) decimalExpr(expr string) string {
	return "CAST(" + expr + " AS DECIMAL(65,30))"
}
