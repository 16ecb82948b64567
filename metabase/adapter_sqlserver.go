// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"time"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

// SQLServerAdapter uses SQL Server related SQL queries.
type SQLServerAdapter struct {
	impl dbutil.Implementation
}

var _ Adapter = &SQLServerAdapter{}

// Name returns the name of the adapter.
func (a *SQLServerAdapter) Name() string { return "sqlserver" }

// Implementation returns the dialect the adapter serves.
func (a *SQLServerAdapter) Implementation() dbutil.Implementation { return a.impl }

// insertReturningPK reads the generated key through an OUTPUT clause, the
// engine has no LastInsertId mechanism.
func (a *SQLServerAdapter) insertReturningPK(ctx context.Context, tx tagsql.Tx, head, tail, pkColumn string, args ...interface{}) (int64, error) {
	query := dbutil.Rebind(a.impl, head+" OUTPUT INSERTED."+pkColumn+" "+tail)
	var pk int64
	err := tx.QueryRowContext(ctx, query, args...).Scan(&pk)
	return pk, err
}

func (a *SQLServerAdapter) timestampParam(t time.Time) interface{} { return t.UTC() }

func (a *SQLServerAdapter) textTimestamps() bool { return false }

func (a *SQLServerAdapter) intBools() bool { return false }

func (a *SQLServerAdapter) decimalExpr(expr string) string {
	return "CAST(" + expr + " AS DECIMAL(38,19))"
}
