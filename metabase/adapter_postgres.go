// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"time"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

// PostgresAdapter uses PostgreSQL related SQL queries.
type PostgresAdapter struct {
	impl dbutil.Implementation
}

var _ Adapter = &PostgresAdapter{}

// Name returns the name of the adapter.
func (a *PostgresAdapter) Name() string { return "postgres" }

// Implementation returns the dialect the adapter serves.
func (a *PostgresAdapter) Implementation() dbutil.Implementation { return a.impl }

func (a *PostgresAdapter) insertReturningPK(ctx context.Context, tx tagsql.Tx, head, tail, pkColumn string, args ...interface{}) (int64, error) {
	query := dbutil.Rebind(a.impl, head+" "+tail+" RETURNING "+pkColumn)
	var pk int64
	err := tx.QueryRowContext(ctx, query, args...).Scan(&pk)
	return pk, err
}

func (a *PostgresAdapter) timestampParam(t time.Time) interface{} { return t.UTC() }

func (a *PostgresAdapter) textTimestamps() bool { return false }

func (a *PostgresAdapter) intBools() bool { return false }

func (a *PostgresAdapter) decimalExpr(expr string) string {
	return "CAST(" + expr + " AS NUMERIC)"
}

// CockroachAdapter uses CockroachDB related SQL queries.
type CockroachAdapter struct {
	PostgresAdapter
}

var _ Adapter = &CockroachAdapter{}

// Name returns the name of the adapter.
func (a *CockroachAdapter) Name() string { return "cockroach" }
