// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"time"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

// Adapter is the thin per-engine extension point: generated-key strategy and
// the two column encodings that differ between engines. Error-code mapping is
// shared through dbutil, keyed on driver error types.
type Adapter interface {
	Name() string
	Implementation() dbutil.Implementation

	// insertReturningPK runs a single-row INSERT composed from head and
	// tail and returns the generated value of pkColumn.
	insertReturningPK(ctx context.Context, tx tagsql.Tx, head, tail, pkColumn string, args ...interface{}) (int64, error)

	// timestampParam encodes a UTC instant as a bind parameter.
	timestampParam(t time.Time) interface{}

	// textTimestamps reports whether timestamp columns scan as text.
	textTimestamps() bool

	// intBools reports whether boolean columns scan as integers.
	intBools() bool

	// decimalExpr wraps a decimal text column or placeholder so that
	// comparisons happen numerically instead of lexicographically.
	decimalExpr(expr string) string
}

func newAdapter(impl dbutil.Implementation) (Adapter, error) {
	switch impl {
	case dbutil.SQLite:
		return &SQLiteAdapter{impl: impl}, nil
	case dbutil.Postgres:
		return &PostgresAdapter{impl: impl}, nil
	case dbutil.Cockroach:
		return &CockroachAdapter{PostgresAdapter{impl: impl}}, nil
	case dbutil.MySQL:
		return &MySQLAdapter{impl: impl}, nil
	case dbutil.SQLServer:
		return &SQLServerAdapter{impl: impl}, nil
	default:
		return nil, Error.New("unsupported implementation %v", impl)
	}
}

// wrapError passes taxonomy errors through unchanged and classifies anything
// else as transient or permanent storage failure.
func wrapError(err error) error {
	switch {
	case err == nil:
		return nil
	case metadata.CodeOf(err) != metadata.CodeInternal:
		return Error.Wrap(err)
	case metadata.ErrInternal.Has(err), metadata.ErrDataCorruption.Has(err):
		return Error.Wrap(err)
	case dbutil.IsTransient(err):
		return Error.Wrap(metadata.ErrTransientStorage.Wrap(err))
	default:
		return Error.Wrap(metadata.ErrPermanentStorage.Wrap(err))
	}
}
