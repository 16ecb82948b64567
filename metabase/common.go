// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package metabase implements the relational persistence layer of the
// metadata catalogue: objects, versioned definitions, tags, the typed
// attribute index and the latest markers, portable across SQL engines.
package metabase

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/tagsql"
)

var (
	// Error is the default error for metabase.
	Error = errs.Class("metabase")

	mon = monkit.Package()
)

// batchSizeLimit caps multi-row inserts and IN lists so that engine
// placeholder limits are respected.
const batchSizeLimit = 500

// ObjectRef names one object by type and external id.
type ObjectRef struct {
	Type metadata.ObjectType
	ID   uuid.UUID
}

// Verify checks the reference names a concrete object.
func (ref ObjectRef) Verify() error {
	switch {
	case !ref.Type.Valid():
		return metadata.ErrInputValidation.New("object type invalid")
	case ref.ID == uuid.Nil:
		return metadata.ErrInputValidation.New("object id missing")
	}
	return nil
}

func withRows(rows tagsql.Rows, err error) func(func(tagsql.Rows) error) error {
	return func(callback func(tagsql.Rows) error) error {
		if err != nil {
			return err
		}
		err := callback(rows)
		return errs.Combine(rows.Err(), rows.Close(), err)
	}
}

// queryer covers what tagsql.DB and tagsql.Tx have in common, so query
// helpers work inside and outside transactions.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (tagsql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
