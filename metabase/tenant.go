// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"storj.io/tracmeta/metadata"
	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/dbutil/txutil"
	"storj.io/tracmeta/shared/tagsql"
)

// maxTenantCodeLen bounds tenant codes; the column is VARCHAR(64).
const maxTenantCodeLen = 64

var tenantCodeRx = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Tenant is one isolated catalogue namespace.
type Tenant struct {
	Code        string
	Description string
}

// VerifyTenantCode checks a tenant code is well formed.
func VerifyTenantCode(code string) error {
	switch {
	case code == "":
		return metadata.ErrInputValidation.New("tenant code missing")
	case len(code) > maxTenantCodeLen:
		return metadata.ErrInputValidation.New("tenant code exceeds %d bytes", maxTenantCodeLen)
	case !tenantCodeRx.MatchString(code):
		return metadata.ErrInputValidation.New("tenant code %q is malformed", code)
	}
	return nil
}

// EnsureTenant creates a tenant or updates the description of an existing
// one.
type EnsureTenant struct {
	Code        string
	Description string
}

// Verify verifies the request fields.
func (opts *EnsureTenant) Verify() error {
	return VerifyTenantCode(opts.Code)
}

// EnsureTenant provisions the tenant namespace.
func (db *DB) EnsureTenant(ctx context.Context, opts EnsureTenant) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := opts.Verify(); err != nil {
		return wrapError(err)
	}

	err = txutil.WithTx(ctx, db.db, nil, func(ctx context.Context, tx tagsql.Tx) error {
		// Update first so an existing tenant never trips the unique
		// constraint, which would abort the transaction on postgres.
		result, err := tx.ExecContext(ctx, db.rebind(
			`UPDATE tenant SET description = ? WHERE tenant_code = ?`),
			nullString(opts.Description), opts.Code)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}

		_, err = tx.ExecContext(ctx, db.rebind(
			`INSERT INTO tenant (tenant_code, description) VALUES (?, ?)`),
			opts.Code, nullString(opts.Description))
		if dbutil.IsUniqueViolation(err) {
			return metadata.ErrDuplicateItem.New("tenant %q created concurrently", opts.Code)
		}
		return err
	})
	return wrapError(err)
}

// ListTenants returns all tenants ordered by code.
func (db *DB) ListTenants(ctx context.Context) (_ []Tenant, err error) {
	defer mon.Task()(&ctx)(&err)

	var tenants []Tenant
	err = withRows(db.db.QueryContext(ctx,
		`SELECT tenant_code, description FROM tenant ORDER BY tenant_code`))(func(rows tagsql.Rows) error {
		for rows.Next() {
			var tenant Tenant
			var description sql.NullString
			if err := rows.Scan(&tenant.Code, &description); err != nil {
				return err
			}
			tenant.Description = description.String
			tenants = append(tenants, tenant)
		}
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return tenants, nil
}

// tenantPK resolves a tenant code onto its surrogate key. Unknown tenants are
// an input error: tenants are provisioned before any catalogue traffic.
func (db *DB) tenantPK(ctx context.Context, q queryer, code string) (int64, error) {
	var pk int64
	err := q.QueryRowContext(ctx, db.rebind(
		`SELECT tenant_pk FROM tenant WHERE tenant_code = ?`), code).Scan(&pk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, metadata.ErrInputValidation.New("unknown tenant %q", code)
	}
	return pk, err
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
