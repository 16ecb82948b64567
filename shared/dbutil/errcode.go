// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package dbutil

import (
	"errors"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	pgxerrcode "github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const (
	// cockroachRestartTransaction is the legacy sqlstate cockroach reports
	// when a transaction needs a client-side retry.
	cockroachRestartTransaction = "CR000"

	mysqlDuplicateEntry  = 1062
	mysqlLockDeadlock    = 1213
	mysqlLockWaitTimeout = 1205

	mssqlUniqueConstraint = 2627
	mssqlUniqueIndex      = 2601
	mssqlDeadlockVictim   = 1205
)

// PostgresErrorCode returns the SQLSTATE code associated with any postgres
// error in the chain of errors walked by unwrapping, or "" when there is none.
func PostgresErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique or primary key constraint
// violation from any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgxerrcode.UniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var mssqlErr mssql.Error
	if errors.As(err, &mssqlErr) {
		return mssqlErr.Number == mssqlUniqueConstraint ||
			mssqlErr.Number == mssqlUniqueIndex
	}
	return false
}

// IsTransient reports whether err is a serialization failure, deadlock or
// lock timeout that is safe to retry on a fresh transaction.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgxerrcode.SerializationFailure ||
			pgErr.Code == pgxerrcode.DeadlockDetected ||
			pgErr.Code == cockroachRestartTransaction
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy ||
			sqliteErr.Code == sqlite3.ErrLocked
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlLockDeadlock ||
			mysqlErr.Number == mysqlLockWaitTimeout
	}
	var mssqlErr mssql.Error
	if errors.As(err, &mssqlErr) {
		return mssqlErr.Number == mssqlDeadlockVictim
	}
	return false
}
