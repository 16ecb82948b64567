// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package tagsql implements a tagged wrapper for databases.
//
// This package also hides all sql driver magic from the
// rest of the code base.
package tagsql

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeebo/errs"
)

// Open opens *sql.DB and wraps the implementation with tagging.
func Open(ctx context.Context, driverName, dataSourceName string) (DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errs.Combine(errs.Wrap(err), db.Close())
	}

	return Wrap(db), nil
}

// Wrap turns a *sql.DB into a DB-matching interface.
func Wrap(db *sql.DB) DB {
	return &sqlDB{db: db}
}

// DB implements a wrapper for *sql.DB-like database.
//
// The wrapper adds tracing to all calls and requires contexts
// everywhere.
type DB interface {
	BeginTx(ctx context.Context, txOptions *sql.TxOptions) (Tx, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	PingContext(ctx context.Context) error

	SetConnMaxLifetime(d time.Duration)
	SetMaxIdleConns(n int)
	SetMaxOpenConns(n int)
	Stats() sql.DBStats

	Internal() *sql.DB
	Close() error
}

// Rows implements a wrapper for *sql.Rows.
type Rows interface {
	Close() error
	Err() error
	Next() bool
	Scan(dest ...interface{}) error
}

type sqlDB struct {
	db *sql.DB
}

func (s *sqlDB) Internal() *sql.DB { return s.db }

func (s *sqlDB) BeginTx(ctx context.Context, txOptions *sql.TxOptions) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, txOptions)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (s *sqlDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDB) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.db.QueryContext(ctx, query, args...)
}

func (s *sqlDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *sqlDB) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlDB) SetConnMaxLifetime(d time.Duration) { s.db.SetConnMaxLifetime(d) }
func (s *sqlDB) SetMaxIdleConns(n int)              { s.db.SetMaxIdleConns(n) }
func (s *sqlDB) SetMaxOpenConns(n int)              { s.db.SetMaxOpenConns(n) }
func (s *sqlDB) Stats() sql.DBStats                 { return s.db.Stats() }

func (s *sqlDB) Close() error { return s.db.Close() }
