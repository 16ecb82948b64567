// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"context"

	_ "github.com/denisenkom/go-mssqldb" // registers sqlserver as a tagsql driver.
	_ "github.com/go-sql-driver/mysql"   // registers mysql as a tagsql driver.
	_ "github.com/jackc/pgx/v5/stdlib"   // registers pgx as a tagsql driver.
	_ "github.com/mattn/go-sqlite3"      // registers sqlite3 as a tagsql driver.
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/migrate"
	"storj.io/tracmeta/shared/tagsql"
)

// Config holds the startup parameters of the catalogue store.
type Config struct {
	ApplicationName string
}

// DB provides the catalogue operations over one SQL database.
type DB struct {
	log     *zap.Logger
	db      tagsql.DB
	connstr string
	impl    dbutil.Implementation
	adapter Adapter
	config  Config

	testCleanup func() error
}

// Open opens a connection to the catalogue database. The engine is chosen
// from the connection string scheme.
func Open(ctx context.Context, log *zap.Logger, connstr string, config Config) (*DB, error) {
	driverName, source, impl, err := dbutil.SplitConnStr(connstr)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	adapter, err := newAdapter(impl)
	if err != nil {
		return nil, err
	}

	source, err = dbutil.WithApplicationName(source, impl, config.ApplicationName)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	rawdb, err := tagsql.Open(ctx, driverName, source)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	dbutil.Configure(rawdb, "metabase", mon)

	db := &DB{
		log:         log,
		db:          rawdb,
		connstr:     connstr,
		impl:        impl,
		adapter:     adapter,
		config:      config,
		testCleanup: func() error { return nil },
	}

	log.Debug("Connected", zap.String("implementation", adapter.Name()))

	return db, nil
}

// Implementation returns the database implementation.
func (db *DB) Implementation() dbutil.Implementation { return db.impl }

// Adapter returns the dialect adapter in use.
func (db *DB) Adapter() Adapter { return db.adapter }

// UnderlyingTagSQL returns the raw database handle.
func (db *DB) UnderlyingTagSQL() tagsql.DB { return db.db }

// Ping checks whether the connection has been established.
func (db *DB) Ping(ctx context.Context) error {
	return Error.Wrap(db.db.PingContext(ctx))
}

// TestingSetCleanup is used to set the callback for cleaning up the test
// database.
func (db *DB) TestingSetCleanup(cleanup func() error) {
	db.testCleanup = cleanup
}

// Close closes the connection to the database.
func (db *DB) Close() error {
	return errs.Combine(Error.Wrap(db.db.Close()), db.testCleanup())
}

// MigrateToLatest migrates the database to the latest schema version.
func (db *DB) MigrateToLatest(ctx context.Context) error {
	migration := db.Migration()
	return migration.Run(ctx, db.log.Named("migrate"))
}

// CheckVersion checks the database is at the latest schema version.
func (db *DB) CheckVersion(ctx context.Context) error {
	migration := db.Migration()
	return migration.ValidateVersions(ctx, db.log)
}

// Migration returns the schema migration for the connected engine.
func (db *DB) Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: "metabase_versions",
		Impl:  db.impl,
		Steps: []*migrate.Step{
			{
				DB:          db.db,
				Description: "initial setup",
				Version:     1,
				Action:      migrate.SQL(initialDDL(db.impl)),
			},
		},
	}
}

// rebind rewrites placeholders for the connected engine.
func (db *DB) rebind(query string) string {
	return dbutil.Rebind(db.impl, query)
}
