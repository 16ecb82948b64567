// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package dbutil contains helpers shared by all database implementations:
// connection string handling, driver selection, placeholder rebinding and
// driver error classification.
package dbutil

import (
	"flag"

	"github.com/spacemonkeygo/monkit/v3"

	"storj.io/tracmeta/shared/tagsql"
)

// Implementation type of valid DBs.
type Implementation int

const (
	// Unknown is an unknown db type.
	Unknown Implementation = iota
	// SQLite is a sqlite3 database.
	SQLite
	// Postgres is a PostgreSQL database.
	Postgres
	// Cockroach is a CockroachDB database.
	Cockroach
	// MySQL is a MySQL or MariaDB database.
	MySQL
	// SQLServer is a Microsoft SQL Server database.
	SQLServer
)

// ImplementationForScheme returns the Implementation that is used for
// the url with the provided scheme.
func ImplementationForScheme(scheme string) Implementation {
	switch scheme {
	case "sqlite", "sqlite3":
		return SQLite
	case "postgres", "postgresql", "pgx":
		return Postgres
	case "cockroach":
		return Cockroach
	case "mysql", "mariadb":
		return MySQL
	case "sqlserver", "mssql":
		return SQLServer
	default:
		return Unknown
	}
}

// String returns the default name for the implementation.
func (impl Implementation) String() string {
	switch impl {
	case SQLite:
		return "sqlite3"
	case Postgres:
		return "postgres"
	case Cockroach:
		return "cockroach"
	case MySQL:
		return "mysql"
	case SQLServer:
		return "sqlserver"
	default:
		return "<unknown>"
	}
}

var (
	maxIdleConns    = flag.Int("db.max_idle_conns", 20, "Maximum Amount of Idle Database connections, -1 means the stdlib default")
	maxOpenConns    = flag.Int("db.max_open_conns", 25, "Maximum Amount of Open Database connections, -1 means the stdlib default")
	connMaxLifetime = flag.Duration("db.conn_max_lifetime", -1, "Maximum Database Connection Lifetime, -1 means the stdlib default")
)

// Configure sets connection boundaries and adds db_stats monitoring to monkit.
func Configure(db tagsql.DB, dbName string, mon *monkit.Scope) {
	if *maxIdleConns >= 0 {
		db.SetMaxIdleConns(*maxIdleConns)
	}
	if *maxOpenConns >= 0 {
		db.SetMaxOpenConns(*maxOpenConns)
	}
	if *connMaxLifetime >= 0 {
		db.SetConnMaxLifetime(*connMaxLifetime)
	}
	mon.Chain(monkit.StatSourceFunc(
		func(cb func(key monkit.SeriesKey, field string, val float64)) {
			monkit.StatSourceFromStruct(
				monkit.NewSeriesKey("db_stats").WithTag("db_name", dbName),
				db.Stats()).Stats(cb)
		}))
}
