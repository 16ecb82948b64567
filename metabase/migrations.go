// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package metabase

import (
	"storj.io/tracmeta/shared/dbutil"
)

// initialDDL returns the initial schema for the given engine. The logical
// schema is identical everywhere; only column types, generated keys and the
// blob type differ.
//
// key_mapping is the scratch relation of the key mapper: rows live only
// inside a transaction, keyed by a per-transaction batch key so concurrent
// transactions never contend on the same primary key range.
func initialDDL(impl dbutil.Implementation) []string {
	switch impl {
	case dbutil.SQLite:
		return sqliteDDL
	case dbutil.Postgres:
		return postgresDDL
	case dbutil.Cockroach:
		return cockroachDDL
	case dbutil.MySQL:
		return mysqlDDL
	case dbutil.SQLServer:
		return sqlserverDDL
	default:
		return nil
	}
}

var sqliteDDL = []string{
	`CREATE TABLE tenant (
		tenant_pk   INTEGER PRIMARY KEY,
		tenant_code TEXT NOT NULL UNIQUE,
		description TEXT
	)`,
	`CREATE TABLE object (
		object_pk    INTEGER PRIMARY KEY,
		tenant_pk    INTEGER NOT NULL REFERENCES tenant (tenant_pk),
		object_type  INTEGER NOT NULL,
		object_id_hi INTEGER NOT NULL,
		object_id_lo INTEGER NOT NULL,
		UNIQUE (tenant_pk, object_id_hi, object_id_lo)
	)`,
	`CREATE TABLE object_definition (
		version_pk       INTEGER PRIMARY KEY,
		object_pk        INTEGER NOT NULL REFERENCES object (object_pk),
		object_version   INTEGER NOT NULL,
		object_timestamp TEXT NOT NULL,
		object_ts_offset INTEGER NOT NULL DEFAULT 0,
		payload          BLOB NOT NULL,
		UNIQUE (object_pk, object_version)
	)`,
	`CREATE TABLE tag (
		tag_pk        INTEGER PRIMARY KEY,
		version_pk    INTEGER NOT NULL REFERENCES object_definition (version_pk),
		tag_version   INTEGER NOT NULL,
		tag_timestamp TEXT NOT NULL,
		tag_ts_offset INTEGER NOT NULL DEFAULT 0,
		UNIQUE (version_pk, tag_version)
	)`,
	`CREATE TABLE tag_attr (
		tag_pk            INTEGER NOT NULL REFERENCES tag (tag_pk),
		tenant_pk         INTEGER NOT NULL,
		attr_name         TEXT NOT NULL,
		attr_index        INTEGER NOT NULL,
		attr_type         INTEGER NOT NULL,
		v_bool            BOOLEAN,
		v_int             INTEGER,
		v_float           REAL,
		v_decimal         TEXT,
		v_str             TEXT,
		v_date            TEXT,
		v_datetime        TEXT,
		v_datetime_offset INTEGER,
		PRIMARY KEY (tag_pk, attr_name, attr_index)
	)`,
	`CREATE TABLE latest_version (
		object_pk  INTEGER PRIMARY KEY REFERENCES object (object_pk),
		version_pk INTEGER NOT NULL REFERENCES object_definition (version_pk),
		tenant_pk  INTEGER NOT NULL
	)`,
	`CREATE TABLE latest_tag (
		version_pk INTEGER PRIMARY KEY REFERENCES object_definition (version_pk),
		tag_pk     INTEGER NOT NULL REFERENCES tag (tag_pk)
	)`,
	`CREATE TABLE key_mapping (
		batch_key      INTEGER NOT NULL,
		ordinal        INTEGER NOT NULL,
		object_type    INTEGER,
		id_hi          INTEGER,
		id_lo          INTEGER,
		object_version INTEGER,
		object_asof    TEXT,
		tag_version    INTEGER,
		tag_asof       TEXT,
		PRIMARY KEY (batch_key, ordinal)
	)`,
	`CREATE INDEX idx_tag_attr_lookup ON tag_attr (tenant_pk, attr_name, attr_type)`,
	`CREATE INDEX idx_object_tenant_type ON object (tenant_pk, object_type)`,
	`CREATE INDEX idx_latest_version_version ON latest_version (version_pk)`,
	`CREATE INDEX idx_latest_tag_tag ON latest_tag (tag_pk)`,
}

var postgresDDL = []string{
	`CREATE TABLE tenant (
		tenant_pk   BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		tenant_code VARCHAR(64) NOT NULL UNIQUE,
		description VARCHAR(4096)
	)`,
	`CREATE TABLE object (
		object_pk    BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		tenant_pk    BIGINT NOT NULL REFERENCES tenant (tenant_pk),
		object_type  SMALLINT NOT NULL,
		object_id_hi BIGINT NOT NULL,
		object_id_lo BIGINT NOT NULL,
		UNIQUE (tenant_pk, object_id_hi, object_id_lo)
	)`,
	`CREATE TABLE object_definition (
		version_pk       BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		object_pk        BIGINT NOT NULL REFERENCES object (object_pk),
		object_version   INT NOT NULL,
		object_timestamp TIMESTAMPTZ NOT NULL,
		object_ts_offset INT NOT NULL DEFAULT 0,
		payload          BYTEA NOT NULL,
		UNIQUE (object_pk, object_version)
	)`,
	`CREATE TABLE tag (
		tag_pk        BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		version_pk    BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tag_version   INT NOT NULL,
		tag_timestamp TIMESTAMPTZ NOT NULL,
		tag_ts_offset INT NOT NULL DEFAULT 0,
		UNIQUE (version_pk, tag_version)
	)`,
	`CREATE TABLE tag_attr (
		tag_pk            BIGINT NOT NULL REFERENCES tag (tag_pk),
		tenant_pk         BIGINT NOT NULL,
		attr_name         VARCHAR(256) NOT NULL,
		attr_index        INT NOT NULL,
		attr_type         SMALLINT NOT NULL,
		v_bool            BOOLEAN,
		v_int             BIGINT,
		v_float           DOUBLE PRECISION,
		v_decimal         VARCHAR(128),
		v_str             VARCHAR(1024),
		v_date            VARCHAR(32),
		v_datetime        TIMESTAMPTZ,
		v_datetime_offset INT,
		PRIMARY KEY (tag_pk, attr_name, attr_index)
	)`,
	`CREATE TABLE latest_version (
		object_pk  BIGINT PRIMARY KEY REFERENCES object (object_pk),
		version_pk BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tenant_pk  BIGINT NOT NULL
	)`,
	`CREATE TABLE latest_tag (
		version_pk BIGINT PRIMARY KEY REFERENCES object_definition (version_pk),
		tag_pk     BIGINT NOT NULL REFERENCES tag (tag_pk)
	)`,
	`CREATE TABLE key_mapping (
		batch_key      BIGINT NOT NULL,
		ordinal        INT NOT NULL,
		object_type    SMALLINT,
		id_hi          BIGINT,
		id_lo          BIGINT,
		object_version INT,
		object_asof    TIMESTAMPTZ,
		tag_version    INT,
		tag_asof       TIMESTAMPTZ,
		PRIMARY KEY (batch_key, ordinal)
	)`,
	`CREATE INDEX idx_tag_attr_lookup ON tag_attr (tenant_pk, attr_name, attr_type)`,
	`CREATE INDEX idx_object_tenant_type ON object (tenant_pk, object_type)`,
	`CREATE INDEX idx_latest_version_version ON latest_version (version_pk)`,
	`CREATE INDEX idx_latest_tag_tag ON latest_tag (tag_pk)`,
}

// cockroachDDL matches the postgres schema except for generated keys:
// unique_rowid() avoids the sequential-counter hotspot on a distributed
// cluster.
var cockroachDDL = []string{
	`CREATE TABLE tenant (
		tenant_pk   BIGINT NOT NULL DEFAULT unique_rowid() PRIMARY KEY,
		tenant_code VARCHAR(64) NOT NULL UNIQUE,
		description VARCHAR(4096)
	)`,
	`CREATE TABLE object (
		object_pk    BIGINT NOT NULL DEFAULT unique_rowid() PRIMARY KEY,
		tenant_pk    BIGINT NOT NULL REFERENCES tenant (tenant_pk),
		object_type  SMALLINT NOT NULL,
		object_id_hi BIGINT NOT NULL,
		object_id_lo BIGINT NOT NULL,
		UNIQUE (tenant_pk, object_id_hi, object_id_lo)
	)`,
	`CREATE TABLE object_definition (
		version_pk       BIGINT NOT NULL DEFAULT unique_rowid() PRIMARY KEY,
		object_pk        BIGINT NOT NULL REFERENCES object (object_pk),
		object_version   INT NOT NULL,
		object_timestamp TIMESTAMPTZ NOT NULL,
		object_ts_offset INT NOT NULL DEFAULT 0,
		payload          BYTEA NOT NULL,
		UNIQUE (object_pk, object_version)
	)`,
	`CREATE TABLE tag (
		tag_pk        BIGINT NOT NULL DEFAULT unique_rowid() PRIMARY KEY,
		version_pk    BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tag_version   INT NOT NULL,
		tag_timestamp TIMESTAMPTZ NOT NULL,
		tag_ts_offset INT NOT NULL DEFAULT 0,
		UNIQUE (version_pk, tag_version)
	)`,
	`CREATE TABLE tag_attr (
		tag_pk            BIGINT NOT NULL REFERENCES tag (tag_pk),
		tenant_pk         BIGINT NOT NULL,
		attr_name         VARCHAR(256) NOT NULL,
		attr_index        INT NOT NULL,
		attr_type         SMALLINT NOT NULL,
		v_bool            BOOLEAN,
		v_int             BIGINT,
		v_float           DOUBLE PRECISION,
		v_decimal         VARCHAR(128),
		v_str             VARCHAR(1024),
		v_date            VARCHAR(32),
		v_datetime        TIMESTAMPTZ,
		v_datetime_offset INT,
		PRIMARY KEY (tag_pk, attr_name, attr_index)
	)`,
	`CREATE TABLE latest_version (
		object_pk  BIGINT PRIMARY KEY REFERENCES object (object_pk),
		version_pk BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tenant_pk  BIGINT NOT NULL
	)`,
	`CREATE TABLE latest_tag (
		version_pk BIGINT PRIMARY KEY REFERENCES object_definition (version_pk),
		tag_pk     BIGINT NOT NULL REFERENCES tag (tag_pk)
	)`,
	`CREATE TABLE key_mapping (
		batch_key      BIGINT NOT NULL,
		ordinal        INT NOT NULL,
		object_type    SMALLINT,
		id_hi          BIGINT,
		id_lo          BIGINT,
		object_version INT,
		object_asof    TIMESTAMPTZ,
		tag_version    INT,
		tag_asof       TIMESTAMPTZ,
		PRIMARY KEY (batch_key, ordinal)
	)`,
	`CREATE INDEX idx_tag_attr_lookup ON tag_attr (tenant_pk, attr_name, attr_type)`,
	`CREATE INDEX idx_object_tenant_type ON object (tenant_pk, object_type)`,
	`CREATE INDEX idx_latest_version_version ON latest_version (version_pk)`,
	`CREATE INDEX idx_latest_tag_tag ON latest_tag (tag_pk)`,
}

// mysqlDDL uses binary collation so text comparisons are exact: the server
// default collations are case insensitive.
var mysqlDDL = []string{
	`CREATE TABLE tenant (
		tenant_pk   BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		tenant_code VARCHAR(64) NOT NULL UNIQUE,
		description VARCHAR(4096)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE object (
		object_pk    BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		tenant_pk    BIGINT NOT NULL,
		object_type  SMALLINT NOT NULL,
		object_id_hi BIGINT NOT NULL,
		object_id_lo BIGINT NOT NULL,
		UNIQUE (tenant_pk, object_id_hi, object_id_lo),
		FOREIGN KEY (tenant_pk) REFERENCES tenant (tenant_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE object_definition (
		version_pk       BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		object_pk        BIGINT NOT NULL,
		object_version   INT NOT NULL,
		object_timestamp DATETIME(6) NOT NULL,
		object_ts_offset INT NOT NULL DEFAULT 0,
		payload          LONGBLOB NOT NULL,
		UNIQUE (object_pk, object_version),
		FOREIGN KEY (object_pk) REFERENCES object (object_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE tag (
		tag_pk        BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		version_pk    BIGINT NOT NULL,
		tag_version   INT NOT NULL,
		tag_timestamp DATETIME(6) NOT NULL,
		tag_ts_offset INT NOT NULL DEFAULT 0,
		UNIQUE (version_pk, tag_version),
		FOREIGN KEY (version_pk) REFERENCES object_definition (version_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE tag_attr (
		tag_pk            BIGINT NOT NULL,
		tenant_pk         BIGINT NOT NULL,
		attr_name         VARCHAR(256) NOT NULL,
		attr_index        INT NOT NULL,
		attr_type         SMALLINT NOT NULL,
		v_bool            BOOLEAN,
		v_int             BIGINT,
		v_float           DOUBLE,
		v_decimal         VARCHAR(128),
		v_str             VARCHAR(1024),
		v_date            VARCHAR(32),
		v_datetime        DATETIME(6),
		v_datetime_offset INT,
		PRIMARY KEY (tag_pk, attr_name, attr_index),
		FOREIGN KEY (tag_pk) REFERENCES tag (tag_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE latest_version (
		object_pk  BIGINT NOT NULL PRIMARY KEY,
		version_pk BIGINT NOT NULL,
		tenant_pk  BIGINT NOT NULL,
		FOREIGN KEY (object_pk) REFERENCES object (object_pk),
		FOREIGN KEY (version_pk) REFERENCES object_definition (version_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE latest_tag (
		version_pk BIGINT NOT NULL PRIMARY KEY,
		tag_pk     BIGINT NOT NULL,
		FOREIGN KEY (version_pk) REFERENCES object_definition (version_pk),
		FOREIGN KEY (tag_pk) REFERENCES tag (tag_pk)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE TABLE key_mapping (
		batch_key      BIGINT NOT NULL,
		ordinal        INT NOT NULL,
		object_type    SMALLINT,
		id_hi          BIGINT,
		id_lo          BIGINT,
		object_version INT,
		object_asof    DATETIME(6),
		tag_version    INT,
		tag_asof       DATETIME(6),
		PRIMARY KEY (batch_key, ordinal)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin`,
	`CREATE INDEX idx_tag_attr_lookup ON tag_attr (tenant_pk, attr_name, attr_type)`,
	`CREATE INDEX idx_object_tenant_type ON object (tenant_pk, object_type)`,
}

// sqlserverDDL pins binary collation on compared text columns: the server
// default collations are case insensitive.
var sqlserverDDL = []string{
	`CREATE TABLE tenant (
		tenant_pk   BIGINT IDENTITY(1,1) PRIMARY KEY,
		tenant_code NVARCHAR(64) COLLATE Latin1_General_BIN2 NOT NULL UNIQUE,
		description NVARCHAR(4000)
	)`,
	`CREATE TABLE object (
		object_pk    BIGINT IDENTITY(1,1) PRIMARY KEY,
		tenant_pk    BIGINT NOT NULL REFERENCES tenant (tenant_pk),
		object_type  SMALLINT NOT NULL,
		object_id_hi BIGINT NOT NULL,
		object_id_lo BIGINT NOT NULL,
		CONSTRAINT uq_object_identity UNIQUE (tenant_pk, object_id_hi, object_id_lo)
	)`,
	`CREATE TABLE object_definition (
		version_pk       BIGINT IDENTITY(1,1) PRIMARY KEY,
		object_pk        BIGINT NOT NULL REFERENCES object (object_pk),
		object_version   INT NOT NULL,
		object_timestamp DATETIME2(6) NOT NULL,
		object_ts_offset INT NOT NULL DEFAULT 0,
		payload          VARBINARY(MAX) NOT NULL,
		CONSTRAINT uq_object_definition_version UNIQUE (object_pk, object_version)
	)`,
	`CREATE TABLE tag (
		tag_pk        BIGINT IDENTITY(1,1) PRIMARY KEY,
		version_pk    BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tag_version   INT NOT NULL,
		tag_timestamp DATETIME2(6) NOT NULL,
		tag_ts_offset INT NOT NULL DEFAULT 0,
		CONSTRAINT uq_tag_version UNIQUE (version_pk, tag_version)
	)`,
	`CREATE TABLE tag_attr (
		tag_pk            BIGINT NOT NULL REFERENCES tag (tag_pk),
		tenant_pk         BIGINT NOT NULL,
		attr_name         NVARCHAR(256) COLLATE Latin1_General_BIN2 NOT NULL,
		attr_index        INT NOT NULL,
		attr_type         SMALLINT NOT NULL,
		v_bool            BIT,
		v_int             BIGINT,
		v_float           FLOAT,
		v_decimal         NVARCHAR(128) COLLATE Latin1_General_BIN2,
		v_str             NVARCHAR(1024) COLLATE Latin1_General_BIN2,
		v_date            NVARCHAR(32) COLLATE Latin1_General_BIN2,
		v_datetime        DATETIME2(6),
		v_datetime_offset INT,
		CONSTRAINT pk_tag_attr PRIMARY KEY (tag_pk, attr_name, attr_index)
	)`,
	`CREATE TABLE latest_version (
		object_pk  BIGINT PRIMARY KEY REFERENCES object (object_pk),
		version_pk BIGINT NOT NULL REFERENCES object_definition (version_pk),
		tenant_pk  BIGINT NOT NULL
	)`,
	`CREATE TABLE latest_tag (
		version_pk BIGINT PRIMARY KEY REFERENCES object_definition (version_pk),
		tag_pk     BIGINT NOT NULL REFERENCES tag (tag_pk)
	)`,
	`CREATE TABLE key_mapping (
		batch_key      BIGINT NOT NULL,
		ordinal        INT NOT NULL,
		object_type    SMALLINT,
		id_hi          BIGINT,
		id_lo          BIGINT,
		object_version INT,
		object_asof    DATETIME2(6),
		tag_version    INT,
		tag_asof       DATETIME2(6),
		CONSTRAINT pk_key_mapping PRIMARY KEY (batch_key, ordinal)
	)`,
	`CREATE INDEX idx_tag_attr_lookup ON tag_attr (tenant_pk, attr_name, attr_type)`,
	`CREATE INDEX idx_object_tenant_type ON object (tenant_pk, object_type)`,
	`CREATE INDEX idx_latest_version_version ON latest_version (version_pk)`,
	`CREATE INDEX idx_latest_tag_tag ON latest_tag (tag_pk)`,
}
