// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package dbutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// sqliteDefaultParams are applied to every sqlite source unless the
// connection string overrides them. WAL with a generous busy timeout keeps
// concurrent readers from failing while a writer holds the database.
var sqliteDefaultParams = [][2]string{
	{"_journal", "WAL"},
	{"_busy_timeout", "10000"},
	{"_foreign_keys", "on"},
}

// SplitConnStr returns the driver and DSN portions of a database URL, along
// with the implementation it refers to.
func SplitConnStr(s string) (driver string, source string, implementation Implementation, err error) {
	parts := strings.SplitN(s, "://", 2)
	if len(parts) != 2 {
		return "", "", Unknown, fmt.Errorf("could not parse DB URL %s", s)
	}
	driver = parts[0]
	source = parts[1]
	implementation = ImplementationForScheme(parts[0])

	switch implementation {
	case SQLite:
		driver = "sqlite3"
		if !strings.HasPrefix(source, "file:") {
			source = "file:" + source
		}
		source = sqliteSourceDefaults(source)
	case Postgres:
		source = s // pgx wants full URLs for its DSN
		driver = "pgx"
	case Cockroach:
		// cockroach speaks the postgres wire protocol
		source = "postgres" + strings.TrimPrefix(s, "cockroach")
		driver = "pgx"
	case MySQL:
		driver = "mysql"
		source, err = mysqlSourceFromURL(s)
		if err != nil {
			return "", "", Unknown, err
		}
	case SQLServer:
		driver = "sqlserver"
		source = "sqlserver" + s[strings.Index(s, "://"):]
	default:
		return "", "", Unknown, fmt.Errorf("unsupported database scheme %q in %s", parts[0], s)
	}

	return driver, source, implementation, nil
}

func sqliteSourceDefaults(source string) string {
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	for _, param := range sqliteDefaultParams {
		if strings.Contains(source, param[0]+"=") {
			continue
		}
		source += sep + param[0] + "=" + param[1]
		sep = "&"
	}
	return source
}

// WithApplicationName stamps the application name onto sources for engines
// that report connections by name. Other engines pass through unchanged.
func WithApplicationName(source string, implementation Implementation, name string) (string, error) {
	if name == "" {
		return source, nil
	}
	switch implementation {
	case Postgres, Cockroach:
		u, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("could not parse DB URL %s: %w", source, err)
		}
		query := u.Query()
		if query.Get("application_name") == "" {
			query.Set("application_name", name)
			u.RawQuery = query.Encode()
		}
		return u.String(), nil
	default:
		return source, nil
	}
}

// mysqlSourceFromURL converts a mysql:// or mariadb:// URL into the DSN form
// the go-sql-driver expects. parseTime and loc are forced so that DATETIME
// columns scan into UTC time.Time values.
func mysqlSourceFromURL(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("could not parse DB URL %s: %w", s, err)
	}

	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Host, "3306")
	}

	userinfo := ""
	if u.User != nil {
		userinfo = u.User.Username()
		if password, ok := u.User.Password(); ok {
			userinfo += ":" + password
		}
	}

	query := u.Query()
	query.Set("parseTime", "true")
	query.Set("loc", "UTC")

	return fmt.Sprintf("%s@tcp(%s)/%s?%s",
		userinfo, host, strings.TrimPrefix(u.Path, "/"), query.Encode()), nil
}
