/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

// driver knows how to open a database/sql pool for one database type and
// which Bun dialect speaks to it.
type driver struct {
	name    string
	dsn     func(cfg *ConnectionConfig) string
	dialect func() schema.Dialect
}

var drivers = map[string]driver{
	"mysql": {
		name:    "mysql",
		dsn:     mysqlDSN,
		dialect: func() schema.Dialect { return mysqldialect.New() },
	},
	"postgres": {
		name:    "postgres",
		dsn:     postgresDSN,
		dialect: func() schema.Dialect { return pgdialect.New() },
	},
	"sqlite": {
		name:    sqliteshim.ShimName,
		dsn:     func(cfg *ConnectionConfig) string { return SQLiteDSN(cfg.DBName) },
		dialect: func() schema.Dialect { return sqlitedialect.New() },
	},
}

// driverFor resolves a configured type, accepting the usual aliases.
func driverFor(typ string) (driver, error) {
	switch t := strings.ToLower(strings.TrimSpace(typ)); t {
	case "postgresql":
		return drivers["postgres"], nil
	case "sqlite3":
		return drivers["sqlite"], nil
	default:
		if d, ok := drivers[t]; ok {
			return d, nil
		}
	}
	return driver{}, fmt.Errorf("unsupported database type: %s", typ)
}

func (d driver) open(cfg *ConnectionConfig) (*sql.DB, error) {
	return sql.Open(d.name, d.dsn(cfg))
}

func mysqlDSN(cfg *ConnectionConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

func postgresDSN(cfg *ConnectionConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	query := url.Values{}
	query.Set("sslmode", sslMode)
	if cfg.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// SQLiteDSN maps a database name to a sqlite data source; ":memory:" opens a
// shared in-memory database.
func SQLiteDSN(name string) string {
	switch {
	case name == ":memory:":
		return "file::memory:?cache=shared"
	case strings.HasPrefix(name, "file:"), strings.HasSuffix(name, ".db"):
		return name
	default:
		return name + ".db"
	}
}
