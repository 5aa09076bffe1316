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

// Package testdb opens isolated in-memory sqlite databases for tests.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudkit/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

var sequence atomic.Int64

// DSN returns a shared-cache in-memory data source unique to the test.
func DSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, sequence.Add(1))
}

// Open returns a Bun DB over a fresh in-memory sqlite database with foreign
// keys enforced and the tables of models created. The database is closed when
// the test ends.
//
// The pool holds a single connection, so the in-memory database lives as long
// as the DB and transactions never wait on a second connection.
func Open(t *testing.T, models ...interface{}) *bun.DB {
	t.Helper()

	sqlDB, err := sql.Open(sqliteshim.ShimName, DSN(t))
	require.NoError(t, err, "Failed to open sqlite")
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	_, err = db.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	require.NoError(t, err, "Failed to enable foreign keys")

	err = database.NewMigrationManager(db, nil).WithModels(models...).RunMigrations(ctx)
	require.NoError(t, err, "Failed to create tables")
	return db
}

// Context returns a context bounded by TestTimeout and cancelled on cleanup.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}
