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
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

// ErrNotConnected is returned by operations that need an open connection.
var ErrNotConnected = errors.New("database not connected")

// defaultConnectTimeout bounds the initial ping when none is configured.
const defaultConnectTimeout = 30 * time.Second

type defaultDatabaseManager struct {
	config  *ConnectionConfig
	logger  Logger
	monitor *healthMonitor

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	connected bool
	lastError error
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, a sensible default configuration is used.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	dm := &defaultDatabaseManager{config: config, logger: GetLogger()}
	dm.monitor = newHealthMonitor(dm)
	return dm
}

// Connect opens the pool, verifies it with a ping and starts the health
// monitor when an interval is configured. Connecting twice is a no-op.
func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}

	db, err := dm.open()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	timeout := dm.config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		dm.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.db, dm.sqlDB = db, db.DB
	dm.connected, dm.lastError = true, nil
	dm.monitor.reset()
	if dm.config.HealthCheckInterval > 0 {
		dm.monitor.start(dm.config.HealthCheckInterval)
	}
	dm.logger.Info("Database connected successfully", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

func (dm *defaultDatabaseManager) open() (*bun.DB, error) {
	drv, err := driverFor(dm.config.Type)
	if err != nil {
		return nil, err
	}
	sqlDB, err := drv.open(dm.config)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)

	db := bun.NewDB(sqlDB, drv.dialect())
	for _, hook := range dm.queryHooks() {
		db.AddQueryHook(hook)
	}
	return db, nil
}

func (dm *defaultDatabaseManager) queryHooks() []bun.QueryHook {
	var hooks []bun.QueryHook
	if dm.config.EnableQueryLog {
		if dm.config.QueryLogStyle == QueryLogStyleBunDebug {
			hooks = append(hooks, bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		} else {
			hooks = append(hooks, NewQueryHook(os.Stdout, true))
		}
	}
	if dm.config.SlowQueryTime > 0 {
		hooks = append(hooks, NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	return hooks
}

// Disconnect stops the health monitor and closes the pool.
func (dm *defaultDatabaseManager) Disconnect() error {
	dm.monitor.stop()
	return dm.close()
}

func (dm *defaultDatabaseManager) close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db, dm.sqlDB, dm.connected = nil, nil, false
	if err != nil {
		dm.logger.Error("Failed to close database connection", "error", err)
		return err
	}
	dm.logger.Info("Database connection closed")
	return nil
}

// Reconnect replaces the pool; a running health monitor keeps running.
func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.logger.Info("Attempting to reconnect to the database")
	if err := dm.close(); err != nil {
		dm.logger.Warn("Error disconnecting existing connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

// HealthCheck pings the database and reports pool usage.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: dm.connected}
	if dm.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := dm.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	dm.lastError = err
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
	} else {
		status.Healthy, status.Connected = true, true
	}

	stats := dm.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

// RunMigrations creates the tables of the registered models.
func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return ErrNotConnected
	}
	return NewMigrationManager(db, dm.logger).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}
