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
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// baseTablesVersion is the built-in migration that creates model tables.
const baseTablesVersion = "001"

// Migration is the record of an applied migration version.
type Migration struct {
	bun.BaseModel `bun:"table:crudkit_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// MigrationManager applies versioned migrations in version order and records
// each one in the crudkit_migrations table. Version 001 creates the tables of
// the known models; later versions are added with Add.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	models []interface{}
	extra  []MigrationItem
}

// NewMigrationManager constructs a MigrationManager over the models of the
// default registry.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, logger: logger}
}

// WithModels replaces the registered models with an explicit list.
func (mm *MigrationManager) WithModels(models ...interface{}) *MigrationManager {
	mm.models = append(make([]interface{}, 0, len(models)), models...)
	return mm
}

// Add appends migrations that run after the base tables exist.
func (mm *MigrationManager) Add(items ...MigrationItem) *MigrationManager {
	mm.extra = append(mm.extra, items...)
	return mm
}

func (mm *MigrationManager) modelInstances() []interface{} {
	if mm.models != nil {
		return mm.models
	}
	return RegisteredModelInstances()
}

func (mm *MigrationManager) migrations() []MigrationItem {
	items := make([]MigrationItem, 0, len(mm.extra)+1)
	items = append(items, MigrationItem{
		Version:     baseTablesVersion,
		Name:        "create_base_tables",
		Description: "Create the tables of the known models",
		Up:          mm.createTables,
	})
	items = append(items, mm.extra...)
	slices.SortStableFunc(items, func(a, b MigrationItem) int {
		return strings.Compare(a.Version, b.Version)
	})
	return items
}

// RunMigrations applies every pending migration. Models registered after
// version 001 was recorded still get their tables created.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return ErrNotConnected
	}
	EnableBunSqlSilent(true)
	defer EnableBunSqlSilent(false)

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	applied, err := mm.appliedVersions(ctx)
	if err != nil {
		return err
	}
	for _, item := range mm.migrations() {
		if applied[item.Version] {
			mm.logger.Debug("Migration already applied", "version", item.Version)
			continue
		}
		if err := mm.apply(ctx, item); err != nil {
			return fmt.Errorf("migration %s (%s): %w", item.Version, item.Name, err)
		}
	}
	if applied[baseTablesVersion] {
		return mm.createTables(ctx, mm.db)
	}
	return nil
}

func (mm *MigrationManager) appliedVersions(ctx context.Context) (map[string]bool, error) {
	var versions []string
	if err := mm.db.NewSelect().Model((*Migration)(nil)).Column("version").Scan(ctx, &versions); err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	set := make(map[string]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set, nil
}

func (mm *MigrationManager) apply(ctx context.Context, item MigrationItem) error {
	err := mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if item.Up != nil {
			if err := item.Up(ctx, tx); err != nil {
				return err
			}
		}
		record := &Migration{
			Version:     item.Version,
			Name:        item.Name,
			AppliedAt:   time.Now(),
			Description: item.Description,
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration applied", "version", item.Version, "name", item.Name)
	return nil
}

func (mm *MigrationManager) createTables(ctx context.Context, db bun.IDB) error {
	for _, m := range mm.modelInstances() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", m, err)
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		OrderExpr("version ASC").
		Scan(ctx)
	return migrations, err
}
