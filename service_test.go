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

package crudkit_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudkit"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/internal/testdb"
	"github.com/tomoncle/crudkit/mapper"
	"github.com/tomoncle/crudkit/model"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
)

type product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	model.Base
	SKU   string `bun:"sku,notnull,unique"`
	Name  string `bun:"name"`
	Price int64  `bun:"price"`
	Notes string `bun:"notes"`
	model.Timestamps
}

type productDTO struct {
	ID        int64     `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *productDTO) GetID() int64 { return d.ID }

func (d *productDTO) SetID(id int64) { d.ID = id }

func init() {
	mapper.Declare[productDTO, product](
		mapper.Field("SKU", func(d *productDTO) *string { return &d.SKU }, func(p *product) *string { return &p.SKU }),
		mapper.Field("Name", func(d *productDTO) *string { return &d.Name }, func(p *product) *string { return &p.Name }),
		mapper.Converted("Price",
			func(d *productDTO) *string { return &d.Price },
			func(p *product) *int64 { return &p.Price },
			func(cents int64) string { return fmt.Sprintf("%d.%02d", cents/100, cents%100) },
			nil,
		),
		mapper.ToTransferOnly("CreatedAt", func(d *productDTO) *time.Time { return &d.CreatedAt }, func(p *product) *time.Time { return &p.CreatedAt }),
	)
}

type productService = crudkit.Service[productDTO, product, *productDTO, *product]

func newService(t *testing.T) (*productService, *repository.Repository[product, *product]) {
	t.Helper()
	db := testdb.Open(t, (*product)(nil))
	repo := repository.NewRepository[product](db)
	return crudkit.NewServiceWithRepository[productDTO, product](repo), repo
}

func bySKU(sku string) *types.QueryFilter {
	return types.NewQueryFilter("?TableAlias.sku = ?", sku)
}

func TestServiceSaveCopiesIdentity(t *testing.T) {
	svc, repo := newService(t)
	ctx := testdb.Context(t)

	dto := &productDTO{SKU: "A-1", Name: "Anvil"}
	resp, err := svc.Save(ctx, dto)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	require.NotZero(t, dto.ID)

	stored, err := repo.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anvil", stored.Name)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := svc.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "A-1", got.SKU)
	assert.Equal(t, "0.00", got.Price)

	missing, err := svc.Get(ctx, dto.ID+1)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestServiceSaveUnique(t *testing.T) {
	svc, _ := newService(t)
	ctx := testdb.Context(t)

	first := &productDTO{SKU: "X", Name: "first"}
	resp, err := svc.SaveUnique(ctx, first, bySKU("X"))
	require.NoError(t, err)
	assert.Equal(t, types.Success, resp.MessageKey())
	assert.Equal(t, int64(1), first.ID)

	second := &productDTO{SKU: "X", Name: "second"}
	resp, err = svc.SaveUnique(ctx, second, bySKU("X"))
	require.NoError(t, err)
	assert.Equal(t, types.DuplicateEntryError, resp.MessageKey())
	assert.Equal(t, int64(1), second.ID)

	count, err := svc.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestServiceUpdateKeepsCreation(t *testing.T) {
	svc, repo := newService(t)
	ctx := testdb.Context(t)

	dto := &productDTO{SKU: "U-1", Name: "before"}
	_, err := svc.Save(ctx, dto)
	require.NoError(t, err)
	before, err := repo.Get(ctx, dto.ID)
	require.NoError(t, err)

	dto.Name = "after"
	resp, err := svc.Update(ctx, dto)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())

	after, err := repo.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", after.Name)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))

	resp, err = svc.Update(ctx, &productDTO{SKU: "none"})
	require.NoError(t, err)
	assert.Equal(t, types.Error, resp.MessageKey())

	resp, err = svc.SaveOrUpdate(ctx, &productDTO{SKU: "U-2"})
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
}

func TestServiceReads(t *testing.T) {
	svc, _ := newService(t)
	ctx := testdb.Context(t)

	batch := make([]*productDTO, 25)
	for i := range batch {
		batch[i] = &productDTO{SKU: fmt.Sprintf("S-%02d", 25-i), Name: fmt.Sprintf("n%02d", 25-i)}
	}
	resp, err := svc.SaveAll(ctx, batch)
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	for _, dto := range batch {
		require.NotZero(t, dto.ID)
	}

	page, err := svc.GetAll(ctx, types.NewPageRequest(3, 10, "Name", true))
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "n21", page.Items[0].Name)
	assert.False(t, page.Items[0].CreatedAt.IsZero())

	items, total, err := svc.GetAllPage(ctx, 1, 3, "sku", false, types.NewQueryFilter("?TableAlias.sku LIKE ?", "S-1%"))
	require.NoError(t, err)
	assert.Equal(t, 10, total)
	require.Len(t, items, 3)
	assert.Equal(t, "S-19", items[0].SKU)

	_, _, err = svc.GetAllPage(ctx, 1, 3, "color", true, nil)
	assert.ErrorIs(t, err, types.ErrInvalidOrderKey)

	listed, err := svc.List(ctx, types.NewQueryFilter("?TableAlias.sku IN (?)", bun.In([]string{"S-01", "S-02"})))
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Less(t, listed[0].ID, listed[1].ID)

	single, err := svc.GetSingle(ctx, bySKU("S-07"))
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "n07", single.Name)

	none, err := svc.GetSingle(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	resp, err = svc.Delete(ctx, single.ID)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	resp, err = svc.Delete(ctx, single.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ItemNotFoundError, resp.MessageKey())
}

type orphanDTO struct{ ID int64 }

func (d *orphanDTO) GetID() int64 { return d.ID }

func (d *orphanDTO) SetID(id int64) { d.ID = id }

func TestServiceUndeclaredPair(t *testing.T) {
	db := testdb.Open(t, (*product)(nil))
	svc := crudkit.NewServiceWithRepository[orphanDTO, product](repository.NewRepository[product](db))

	_, err := svc.List(testdb.Context(t), nil)
	assert.ErrorIs(t, err, mapper.ErrUndeclared)
}

func TestNewServiceUsesGlobalDatabase(t *testing.T) {
	require.NoError(t, database.CloseDB())
	ctx := testdb.Context(t)

	unbound := crudkit.NewService[productDTO, product]()
	_, err := unbound.Count(ctx, nil)
	assert.ErrorIs(t, err, database.ErrNotConnected)

	database.ResetRegisteredModels()
	t.Cleanup(database.ResetRegisteredModels)
	database.RegisterModelFor[product](0)

	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = filepath.Join(t.TempDir(), "service.db")
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.MigrateConfig.EnableMigrateOnStartup = true
	_, err = database.InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	svc := crudkit.NewService[productDTO, product]()
	dto := &productDTO{SKU: "G-1"}
	resp, err := svc.Save(ctx, dto)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.NotZero(t, dto.ID)
}
