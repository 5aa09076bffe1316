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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/model"
	"github.com/tomoncle/crudkit/pagination"
	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type options struct {
	now    func() time.Time
	logger database.Logger
}

// Option configures a Repository.
type Option func(*options)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger; the database logger is used by default.
func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Repository implements Interface for the persisted type T.
type Repository[T any, PT model.Record[T]] struct {
	db     bun.IDB
	caps   model.Capabilities
	now    func() time.Time
	logger database.Logger
}

// NewRepository returns a generic repository over db, which may be a *bun.DB
// or a bun.Tx. Timestamp capabilities of T are detected here, once.
func NewRepository[T any, PT model.Record[T]](db bun.IDB, opts ...Option) *Repository[T, PT] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = database.GetLogger()
	}
	return &Repository[T, PT]{
		db:     db,
		caps:   model.CapabilitiesOf[T](),
		now:    o.now,
		logger: o.logger,
	}
}

// WithTx returns a copy of the repository bound to tx. Writes then run in
// savepoints of tx instead of their own transactions.
func (r *Repository[T, PT]) WithTx(tx bun.Tx) *Repository[T, PT] {
	c := *r
	c.db = tx
	return &c
}

// Capabilities reports the timestamp capabilities detected for T.
func (r *Repository[T, PT]) Capabilities() model.Capabilities { return r.caps }

// Dialect returns the dialect of the bound database.
func (r *Repository[T, PT]) Dialect() schema.Dialect { return r.db.Dialect() }

// NewSelect returns a select over T narrowed by filter, with relations passed
// to Bun unchanged.
func (r *Repository[T, PT]) NewSelect(filter *types.QueryFilter, relations ...string) *bun.SelectQuery {
	return r.selectInto((*T)(nil), filter, relations)
}

func (r *Repository[T, PT]) selectInto(dest any, filter *types.QueryFilter, relations []string) *bun.SelectQuery {
	return scoped(r.db.NewSelect().Model(dest), filter, relations)
}

func scoped(q *bun.SelectQuery, filter *types.QueryFilter, relations []string) *bun.SelectQuery {
	if filter != nil {
		q = q.Where(filter.Schema, filter.Args...)
	}
	for _, relation := range relations {
		q = q.Relation(relation)
	}
	return q
}

// GetAll returns the page of records described by req, narrowed by filter.
func (r *Repository[T, PT]) GetAll(ctx context.Context, req *types.PageRequest, filter *types.QueryFilter, relations ...string) (*types.Pagination[T], error) {
	items := make([]*T, 0)
	q := r.selectInto(&items, filter, relations)
	return pagination.Paginate[T](ctx, q, req, func(ctx context.Context, q *bun.SelectQuery) ([]*T, error) {
		if err := q.Scan(ctx); err != nil {
			return nil, err
		}
		return items, nil
	})
}

// GetAllWindow returns one page of records and the total number of matches.
func (r *Repository[T, PT]) GetAllWindow(ctx context.Context, pageNumber, pageSize int, orderKey string, ascending bool, filter *types.QueryFilter, relations ...string) ([]*T, int, error) {
	result, err := r.GetAll(ctx, types.NewPageRequest(pageNumber, pageSize, orderKey, ascending), filter, relations...)
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// Get returns the record with the given identity, or nil when there is none.
func (r *Repository[T, PT]) Get(ctx context.Context, id int64) (*T, error) {
	item, err := r.load(ctx, r.db, id)
	if err != nil || item == nil {
		return nil, err
	}
	return (*T)(item), nil
}

func (r *Repository[T, PT]) load(ctx context.Context, db bun.IDB, id int64) (PT, error) {
	item := PT(new(T))
	item.SetID(id)
	err := db.NewSelect().Model(item).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %T %d: %w", item, id, err)
	}
	return item, nil
}

// GetSingle returns the first record matching filter in identity order. A nil
// filter matches nothing.
func (r *Repository[T, PT]) GetSingle(ctx context.Context, filter *types.QueryFilter) (*T, error) {
	if filter == nil {
		return nil, nil
	}
	item, err := r.first(ctx, r.db, filter)
	if err != nil || item == nil {
		return nil, err
	}
	return (*T)(item), nil
}

func (r *Repository[T, PT]) first(ctx context.Context, db bun.IDB, filter *types.QueryFilter) (PT, error) {
	item := PT(new(T))
	q, err := pagination.OrderByIdentity[T](scoped(db.NewSelect().Model(item), filter, nil))
	if err != nil {
		return nil, err
	}
	err = q.Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns every record matching filter in identity order.
func (r *Repository[T, PT]) List(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error) {
	items := make([]*T, 0)
	q, err := pagination.OrderByIdentity[T](r.selectInto(&items, filter, relations))
	if err != nil {
		return nil, err
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of records matching filter.
func (r *Repository[T, PT]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	return r.NewSelect(filter).Count(ctx)
}

// SaveUnique inserts item unless a record matching exists is already
// stored. On a match item takes the stored identity and the outcome is
// DuplicateEntryError.
func (r *Repository[T, PT]) SaveUnique(ctx context.Context, item *T, exists *types.QueryFilter) (types.CrudResponse, error) {
	if item == nil {
		return types.NewCrudResponse(types.Error), nil
	}
	record := PT(item)
	outcome := types.NewCrudResponse(types.Success)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if exists != nil {
			match, err := r.first(ctx, tx, exists)
			if err != nil {
				return err
			}
			if match != nil {
				record.SetID(match.GetID())
				outcome = types.NewCrudResponse(types.DuplicateEntryError)
				r.logger.Debug("Duplicate entry detected", "type", fmt.Sprintf("%T", item), "id", match.GetID())
				return nil
			}
		}
		return r.insert(ctx, tx, record)
	})
	if err != nil {
		return types.NewCrudResponse(types.Error), fmt.Errorf("failed to save %T: %w", item, err)
	}
	return outcome, nil
}

// Save inserts item without a duplicate check.
func (r *Repository[T, PT]) Save(ctx context.Context, item *T) (types.CrudResponse, error) {
	return r.SaveUnique(ctx, item, nil)
}

func (r *Repository[T, PT]) insert(ctx context.Context, db bun.IDB, record PT) error {
	r.caps.Stamp(record, r.now())
	_, err := db.NewInsert().Model(record).Exec(ctx)
	return err
}

// SaveAll inserts items as one batch; either all of them are stored or none.
func (r *Repository[T, PT]) SaveAll(ctx context.Context, items []*T) (types.CrudResponse, error) {
	if len(items) == 0 {
		return types.NewCrudResponse(types.Success), nil
	}
	if slices.Contains(items, nil) {
		return types.NewCrudResponse(types.Error), nil
	}
	now := r.now()
	for _, item := range items {
		r.caps.Stamp(PT(item), now)
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&items).Exec(ctx)
		return err
	})
	if err != nil {
		return types.NewCrudResponse(types.Error), fmt.Errorf("failed to save %d records: %w", len(items), err)
	}
	return types.NewCrudResponse(types.Success), nil
}

// Update merges item into the stored record with the same identity. The
// stored creation timestamp always wins over the one carried by item, and the
// update timestamp is set to the current time.
func (r *Repository[T, PT]) Update(ctx context.Context, item *T) (types.CrudResponse, error) {
	record := PT(item)
	if item == nil || record.GetID() <= 0 {
		return types.NewCrudResponse(types.Error), nil
	}
	outcome := types.NewCrudResponse(types.Success)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stored, err := r.load(ctx, tx, record.GetID())
		if err != nil {
			return err
		}
		if stored == nil {
			outcome = types.NewCrudResponse(types.ItemNotFoundError)
			r.logger.Debug("Update target not found", "type", fmt.Sprintf("%T", item), "id", record.GetID())
			return nil
		}

		q := tx.NewUpdate().Model(record).WherePK()
		if r.caps.CreationTimestamp {
			any(record).(model.CreationTimestamped).SetCreatedAt(any(stored).(model.CreationTimestamped).GetCreatedAt())
			q = q.ExcludeColumn(r.caps.CreatedAtColumn)
		}
		if r.caps.UpdateTimestamp {
			any(record).(model.UpdateTimestamped).SetUpdatedAt(r.now())
		}
		if _, err := q.Exec(ctx); err != nil {
			return err
		}
		record.SetID(stored.GetID())
		return nil
	})
	if err != nil {
		return types.NewCrudResponse(types.Error), fmt.Errorf("failed to update %T %d: %w", item, record.GetID(), err)
	}
	return outcome, nil
}

// SaveOrUpdate inserts items that were never persisted and merges the others.
func (r *Repository[T, PT]) SaveOrUpdate(ctx context.Context, item *T) (types.CrudResponse, error) {
	if item != nil && PT(item).GetID() <= 0 {
		return r.Save(ctx, item)
	}
	return r.Update(ctx, item)
}

// Delete removes the record with the given identity. Constraint violations
// are returned as errors; see database.Outcome for mapping them.
func (r *Repository[T, PT]) Delete(ctx context.Context, id int64) (types.CrudResponse, error) {
	outcome := types.NewCrudResponse(types.Success)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		stored, err := r.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if stored == nil {
			outcome = types.NewCrudResponse(types.ItemNotFoundError)
			r.logger.Debug("Delete target not found", "type", fmt.Sprintf("%T", (*T)(nil)), "id", id)
			return nil
		}
		_, err = tx.NewDelete().Model(stored).WherePK().Exec(ctx)
		return err
	})
	if err != nil {
		return types.NewCrudResponse(types.Error), fmt.Errorf("failed to delete %d: %w", id, err)
	}
	return outcome, nil
}
