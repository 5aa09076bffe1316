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

	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines the single-record and bulk write operations of a
// persisted type. Writes report business results as a CrudResponse and
// engine failures as an error.
type CrudRepository[T any] interface {
	Get(ctx context.Context, id int64) (*T, error)

	GetSingle(ctx context.Context, filter *types.QueryFilter) (*T, error)

	List(ctx context.Context, filter *types.QueryFilter, relations ...string) ([]*T, error)

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	Save(ctx context.Context, item *T) (types.CrudResponse, error)

	SaveUnique(ctx context.Context, item *T, exists *types.QueryFilter) (types.CrudResponse, error)

	SaveAll(ctx context.Context, items []*T) (types.CrudResponse, error)

	Update(ctx context.Context, item *T) (types.CrudResponse, error)

	SaveOrUpdate(ctx context.Context, item *T) (types.CrudResponse, error)

	Delete(ctx context.Context, id int64) (types.CrudResponse, error)
}

// PageQueryRepository defines ordered, paginated reads.
type PageQueryRepository[T any] interface {
	GetAll(ctx context.Context, req *types.PageRequest, filter *types.QueryFilter, relations ...string) (*types.Pagination[T], error)

	GetAllWindow(ctx context.Context, pageNumber, pageSize int, orderKey string, ascending bool, filter *types.QueryFilter, relations ...string) ([]*T, int, error)
}

// QueryBuilder exposes Bun query builders for advanced use cases.
type QueryBuilder interface {
	Dialect() schema.Dialect
	NewSelect(filter *types.QueryFilter, relations ...string) *bun.SelectQuery
}

// Interface combines CRUD, pagination and query building for one persisted type.
type Interface[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	QueryBuilder
}
