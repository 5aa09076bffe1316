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

package pagination

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tomoncle/crudkit/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Fetcher materializes the rows of an ordered, sliced query.
type Fetcher[T any] func(ctx context.Context, q *bun.SelectQuery) ([]*T, error)

// Scan returns a Fetcher that scans rows straight into T.
func Scan[T any]() Fetcher[T] {
	return func(ctx context.Context, q *bun.SelectQuery) ([]*T, error) {
		items := make([]*T, 0)
		if err := q.Scan(ctx, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func tableOf[P any](dialect schema.Dialect) *schema.Table {
	return dialect.Tables().Get(reflect.TypeFor[P]())
}

// PrimaryKey returns the identity column of P.
func PrimaryKey[P any](dialect schema.Dialect) (string, error) {
	table := tableOf[P](dialect)
	if len(table.PKs) == 0 {
		return "", fmt.Errorf("%s has no primary key", table.TypeName)
	}
	return table.PKs[0].Name, nil
}

// ResolveOrder maps an ordering key onto a column of P. A blank key resolves
// to the identity column; otherwise the key must match a column name or a Go
// field name, ignoring case.
func ResolveOrder[P any](dialect schema.Dialect, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return PrimaryKey[P](dialect)
	}
	table := tableOf[P](dialect)
	for _, field := range table.Fields {
		if strings.EqualFold(field.Name, key) || strings.EqualFold(field.GoName, key) {
			return field.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a field of %s", types.ErrInvalidOrderKey, key, table.TypeName)
}

// OrderByIdentity orders q by the identity column of P, ascending.
func OrderByIdentity[P any](q *bun.SelectQuery) (*bun.SelectQuery, error) {
	pk, err := PrimaryKey[P](q.Dialect())
	if err != nil {
		return nil, err
	}
	return q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk)), nil
}

func order[P any](q *bun.SelectQuery, key string, ascending bool) (*bun.SelectQuery, error) {
	column, err := ResolveOrder[P](q.Dialect(), key)
	if err != nil {
		return nil, err
	}
	pk, err := PrimaryKey[P](q.Dialect())
	if err != nil {
		return nil, err
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	q = q.OrderExpr("?TableAlias.? ?", bun.Ident(column), bun.Safe(direction))
	if column != pk {
		// ties on the ordering key fall back to identity order
		q = q.OrderExpr("?TableAlias.? ASC", bun.Ident(pk))
	}
	return q, nil
}

// Paginate counts the filtered candidates of q, orders them and fetches the
// requested page. P is the persisted type the ordering key is resolved
// against; T is whatever the fetcher produces.
//
// A page past the last one yields no items, while Total and TotalPages still
// describe the whole candidate set.
func Paginate[P, T any](ctx context.Context, q *bun.SelectQuery, req *types.PageRequest, fetch Fetcher[T]) (*types.Pagination[T], error) {
	if req == nil {
		req = types.NewDefaultPageRequest(1, types.DefaultPageSize)
	}
	if filter := req.GetFilter(); filter != nil {
		q = q.Where(filter.Schema, filter.Args...)
	}

	q, err := order[P](q, req.GetOrderBy(), req.IsAscending())
	if err != nil {
		return nil, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}
	result := types.NewPagination[T](req, total)
	if req.GetPage() > result.TotalPages {
		return result, nil
	}

	items, err := fetch(ctx, q.Offset(req.GetOffset()).Limit(req.GetPageSize()))
	if err != nil {
		return nil, fmt.Errorf("fetch page failed: %w", err)
	}
	result.Items = items
	return result, nil
}

// Window is Paginate returning the page slice with the total as a side output.
func Window[P, T any](ctx context.Context, q *bun.SelectQuery, pageNumber, pageSize int, orderKey string, ascending bool, fetch Fetcher[T]) ([]*T, int, error) {
	result, err := Paginate[P](ctx, q, types.NewPageRequest(pageNumber, pageSize, orderKey, ascending), fetch)
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}
