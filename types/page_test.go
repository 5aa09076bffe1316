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

package types

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalization(t *testing.T) {
	req := NewPageRequest(0, 0, "  name ", false)
	assert.Equal(t, 1, req.GetPage())
	assert.Equal(t, DefaultPageSize, req.GetPageSize())
	assert.Equal(t, 0, req.GetOffset())
	assert.Equal(t, "name", req.GetOrderBy())
	assert.False(t, req.IsAscending())

	req = NewPageRequest(-3, MaxPageSize+1, "", true)
	assert.Equal(t, 1, req.GetPage())
	assert.Equal(t, MaxPageSize, req.GetPageSize())

	req = NewDefaultPageRequest(3, 10)
	assert.Equal(t, 20, req.GetOffset())
	assert.True(t, req.IsAscending())
	assert.Empty(t, req.GetOrderBy())
	assert.Nil(t, req.GetFilter())
}

func TestPageOffsetSaturates(t *testing.T) {
	assert.Equal(t, math.MaxInt, NewDefaultPageRequest(math.MaxInt, 10).GetOffset())
	assert.Equal(t, math.MaxInt, NewDefaultPageRequest(1844674407370955163, 10).GetOffset())
	assert.Equal(t, math.MaxInt, NewDefaultPageRequest(math.MaxInt, 1).GetOffset())

	page := math.MaxInt/MaxPageSize + 1
	assert.Equal(t, (page-1)*MaxPageSize, NewDefaultPageRequest(page, MaxPageSize).GetOffset())
}

func TestPageRequestGettersDoNotMutate(t *testing.T) {
	req := NewPageRequest(0, MaxPageSize+5, "", true)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 1, req.GetPage())
			assert.Equal(t, MaxPageSize, req.GetPageSize())
			assert.Equal(t, 0, req.GetOffset())
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, req.page)
	assert.Equal(t, MaxPageSize+5, req.pageSize)
}

func TestQueryFilterAnd(t *testing.T) {
	a := NewQueryFilter("name = ?", "x")
	b := NewQueryFilter("age > ?", 3)

	joined := a.And(b)
	assert.Equal(t, "(name = ?) AND (age > ?)", joined.Schema)
	assert.Equal(t, []interface{}{"x", 3}, joined.Args)

	var none *QueryFilter
	assert.Same(t, b, none.And(b))
	assert.Same(t, a, a.And(nil))

	req := NewPageRequestWithFilter(1, 5, a).WithFilter(b)
	assert.Equal(t, joined, req.GetFilter())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 3, TotalPages(25, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewPagination(t *testing.T) {
	type item struct{ ID int64 }

	p := NewPagination[item](NewPageRequest(3, 10, "Name", true), 25)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, "Name", p.OrderBy)
	assert.Equal(t, 25, p.Total)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrevious())

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"page":3,"page_size":10,"order_by":"Name","ascending":true,"total":25,"total_pages":3,"items":[]}`, string(data))

	empty := NewPagination[item](NewDefaultPageRequest(1, 10), 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrevious())
}
