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
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// And joins two filters with AND. A nil side is ignored.
func (f *QueryFilter) And(other *QueryFilter) *QueryFilter {
	switch {
	case f == nil:
		return other
	case other == nil:
		return f
	}
	args := make([]interface{}, 0, len(f.Args)+len(other.Args))
	args = append(args, f.Args...)
	args = append(args, other.Args...)
	return &QueryFilter{
		Schema: "(" + f.Schema + ") AND (" + other.Schema + ")",
		Args:   args,
	}
}

// PageRequest describes pagination, optional filter, and ordering.
type PageRequest struct {
	page      int
	pageSize  int
	orderBy   string
	ascending bool
	filter    *QueryFilter
}

// GetPageSize returns the page size clamped to [1, MaxPageSize].
func (p *PageRequest) GetPageSize() int {
	switch {
	case p.pageSize < 1:
		return DefaultPageSize
	case p.pageSize > MaxPageSize:
		return MaxPageSize
	}
	return p.pageSize
}

// GetPage returns the 1-based page number; values below 1 read as 1.
func (p *PageRequest) GetPage() int {
	return max(p.page, 1)
}

// GetOffset returns the number of rows preceding the page. It saturates at
// math.MaxInt instead of wrapping for huge page numbers.
func (p *PageRequest) GetOffset() int {
	page, size := p.GetPage()-1, p.GetPageSize()
	if page > math.MaxInt/size {
		return math.MaxInt
	}
	return page * size
}

// GetOrderBy returns the trimmed ordering key; empty means the identity field.
func (p *PageRequest) GetOrderBy() string {
	return strings.TrimSpace(p.orderBy)
}

func (p *PageRequest) IsAscending() bool {
	return p.ascending
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

// WithFilter returns the request narrowed by filter.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	p.filter = p.filter.And(filter)
	return p
}

// NewPageRequest constructs a PageRequest ordered by orderBy.
func NewPageRequest(page int, pageSize int, orderBy string, ascending bool) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, orderBy: orderBy, ascending: ascending}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter and identity ordering.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, ascending: true, filter: filter}
}

// NewDefaultPageRequest constructs an ascending PageRequest with no filter or ordering key.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, "", true)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	OrderBy    string `json:"order_by"`
	Ascending  bool   `json:"ascending"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Items      []*T   `json:"items"`
}

// NewPagination constructs an empty pagination container echoing the request.
func NewPagination[T any](req *PageRequest, total int) *Pagination[T] {
	size := req.GetPageSize()
	return &Pagination[T]{
		Page:       req.GetPage(),
		PageSize:   size,
		OrderBy:    req.GetOrderBy(),
		Ascending:  req.IsAscending(),
		Total:      total,
		TotalPages: TotalPages(total, size),
		Items:      make([]*T, 0),
	}
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// HasNext reports whether a page follows the current one.
func (p *Pagination[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// HasPrevious reports whether a page precedes the current one.
func (p *Pagination[T]) HasPrevious() bool {
	return p.Page > 1 && p.TotalPages > 0
}
