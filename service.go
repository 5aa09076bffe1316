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

package crudkit

import (
	"context"
	"sync"

	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/mapper"
	"github.com/tomoncle/crudkit/model"
	"github.com/tomoncle/crudkit/pagination"
	"github.com/tomoncle/crudkit/repository"
	"github.com/tomoncle/crudkit/types"
)

// Service exposes the repository of a persisted type P in terms of the
// transfer type D. The pair must have been declared with mapper.Declare.
type Service[D any, P any, PD model.Record[D], PP model.Record[P]] struct {
	repo repository.Interface[P]
	once sync.Once
}

// NewService returns a Service whose repository is bound to the global
// database on first use.
func NewService[D any, P any, PD model.Record[D], PP model.Record[P]]() *Service[D, P, PD, PP] {
	return &Service[D, P, PD, PP]{}
}

// NewServiceWithRepository returns a Service over repo.
func NewServiceWithRepository[D any, P any, PD model.Record[D], PP model.Record[P]](repo repository.Interface[P]) *Service[D, P, PD, PP] {
	return &Service[D, P, PD, PP]{repo: repo}
}

func (s *Service[D, P, PD, PP]) baseRepo() (repository.Interface[P], error) {
	s.once.Do(func() {
		if s.repo != nil {
			return
		}
		if db := database.GetDB(); db != nil {
			s.repo = repository.NewRepository[P, PP](db)
		}
	})
	if s.repo == nil {
		return nil, database.ErrNotConnected
	}
	return s.repo, nil
}

func (s *Service[D, P, PD, PP]) prepare() (repository.Interface[P], *mapper.Correspondence[D, P], error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, nil, err
	}
	c, err := mapper.For[D, P]()
	if err != nil {
		return nil, nil, err
	}
	return repo, c, nil
}

// Get returns the transfer form of the record with the given identity, or nil.
func (s *Service[D, P, PD, PP]) Get(ctx context.Context, id int64) (*D, error) {
	repo, c, err := s.prepare()
	if err != nil {
		return nil, err
	}
	item, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ToTransfer(item), nil
}

// GetSingle returns the first record matching filter, or nil. A nil filter
// matches nothing.
func (s *Service[D, P, PD, PP]) GetSingle(ctx context.Context, filter *types.QueryFilter) (*D, error) {
	if filter == nil {
		return nil, nil
	}
	repo, c, err := s.prepare()
	if err != nil {
		return nil, err
	}
	q, err := pagination.OrderByIdentity[P](repo.NewSelect(filter))
	if err != nil {
		return nil, err
	}
	for d, err := range c.Stream(ctx, q.Limit(1)) {
		return d, err
	}
	return nil, nil
}

// GetAll returns a page of transfer records projected straight from the query.
func (s *Service[D, P, PD, PP]) GetAll(ctx context.Context, req *types.PageRequest) (*types.Pagination[D], error) {
	repo, c, err := s.prepare()
	if err != nil {
		return nil, err
	}
	return pagination.Paginate[P](ctx, repo.NewSelect(nil), req, c.Fetcher())
}

// GetAllPage is GetAll returning the page slice and the total count.
func (s *Service[D, P, PD, PP]) GetAllPage(ctx context.Context, pageNumber, pageSize int, orderKey string, ascending bool, filter *types.QueryFilter) ([]*D, int, error) {
	repo, c, err := s.prepare()
	if err != nil {
		return nil, 0, err
	}
	return pagination.Window[P](ctx, repo.NewSelect(filter), pageNumber, pageSize, orderKey, ascending, c.Fetcher())
}

// List returns every transfer record matching filter in identity order.
func (s *Service[D, P, PD, PP]) List(ctx context.Context, filter *types.QueryFilter) ([]*D, error) {
	repo, c, err := s.prepare()
	if err != nil {
		return nil, err
	}
	q, err := pagination.OrderByIdentity[P](repo.NewSelect(filter))
	if err != nil {
		return nil, err
	}
	return c.Project(ctx, q)
}

func (s *Service[D, P, PD, PP]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.Count(ctx, filter)
}

// write translates item, runs op on the persisted copy and copies the
// resulting identity back onto item.
func (s *Service[D, P, PD, PP]) write(item *D, op func(repo repository.Interface[P], record *P) (types.CrudResponse, error)) (types.CrudResponse, error) {
	repo, c, err := s.prepare()
	if err != nil {
		return types.NewCrudResponse(types.Error), err
	}
	if item == nil {
		return types.NewCrudResponse(types.Error), nil
	}
	record := c.ToPersisted(item)
	resp, err := op(repo, record)
	PD(item).SetID(PP(record).GetID())
	return resp, err
}

func (s *Service[D, P, PD, PP]) Save(ctx context.Context, item *D) (types.CrudResponse, error) {
	return s.write(item, func(repo repository.Interface[P], record *P) (types.CrudResponse, error) {
		return repo.Save(ctx, record)
	})
}

// SaveUnique saves item unless a record matching exists is stored, in which
// case item receives that record's identity.
func (s *Service[D, P, PD, PP]) SaveUnique(ctx context.Context, item *D, exists *types.QueryFilter) (types.CrudResponse, error) {
	return s.write(item, func(repo repository.Interface[P], record *P) (types.CrudResponse, error) {
		return repo.SaveUnique(ctx, record, exists)
	})
}

func (s *Service[D, P, PD, PP]) Update(ctx context.Context, item *D) (types.CrudResponse, error) {
	return s.write(item, func(repo repository.Interface[P], record *P) (types.CrudResponse, error) {
		return repo.Update(ctx, record)
	})
}

func (s *Service[D, P, PD, PP]) SaveOrUpdate(ctx context.Context, item *D) (types.CrudResponse, error) {
	return s.write(item, func(repo repository.Interface[P], record *P) (types.CrudResponse, error) {
		return repo.SaveOrUpdate(ctx, record)
	})
}

// SaveAll saves items in one batch and copies every assigned identity back.
func (s *Service[D, P, PD, PP]) SaveAll(ctx context.Context, items []*D) (types.CrudResponse, error) {
	repo, c, err := s.prepare()
	if err != nil {
		return types.NewCrudResponse(types.Error), err
	}
	records := make([]*P, len(items))
	for i, item := range items {
		if item == nil {
			return types.NewCrudResponse(types.Error), nil
		}
		records[i] = c.ToPersisted(item)
	}
	resp, err := repo.SaveAll(ctx, records)
	for i, record := range records {
		PD(items[i]).SetID(PP(record).GetID())
	}
	return resp, err
}

// Delete removes the record with the given identity.
func (s *Service[D, P, PD, PP]) Delete(ctx context.Context, id int64) (types.CrudResponse, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return types.NewCrudResponse(types.Error), err
	}
	return repo.Delete(ctx, id)
}
