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

package mapper

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"sync"

	"github.com/tomoncle/crudkit/model"
	"github.com/tomoncle/crudkit/pagination"
	"github.com/uptrace/bun"
)

// ErrUndeclared is returned when no correspondence was declared for a pair.
var ErrUndeclared = errors.New("mapper: correspondence not declared")

// IdentityBinding names the binding added for Identifiable pairs.
const IdentityBinding = "ID"

// Binding copies one member between a transfer type D and a persisted type P.
// A nil direction leaves the destination member at its zero value.
type Binding[D, P any] struct {
	name        string
	toTransfer  func(dst *D, src *P)
	toPersisted func(dst *P, src *D)
}

func (b Binding[D, P]) Name() string { return b.name }

// Field binds two members of the same type in both directions.
func Field[D, P, V any](name string, transfer func(*D) *V, persisted func(*P) *V) Binding[D, P] {
	return Binding[D, P]{
		name:        name,
		toTransfer:  func(dst *D, src *P) { *transfer(dst) = *persisted(src) },
		toPersisted: func(dst *P, src *D) { *persisted(dst) = *transfer(src) },
	}
}

// ToTransferOnly binds a member that is only copied from persisted to transfer.
func ToTransferOnly[D, P, V any](name string, transfer func(*D) *V, persisted func(*P) *V) Binding[D, P] {
	b := Field(name, transfer, persisted)
	b.toPersisted = nil
	return b
}

// ToPersistedOnly binds a member that is only copied from transfer to persisted.
func ToPersistedOnly[D, P, V any](name string, transfer func(*D) *V, persisted func(*P) *V) Binding[D, P] {
	b := Field(name, transfer, persisted)
	b.toTransfer = nil
	return b
}

// Converted binds two members of different types through conversion funcs.
// Either conversion may be nil to make the binding one-way.
func Converted[D, P, DV, PV any](name string, transfer func(*D) *DV, persisted func(*P) *PV, toTransfer func(PV) DV, toPersisted func(DV) PV) Binding[D, P] {
	b := Binding[D, P]{name: name}
	if toTransfer != nil {
		b.toTransfer = func(dst *D, src *P) { *transfer(dst) = toTransfer(*persisted(src)) }
	}
	if toPersisted != nil {
		b.toPersisted = func(dst *P, src *D) { *persisted(dst) = toPersisted(*transfer(src)) }
	}
	return b
}

// Correspondence is the built, read-only mapping between D and P.
type Correspondence[D, P any] struct {
	bindings []Binding[D, P]
}

// Fields lists the bound member names in declaration order.
func (c *Correspondence[D, P]) Fields() []string {
	names := make([]string, len(c.bindings))
	for i, b := range c.bindings {
		names[i] = b.name
	}
	return names
}

// ToTransfer returns a new D populated from p.
func (c *Correspondence[D, P]) ToTransfer(p *P) *D {
	if p == nil {
		return nil
	}
	d := new(D)
	for _, b := range c.bindings {
		if b.toTransfer != nil {
			b.toTransfer(d, p)
		}
	}
	return d
}

// ToPersisted returns a new P populated from d.
func (c *Correspondence[D, P]) ToPersisted(d *D) *P {
	if d == nil {
		return nil
	}
	p := new(P)
	for _, b := range c.bindings {
		if b.toPersisted != nil {
			b.toPersisted(p, d)
		}
	}
	return p
}

// Stream runs q and translates each row as it is scanned. Rows are scanned
// into P, so q must select P's columns; joined relations are not supported.
func (c *Correspondence[D, P]) Stream(ctx context.Context, q *bun.SelectQuery) iter.Seq2[*D, error] {
	return func(yield func(*D, error) bool) {
		rows, err := q.Rows(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		db := q.DB()
		for rows.Next() {
			p := new(P)
			if err := db.ScanRow(ctx, rows, p); err != nil {
				yield(nil, err)
				return
			}
			if !yield(c.ToTransfer(p), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Project collects Stream into a slice.
func (c *Correspondence[D, P]) Project(ctx context.Context, q *bun.SelectQuery) ([]*D, error) {
	items := make([]*D, 0)
	for d, err := range c.Stream(ctx, q) {
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, nil
}

// Fetcher adapts Project for the pagination engine.
func (c *Correspondence[D, P]) Fetcher() pagination.Fetcher[D] {
	return c.Project
}

type pairKey struct {
	transfer  reflect.Type
	persisted reflect.Type
}

func (k pairKey) String() string {
	return fmt.Sprintf("%s <-> %s", k.transfer, k.persisted)
}

func keyOf[D, P any]() pairKey {
	return pairKey{transfer: reflect.TypeFor[D](), persisted: reflect.TypeFor[P]()}
}

var declarations sync.Map // pairKey -> func() *Correspondence[D, P]

// Declare registers the bindings between D and P. The correspondence itself
// is built on first use. Declaring a pair twice, or a binding name twice,
// panics.
func Declare[D, P any](bindings ...Binding[D, P]) {
	key := keyOf[D, P]()
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if _, dup := seen[b.name]; dup {
			panic(fmt.Sprintf("mapper: binding %q declared twice for %s", b.name, key))
		}
		seen[b.name] = struct{}{}
	}

	declared := append([]Binding[D, P](nil), bindings...)
	build := sync.OnceValue(func() *Correspondence[D, P] {
		return newCorrespondence(declared)
	})
	if _, loaded := declarations.LoadOrStore(key, build); loaded {
		panic("mapper: Declare called twice for " + key.String())
	}
}

func newCorrespondence[D, P any](declared []Binding[D, P]) *Correspondence[D, P] {
	c := &Correspondence[D, P]{}
	_, transferID := any(new(D)).(model.Identifiable)
	_, persistedID := any(new(P)).(model.Identifiable)
	if transferID && persistedID && !hasBinding(declared, IdentityBinding) {
		c.bindings = append(c.bindings, identity[D, P]())
	}
	c.bindings = append(c.bindings, declared...)
	return c
}

func hasBinding[D, P any](bindings []Binding[D, P], name string) bool {
	for _, b := range bindings {
		if b.name == name {
			return true
		}
	}
	return false
}

func identity[D, P any]() Binding[D, P] {
	return Binding[D, P]{
		name: IdentityBinding,
		toTransfer: func(dst *D, src *P) {
			any(dst).(model.Identifiable).SetID(any(src).(model.Identifiable).GetID())
		},
		toPersisted: func(dst *P, src *D) {
			any(dst).(model.Identifiable).SetID(any(src).(model.Identifiable).GetID())
		},
	}
}

// For returns the correspondence declared for D and P, building it on the
// first call. Concurrent first callers wait for the single build.
func For[D, P any]() (*Correspondence[D, P], error) {
	key := keyOf[D, P]()
	v, ok := declarations.Load(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndeclared, key)
	}
	return v.(func() *Correspondence[D, P])(), nil
}

// ToTransfer translates p with the declared correspondence.
func ToTransfer[D, P any](p *P) (*D, error) {
	c, err := For[D, P]()
	if err != nil {
		return nil, err
	}
	return c.ToTransfer(p), nil
}

// ToPersisted translates d with the declared correspondence.
func ToPersisted[D, P any](d *D) (*P, error) {
	c, err := For[D, P]()
	if err != nil {
		return nil, err
	}
	return c.ToPersisted(d), nil
}
