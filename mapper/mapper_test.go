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
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/crudkit/internal/testdb"
	"github.com/tomoncle/crudkit/model"
	"github.com/uptrace/bun"
)

type person struct {
	bun.BaseModel `bun:"table:people,alias:p"`
	model.Base
	Name     string `bun:"name,notnull"`
	Email    string `bun:"email"`
	Password string `bun:"password"`
	Status   int    `bun:"status"`
	model.Timestamps
}

type personDTO struct {
	ID        int64
	Name      string
	Email     string
	Status    string
	CreatedAt time.Time
	Nickname  string
}

func (d *personDTO) GetID() int64 { return d.ID }

func (d *personDTO) SetID(id int64) { d.ID = id }

func init() {
	Declare[personDTO, person](
		Field("Name", func(d *personDTO) *string { return &d.Name }, func(p *person) *string { return &p.Name }),
		Field("Email", func(d *personDTO) *string { return &d.Email }, func(p *person) *string { return &p.Email }),
		Converted("Status",
			func(d *personDTO) *string { return &d.Status },
			func(p *person) *int { return &p.Status },
			strconv.Itoa,
			func(s string) int { n, _ := strconv.Atoi(s); return n },
		),
		ToTransferOnly("CreatedAt", func(d *personDTO) *time.Time { return &d.CreatedAt }, func(p *person) *time.Time { return &p.CreatedAt }),
	)
}

func TestRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	stored := &person{Name: "Ada", Email: "ada@example.com", Password: "hash", Status: 2}
	stored.ID = 11
	stored.CreatedAt = created

	dto, err := ToTransfer[personDTO](stored)
	require.NoError(t, err)
	assert.Equal(t, &personDTO{ID: 11, Name: "Ada", Email: "ada@example.com", Status: "2", CreatedAt: created}, dto)

	dto.Nickname = "countess"
	back, err := ToPersisted[personDTO, person](dto)
	require.NoError(t, err)
	assert.Equal(t, int64(11), back.ID)
	assert.Equal(t, "Ada", back.Name)
	assert.Equal(t, "ada@example.com", back.Email)
	assert.Equal(t, 2, back.Status)
	// one-way and unbound members stay at their zero value
	assert.Empty(t, back.Password)
	assert.True(t, back.CreatedAt.IsZero())
}

func TestNilTranslatesToNil(t *testing.T) {
	c, err := For[personDTO, person]()
	require.NoError(t, err)
	assert.Nil(t, c.ToTransfer(nil))
	assert.Nil(t, c.ToPersisted(nil))
	assert.Equal(t, []string{IdentityBinding, "Name", "Email", "Status", "CreatedAt"}, c.Fields())
}

type undeclaredDTO struct{ ID int64 }

func TestUndeclaredPair(t *testing.T) {
	_, err := For[undeclaredDTO, person]()
	assert.ErrorIs(t, err, ErrUndeclared)

	_, err = ToTransfer[undeclaredDTO](&person{})
	assert.ErrorIs(t, err, ErrUndeclared)
}

type dupA struct{ V string }
type dupB struct{ V string }

func TestDeclareTwicePanics(t *testing.T) {
	binding := Field("V", func(a *dupA) *string { return &a.V }, func(b *dupB) *string { return &b.V })
	Declare[dupA, dupB](binding)
	assert.Panics(t, func() { Declare[dupA, dupB](binding) })
}

type nameA struct{ V, W string }
type nameB struct{ V, W string }

func TestDuplicateBindingNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		Declare[nameA, nameB](
			Field("V", func(a *nameA) *string { return &a.V }, func(b *nameB) *string { return &b.V }),
			Field("V", func(a *nameA) *string { return &a.W }, func(b *nameB) *string { return &b.W }),
		)
	})
	_, err := For[nameA, nameB]()
	assert.ErrorIs(t, err, ErrUndeclared)
}

type plainDTO struct{ Label string }

func TestIdentityRequiresBothSides(t *testing.T) {
	Declare[plainDTO, person](
		Field("Label", func(d *plainDTO) *string { return &d.Label }, func(p *person) *string { return &p.Name }),
	)
	c, err := For[plainDTO, person]()
	require.NoError(t, err)
	assert.Equal(t, []string{"Label"}, c.Fields())

	p := c.ToPersisted(&plainDTO{Label: "x"})
	assert.Equal(t, "x", p.Name)
	assert.Zero(t, p.ID)
}

type raceDTO struct{ N int }
type raceRecord struct{ N int }

func TestConcurrentFirstUseBuildsOnce(t *testing.T) {
	Declare[raceDTO, raceRecord](
		Field("N", func(d *raceDTO) *int { return &d.N }, func(r *raceRecord) *int { return &r.N }),
	)

	const workers = 64
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		got   = make([]*Correspondence[raceDTO, raceRecord], workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			c, err := For[raceDTO, raceRecord]()
			assert.NoError(t, err)
			got[i] = c
		}(i)
	}
	close(start)
	wg.Wait()

	for _, c := range got {
		assert.Same(t, got[0], c)
	}
	later, err := For[raceDTO, raceRecord]()
	require.NoError(t, err)
	assert.Same(t, got[0], later)
	assert.Equal(t, &raceDTO{N: 4}, got[0].ToTransfer(&raceRecord{N: 4}))
}

func TestProjection(t *testing.T) {
	db := testdb.Open(t, (*person)(nil))
	ctx := testdb.Context(t)

	people := []*person{
		{Name: "Ada", Email: "ada@example.com", Status: 1},
		{Name: "Grace", Email: "grace@example.com", Status: 2},
		{Name: "Edsger", Status: 3},
	}
	_, err := db.NewInsert().Model(&people).Exec(ctx)
	require.NoError(t, err)

	c, err := For[personDTO, person]()
	require.NoError(t, err)

	dtos, err := c.Project(ctx, db.NewSelect().Model((*person)(nil)).Order("id ASC"))
	require.NoError(t, err)
	require.Len(t, dtos, 3)
	assert.Equal(t, "Ada", dtos[0].Name)
	assert.Equal(t, "2", dtos[1].Status)
	assert.Equal(t, people[2].ID, dtos[2].ID)
	assert.False(t, dtos[0].CreatedAt.IsZero())

	var seen []string
	for dto, err := range c.Stream(ctx, db.NewSelect().Model((*person)(nil)).Order("id ASC")) {
		require.NoError(t, err)
		seen = append(seen, dto.Name)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"Ada", "Grace"}, seen)

	empty, err := c.Project(ctx, db.NewSelect().Model((*person)(nil)).Where("name = ?", "nobody"))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
