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

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type plain struct {
	Base
	Name string
}

type stamped struct {
	Base
	Timestamps
}

type createdOnly struct {
	Base
	Created time.Time
}

func (c *createdOnly) GetCreatedAt() time.Time { return c.Created }

func (c *createdOnly) SetCreatedAt(t time.Time) { c.Created = t }

func (c *createdOnly) CreatedAtColumn() string { return "created" }

func TestCapabilitiesOf(t *testing.T) {
	assert.Equal(t, Capabilities{}, CapabilitiesOf[plain]())

	assert.Equal(t, Capabilities{
		CreationTimestamp: true,
		CreatedAtColumn:   CreatedAtColumn,
		UpdateTimestamp:   true,
		UpdatedAtColumn:   UpdatedAtColumn,
	}, CapabilitiesOf[stamped]())

	assert.Equal(t, Capabilities{CreationTimestamp: true, CreatedAtColumn: "created"}, CapabilitiesOf[createdOnly]())
}

func TestStamp(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s := &stamped{}
	CapabilitiesOf[stamped]().Stamp(s, now)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, now, s.UpdatedAt)

	c := &createdOnly{}
	CapabilitiesOf[createdOnly]().Stamp(c, now)
	assert.Equal(t, now, c.Created)

	p := &plain{Name: "x"}
	CapabilitiesOf[plain]().Stamp(p, now)
	assert.Equal(t, "x", p.Name)
}

func TestBaseIdentity(t *testing.T) {
	var id Identifiable = &plain{}
	assert.Zero(t, id.GetID())
	id.SetID(7)
	assert.Equal(t, int64(7), id.GetID())
}
