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

// Package model declares the identity and timestamp capabilities shared by
// persisted and transfer records, plus embeddable implementations of them.
package model

import "time"

const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// Identifiable is implemented by every record handled by the generic layers.
// An identity of 0 means the record has not been persisted yet.
type Identifiable interface {
	GetID() int64
	SetID(id int64)
}

// Record constrains a type parameter to a pointer to T carrying an identity.
type Record[T any] interface {
	*T
	Identifiable
}

// CreationTimestamped records carry a creation time that is stamped on insert
// and never overwritten by updates.
type CreationTimestamped interface {
	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
	CreatedAtColumn() string
}

// UpdateTimestamped records carry a modification time stamped on every write.
type UpdateTimestamped interface {
	SetUpdatedAt(t time.Time)
	UpdatedAtColumn() string
}

// Base provides the identity column.
type Base struct {
	ID int64 `bun:"id,pk,autoincrement" json:"id"`
}

func (b *Base) GetID() int64 { return b.ID }

func (b *Base) SetID(id int64) { b.ID = id }

// Timestamps provides creation and update times.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}

func (t *Timestamps) GetCreatedAt() time.Time { return t.CreatedAt }

func (t *Timestamps) SetCreatedAt(at time.Time) { t.CreatedAt = at }

func (t *Timestamps) CreatedAtColumn() string { return CreatedAtColumn }

func (t *Timestamps) SetUpdatedAt(at time.Time) { t.UpdatedAt = at }

func (t *Timestamps) UpdatedAtColumn() string { return UpdatedAtColumn }

// Capabilities is the static capability table of a persisted type.
type Capabilities struct {
	CreationTimestamp bool
	CreatedAtColumn   string
	UpdateTimestamp   bool
	UpdatedAtColumn   string
}

// CapabilitiesOf inspects the method set of *T once. Column names are read
// from a zero value, so implementations must not depend on instance state.
func CapabilitiesOf[T any]() Capabilities {
	var caps Capabilities
	probe := any(new(T))
	if c, ok := probe.(CreationTimestamped); ok {
		caps.CreationTimestamp = true
		caps.CreatedAtColumn = c.CreatedAtColumn()
	}
	if u, ok := probe.(UpdateTimestamped); ok {
		caps.UpdateTimestamp = true
		caps.UpdatedAtColumn = u.UpdatedAtColumn()
	}
	return caps
}

// Stamp applies creation and update times to a record about to be inserted.
func (c Capabilities) Stamp(record any, now time.Time) {
	if c.CreationTimestamp {
		record.(CreationTimestamped).SetCreatedAt(now)
	}
	if c.UpdateTimestamp {
		record.(UpdateTimestamped).SetUpdatedAt(now)
	}
}
