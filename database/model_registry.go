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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel is a persisted type taking part in migrations. Instance returns a
// Bun-compatible struct pointer; lower Priority values are created first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
	Reset()
}

type modelRegistry struct {
	mu     sync.RWMutex
	models []SQLModel
	seen   map[reflect.Type]struct{}
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{seen: make(map[reflect.Type]struct{})}
}

// Register adds model once per concrete type; repeated registrations are ignored.
func (r *modelRegistry) Register(model SQLModel) {
	if model == nil || model.Instance() == nil {
		return
	}
	typ := reflect.TypeOf(model.Instance())
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[typ]; ok {
		return
	}
	r.seen[typ] = struct{}{}
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mu.RLock()
	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *modelRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = nil
	r.seen = make(map[reflect.Type]struct{})
}

type modelAdapter struct {
	instance interface{}
	priority int
}

func (a modelAdapter) Instance() interface{} { return a.instance }

func (a modelAdapter) Priority() int { return a.priority }

// NewModelAdapter wraps a struct pointer and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return modelAdapter{instance: instance, priority: priority}
}

// RegisterModel adds a struct pointer to the default registry.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.Register(NewModelAdapter(instance, priority))
}

// RegisterModelFor adds T to the default registry.
func RegisterModelFor[T any](priority int) {
	RegisterModel((*T)(nil), priority)
}

// GetRegisteredModels returns the default registry's models sorted by priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisteredModelInstances returns the struct pointers of GetRegisteredModels.
func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

// ResetRegisteredModels clears the default registry.
func ResetRegisteredModels() {
	defaultRegistry.Reset()
}
