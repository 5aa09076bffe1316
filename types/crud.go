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
	"errors"
	"fmt"
)

// ErrInvalidOrderKey is returned when a page request orders by an unknown field.
var ErrInvalidOrderKey = errors.New("invalid order key")

// CrudResponse is the immutable outcome of a write operation.
// IsSuccess and Message are derived from the outcome kind.
type CrudResponse struct {
	kind Crud
}

// NewCrudResponse wraps an outcome kind.
func NewCrudResponse(kind Crud) CrudResponse {
	return CrudResponse{kind: kind}
}

func (r CrudResponse) MessageKey() Crud { return r.kind }

func (r CrudResponse) IsSuccess() bool { return r.kind == Success }

func (r CrudResponse) Message() string { return r.kind.Desc() }

func (r CrudResponse) String() string {
	return fmt.Sprintf("%s: %s", r.kind.Name(), r.Message())
}

type crudResponseJSON struct {
	MessageKey string `json:"message_key"`
	IsSuccess  bool   `json:"is_success"`
	Message    string `json:"message"`
}

// MarshalJSON renders the outcome with its derived fields for transport layers.
func (r CrudResponse) MarshalJSON() ([]byte, error) {
	return json.Marshal(crudResponseJSON{
		MessageKey: r.kind.Name(),
		IsSuccess:  r.IsSuccess(),
		Message:    r.Message(),
	})
}

// UnmarshalJSON restores an outcome from its message key.
func (r *CrudResponse) UnmarshalJSON(data []byte) error {
	var raw crudResponseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, ok := ParseCrud(raw.MessageKey)
	if !ok {
		return fmt.Errorf("unknown crud message key: %q", raw.MessageKey)
	}
	r.kind = kind
	return nil
}
