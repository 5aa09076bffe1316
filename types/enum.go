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

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// Crud enumerates the outcome kinds of a write operation.
type Crud int

const (
	Success Crud = iota
	Error
	ValidationError
	DuplicateEntryError
	ItemNotFoundError
	DeleteForeignKeyReferenceError
	AccessDeniedError
)

var _ BaseEnum = Success

var crudNames = [...]string{
	Success:                        "Success",
	Error:                          "Error",
	ValidationError:                "ValidationError",
	DuplicateEntryError:            "DuplicateEntryError",
	ItemNotFoundError:              "ItemNotFoundError",
	DeleteForeignKeyReferenceError: "DeleteForeignKeyReferenceError",
	AccessDeniedError:              "AccessDeniedError",
}

var crudMessages = [...]string{
	Success:                        "Success",
	Error:                          "Unexpected Error Occurred",
	ValidationError:                "Validation Error",
	DuplicateEntryError:            "Error: Duplicate Record",
	ItemNotFoundError:              "Item Not Found",
	DeleteForeignKeyReferenceError: "Foreign Key Reference Error",
	AccessDeniedError:              "Access Denied",
}

// fallbackMessage is reported for kinds outside the known range.
const fallbackMessage = "Error Occurred"

func (c Crud) IsValid() bool { return c >= Success && c <= AccessDeniedError }

func (c Crud) Number() int {
	if !c.IsValid() {
		return IllegalValue
	}
	return int(c)
}

func (c Crud) Name() string {
	if !c.IsValid() {
		return IllegalName
	}
	return crudNames[c]
}

func (c Crud) String() string { return c.Name() }

// Desc returns the fixed human-readable message of the kind.
func (c Crud) Desc() string {
	if !c.IsValid() {
		return fallbackMessage
	}
	return crudMessages[c]
}

// ParseCrud resolves a kind from its name.
func ParseCrud(name string) (Crud, bool) {
	for i, n := range crudNames {
		if n == name {
			return Crud(i), true
		}
	}
	return Crud(IllegalValue), false
}
