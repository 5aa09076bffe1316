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
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/tomoncle/crudkit/types"
)

// SQLError classifies driver errors independently of the SQL dialect.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

// mysqlErrorClasses maps MySQL server error numbers to their class.
var mysqlErrorClasses = map[uint16]SQLError{
	1054: NoColumnErr,
	1060: ExistColumnErr,
	1061: ExistIndexErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1091: NoIndexErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1265: DataTruncatedErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
}

// pqErrorClasses maps postgres SQLSTATE codes to their class.
var pqErrorClasses = map[pq.ErrorCode]SQLError{
	"22001": DataTruncatedErr,
	"22P02": InvalidTypeCastErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23505": DuplicateKeyErr,
	"23514": CheckConstraintViolationErr,
	"42701": ExistColumnErr,
	"42703": NoColumnErr,
	"42704": NoIndexErr,
	"42804": InvalidTypeCastErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
}

// messageRule classifies an error by its lowercased text. A rule matches
// when any of its phrases occurs and, if set, every one of requireAll does.
type messageRule struct {
	class      SQLError
	anyOf      []string
	requireAll []string
}

// messageRules are tried in order; sqlite reports errors only as text.
var messageRules = []messageRule{
	{class: NoColumnErr, anyOf: []string{"sqlstate 42703", "undefined column", "no such column"}},
	{class: NoIndexErr, anyOf: []string{"sqlstate 42704", "no such index"}},
	{class: NoIndexErr, requireAll: []string{"does not exist", "index"}},
	{class: NoTableErr, anyOf: []string{"sqlstate 42p01", "undefined table", "no such table"}},
	{class: ExistIndexErr, requireAll: []string{"already exists", "index"}},
	{class: ExistTableErr, requireAll: []string{"already exists", "table"}},
	{class: ExistTableErr, requireAll: []string{"already exists", "relation"}},
	{class: DuplicateKeyErr, anyOf: []string{"duplicate key value", "unique constraint failed", "sqlstate 23505"}},
	{class: NotNullViolationErr, anyOf: []string{"not-null constraint", "not null constraint failed", "sqlstate 23502"}},
	{class: ForeignKeyViolationErr, anyOf: []string{"foreign key violation", "foreign key constraint failed", "sqlstate 23503"}},
	{class: CheckConstraintViolationErr, anyOf: []string{"check constraint", "sqlstate 23514"}},
	{class: DataTruncatedErr, anyOf: []string{"string data right truncation", "data truncated", "sqlstate 22001"}},
	{class: InvalidTypeCastErr, anyOf: []string{"datatype mismatch", "sqlstate 42804"}},
}

func (r messageRule) matches(msg string) bool {
	for _, phrase := range r.requireAll {
		if !strings.Contains(msg, phrase) {
			return false
		}
	}
	if len(r.anyOf) == 0 {
		return len(r.requireAll) > 0
	}
	for _, phrase := range r.anyOf {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// IsSqlError reports whether err is a recognizable SQL error and its class.
// MySQL error numbers and postgres SQLSTATE codes are matched exactly; other
// drivers (sqlite) fall back to message heuristics.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, pqErrorClasses[pqErr.Code]
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, mysqlErrorClasses[mysqlErr.Number]
	}
	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if rule.matches(msg) {
			return true, rule.class
		}
	}
	return false, UnknownErr
}

// Outcome maps an engine error to a CRUD outcome. The boolean is false when
// err could not be classified, in which case the outcome is types.Error.
func Outcome(err error) (types.CrudResponse, bool) {
	if err == nil {
		return types.NewCrudResponse(types.Success), true
	}
	if errors.Is(err, types.ErrInvalidOrderKey) {
		return types.NewCrudResponse(types.ValidationError), true
	}
	is, class := IsSqlError(err)
	if !is {
		return types.NewCrudResponse(types.Error), false
	}
	switch class {
	case NoRowsErr:
		return types.NewCrudResponse(types.ItemNotFoundError), true
	case DuplicateKeyErr:
		return types.NewCrudResponse(types.DuplicateEntryError), true
	case ForeignKeyViolationErr:
		return types.NewCrudResponse(types.DeleteForeignKeyReferenceError), true
	case NotNullViolationErr, CheckConstraintViolationErr, DataTruncatedErr, InvalidTypeCastErr:
		return types.NewCrudResponse(types.ValidationError), true
	}
	return types.NewCrudResponse(types.Error), false
}
