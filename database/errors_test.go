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
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/crudkit/types"
)

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want SQLError
	}{
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, DuplicateKeyErr},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, ForeignKeyViolationErr},
		{"mysql not null", &mysql.MySQLError{Number: 1048}, NotNullViolationErr},
		{"pq unique", &pq.Error{Code: "23505"}, DuplicateKeyErr},
		{"pq foreign key", fmt.Errorf("wrapped: %w", &pq.Error{Code: "23503"}), ForeignKeyViolationErr},
		{"pq check", &pq.Error{Code: "23514"}, CheckConstraintViolationErr},
		{"pq undefined table", &pq.Error{Code: "42P01"}, NoTableErr},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.name (2067)"), DuplicateKeyErr},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), ForeignKeyViolationErr},
		{"sqlite not null", errors.New("NOT NULL constraint failed: users.name"), NotNullViolationErr},
		{"no rows", fmt.Errorf("load: %w", sql.ErrNoRows), NoRowsErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			is, class := IsSqlError(tc.err)
			assert.True(t, is)
			assert.Equal(t, tc.want, class)
		})
	}

	is, _ := IsSqlError(errors.New("connection refused"))
	assert.False(t, is)
	is, _ = IsSqlError(nil)
	assert.False(t, is)
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err       error
		want      types.Crud
		recognize bool
	}{
		{nil, types.Success, true},
		{&pq.Error{Code: "23505"}, types.DuplicateEntryError, true},
		{&mysql.MySQLError{Number: 1452}, types.DeleteForeignKeyReferenceError, true},
		{errors.New("NOT NULL constraint failed: users.name"), types.ValidationError, true},
		{fmt.Errorf("order: %w", types.ErrInvalidOrderKey), types.ValidationError, true},
		{sql.ErrNoRows, types.ItemNotFoundError, true},
		{errors.New("i/o timeout"), types.Error, false},
	}
	for _, tc := range cases {
		resp, ok := Outcome(tc.err)
		assert.Equal(t, tc.want, resp.MessageKey(), "%v", tc.err)
		assert.Equal(t, tc.recognize, ok, "%v", tc.err)
	}
}
