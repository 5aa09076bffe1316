// Package repository provides a generic repository built on Bun for CRUD
// operations, duplicate-checked and merge writes, pagination, and
// transaction rebinding.
//
// Every write runs as one transaction. Check-then-act sequences such as
// SaveUnique are not isolated from concurrent callers; a unique constraint
// in the store is expected to back them up.
package repository
