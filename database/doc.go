// Package database provides connection management, YAML configuration with
// validation, query logging hooks, SQL error classification, a model registry
// with table migrations, and health checks built on top of Bun.
package database
