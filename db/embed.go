// Package db carries the embedded SQL schema applied at startup.
package db

import _ "embed"

// Schema holds the DDL for every application table. RunMigrations executes
// it verbatim; the statements are written to be idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
