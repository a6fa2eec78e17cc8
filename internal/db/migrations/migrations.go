// Package migrations holds the versioned schema changelog, embedded so the
// binary carries its own DDL.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
