package migrations

import "embed"

// EmbeddedMigrations holds the SQL schema migrations applied on the
// postgres path at startup.
//
//go:embed *.sql
var EmbeddedMigrations embed.FS
