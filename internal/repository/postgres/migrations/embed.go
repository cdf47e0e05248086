package migrations

import "embed"

// FS holds the postgres schema migrations.
//
//go:embed *.sql
var FS embed.FS
