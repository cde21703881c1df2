// Package migrations embeds the SQL schema migrations applied by cmd/migrate.
package migrations

import "embed"

// FS holds the numbered *.up.sql and *.down.sql migration files.
//
//go:embed *.sql
var FS embed.FS
