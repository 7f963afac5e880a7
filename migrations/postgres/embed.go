// Package migrations embeds the PostgreSQL schema migrations.
package migrations

import "embed"

// FS holds {version}_{name}.up.sql / .down.sql pairs.
//
//go:embed *.sql
var FS embed.FS
