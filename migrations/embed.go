// Package migrations embeds the portal's SQL schema migrations.
//
// Files follow YYYYMMDD_HHMMSS_name.up.sql / .down.sql and are applied by
// database.DB.Migrate.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
