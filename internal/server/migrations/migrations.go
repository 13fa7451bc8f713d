// Package migrations embeds the goose SQL migrations of the hotspot schema.
//
// The sessions and daily_usage tables belong to the RADIUS accounting
// subsystem; they are created here only when missing so a fresh database (or
// a test database) has the full shared schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
