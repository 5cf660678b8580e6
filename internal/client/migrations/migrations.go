// Package migrations embeds the SQL migrations of the local secure vault.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
