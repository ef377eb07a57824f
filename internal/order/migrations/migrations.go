// Package migrations embeds the SQL schema migrations for the order service.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
