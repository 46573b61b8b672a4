// Package migrations holds the embedded database schema migrations,
// applied with goose on server startup.
package migrations

import "embed"

// FS contains the SQL migration files.
//
//go:embed *.sql
var FS embed.FS
