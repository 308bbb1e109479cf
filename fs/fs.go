// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

// FS holds the goose SQL migrations under "migrations".
//go:embed migrations/*.sql
var FS embed.FS
