// Package db embeds the SQL schema migrations, one directory per engine.
// Both directories must carry the same version numbers.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
