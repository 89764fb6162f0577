package database

import "embed"

// Migrations holds the bundled schema migrations
//
//go:embed migrations/*.sql
var Migrations embed.FS
