// Package migrations applies the embedded schema of both databases.
package migrations

import "embed"

// FS holds the schema files, one directory per database.
//
//go:embed postgres/*.sql clickhouse/*.sql
var FS embed.FS
