// Package migrations holds the goose migrations for the SQL backends, one directory per dialect.
package migrations

import "embed"

// FS contains postgres/*.sql and clickhouse/*.sql
//
//go:embed postgres/*.sql clickhouse/*.sql
var FS embed.FS

// Dir returns the migration directory for a goose dialect
func Dir(dialect string) string {
	return dialect
}
