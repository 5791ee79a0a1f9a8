// Package migrations embeds SQL migration files into the binary so schema
// setup needs no files on disk at runtime.
package migrations

import (
	"embed"

	"github.com/nerrad567/gray-assist/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
