package migrate

import (
	"context"
	"database/sql"
	"embed"
)

//go:embed migrations/*.sql
var embedded embed.FS

const embeddedDir = "migrations"

// ApplyEmbedded runs every migration compiled into the binary, for the dev
// auto-run and test databases that have no source tree on disk.
func ApplyEmbedded(ctx context.Context, sqlDB *sql.DB, dialect string) (int, error) {
	runner, err := NewRunner(sqlDB, dialect, "")
	if err != nil {
		return 0, err
	}
	return runner.Up(ctx)
}
