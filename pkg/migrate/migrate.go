package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/angelmondragon/storefront-backend/pkg/db"
)

const DefaultDir = "pkg/migrate/migrations"

// Runner applies goose migrations from one source against one database.
// It holds no goose globals, so runners for different databases can coexist.
type Runner struct {
	provider *goose.Provider
}

// NewRunner reads migrations from dir, or from the copies compiled into the
// binary when dir is empty.
func NewRunner(sqlDB *sql.DB, dialect, dir string) (*Runner, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("db is required")
	}
	var source fs.FS
	if dir == "" {
		sub, err := fs.Sub(embedded, embeddedDir)
		if err != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", err)
		}
		source = sub
	} else {
		source = os.DirFS(dir)
	}
	provider, err := goose.NewProvider(providerDialect(dialect), sqlDB, source)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

func providerDialect(dialect string) database.Dialect {
	if dialect == db.DialectSQLite {
		return database.DialectSQLite3
	}
	return database.DialectPostgres
}

// Up applies every pending migration and returns how many ran.
func (r *Runner) Up(ctx context.Context) (int, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("goose up: %w", err)
	}
	return len(results), nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) error {
	if _, err := r.provider.Down(ctx); err != nil {
		return fmt.Errorf("goose down: %w", err)
	}
	return nil
}

// Reset rolls back every applied migration.
func (r *Runner) Reset(ctx context.Context) error {
	if _, err := r.provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("goose reset: %w", err)
	}
	return nil
}

// ToVersion migrates up or down until the database sits at target.
func (r *Runner) ToVersion(ctx context.Context, target string) error {
	if target == "" {
		return fmt.Errorf("target version is required")
	}
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}

	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current == version:
		return nil
	case current < version:
		_, err = r.provider.UpTo(ctx, version)
	default:
		_, err = r.provider.DownTo(ctx, version)
	}
	if err != nil {
		return fmt.Errorf("goose migrate to %d: %w", version, err)
	}
	return nil
}

// Status writes one row per known migration.
func (r *Runner) Status(ctx context.Context, w io.Writer) error {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("goose status: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, st.Source.Path)
	}
	return tw.Flush()
}

// Run dispatches a CLI command name onto a runner reading dir.
func Run(ctx context.Context, sqlDB *sql.DB, dialect, dir, command string) error {
	runner, err := NewRunner(sqlDB, dialect, dir)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		_, err = runner.Up(ctx)
	case "down":
		err = runner.Down(ctx)
	case "reset":
		err = runner.Reset(ctx)
	case "status":
		err = runner.Status(ctx, os.Stdout)
	default:
		err = fmt.Errorf("unsupported migrate command %q", command)
	}
	return err
}
