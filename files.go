package provider

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/migrate"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// Migration dialect directories
const (
	MigrationsSQLite   = "sqlite"
	MigrationsPostgres = "postgres"
)

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// MigrationsFor returns the migration files of one dialect directory
func MigrationsFor(name string) (fs.FS, error) {
	return fs.Sub(GetMigrationsFS(), path.Join("data/sql/migrations", name))
}

// Migrate applies the embedded migrations matching the db dialect
func Migrate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	var dir string
	switch db.Dialect().Name() {
	case dialect.SQLite:
		dir = MigrationsSQLite
	case dialect.PG:
		dir = MigrationsPostgres
	default:
		return nil, fmt.Errorf("migrate: unsupported dialect %s", db.Dialect().Name())
	}

	fsys, err := MigrationsFor(dir)
	if err != nil {
		return nil, err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return nil, fmt.Errorf("migrate: discover: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("migrate: init: %w", err)
	}

	return migrator.Migrate(ctx)
}
