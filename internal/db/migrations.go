package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"

	// NoLimitMigrations applies every pending migration.
	NoLimitMigrations = 0
)

// Migration is an embedded SQL file with a Down section followed by an Up section.
// Prefix namespaces the migration id so several components can share one database.
type Migration struct {
	ID     string
	SQL    string
	Prefix string
}

// RunMigrations applies every pending Up migration.
func RunMigrations(log *logger.Logger, db *sql.DB, migrations []Migration) error {
	return RunMigrationsExtended(log, db, migrations, migrate.Up, NoLimitMigrations)
}

// RunMigrationsExtended applies at most maxMigrations migrations in direction dir.
func RunMigrationsExtended(
	log *logger.Logger,
	db *sql.DB,
	migrations []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int,
) error {
	source := &migrate.MemoryMigrationSource{}
	ids := make([]string, 0, len(migrations))

	for _, m := range migrations {
		down, up, found := strings.Cut(m.SQL, upMarker)
		if !found {
			return fmt.Errorf("migration %s missing %q separator", m.ID, upMarker)
		}

		if _, after, ok := strings.Cut(down, downMarker); ok {
			down = after
		}

		id := m.Prefix + m.ID
		ids = append(ids, id)
		source.Migrations = append(source.Migrations, &migrate.Migration{
			Id:   id,
			Up:   []string{strings.TrimSpace(up)},
			Down: []string{strings.TrimSpace(down)},
		})
	}

	list := strings.Join(ids, ", ")
	log.Debugf("running migrations (max %d/%d): %s", maxMigrations, len(ids), list)

	n, err := migrate.ExecMax(db, "sqlite3", source, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("failed to execute migrations (max %d/%d) %s: %w", maxMigrations, len(ids), list, err)
	}

	log.Infof("applied %d migrations from: %s", n, list)

	return nil
}
