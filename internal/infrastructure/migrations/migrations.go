// Package migrations embeds the run history schema and applies it with
// golang-migrate.
//
// The stock golang-migrate sqlite3 driver imports mattn/go-sqlite3, which
// registers the same "sqlite3" driver name as ncruces/go-sqlite3. Driver
// implements database.Driver directly over an ncruces connection instead.
//
//	db, _ := sql.Open("sqlite3", "file:"+path)
//	err := migrations.RunMigrations(db)
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/zjrosen/mob/internal/log"
)

//go:embed *.sql
var embeddedMigrationsFS embed.FS

// MigrationsFS returns the embedded filesystem containing migration SQL files.
func MigrationsFS() fs.FS {
	return embeddedMigrationsFS
}

// RunMigrations applies all pending migrations. An up-to-date schema is not
// an error.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(embeddedMigrationsFS, ".")
	if err != nil {
		return err
	}

	driver, err := WithInstance(db, &Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug(log.CatDB, "schema up to date")
			return nil
		}
		return err
	}
	version, _, _ := m.Version()
	log.Info(log.CatDB, "schema migrated", "version", version)
	return nil
}
