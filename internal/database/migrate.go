package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/eventgo/eventgo/db"
	"github.com/eventgo/eventgo/internal/config"
)

// RunMigrations applies all pending migrations for the connection's engine
// from the embedded db/migrations/<driver> directory. golang-migrate tracks
// applied versions, so this is safe to call on every startup.
func RunMigrations(conn *sqlx.DB, driver string) error {
	var (
		instance migratedb.Driver
		err      error
	)
	switch driver {
	case config.DriverMySQL:
		instance, err = mysql.WithInstance(conn.DB, &mysql.Config{})
	case config.DriverSQLite:
		instance, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	source, err := iofs.New(db.Migrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied",
		slog.String("driver", driver),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}
