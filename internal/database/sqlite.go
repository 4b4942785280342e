package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/eventgo/eventgo/internal/config"
)

func init() {
	// sqlx only knows the cgo driver name; modernc registers "sqlite".
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// NewSQLite opens the SQLite file named in cfg. Foreign keys and the busy
// timeout are set through DSN pragmas so every pooled connection gets them.
//
// SQLite allows a single writer, so the pool is pinned to one connection.
// Transactions therefore serialize, and code running inside a transaction
// must only use the transaction handle.
func NewSQLite(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(config.DriverSQLite, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", cfg.SQLitePath, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	return db, nil
}
