package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so a multi-step mutation either
// lands completely or not at all.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tx: %w", err)
	}
	return nil
}
