package db

import (
	"context"
	"database/sql"
)

// RunTx calls fn with queries bound to a fresh transaction, it commits if fn returns nil and
// rolls back otherwise.
func RunTx(ctx context.Context, database *sql.DB, fn func(txqry *Queries) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = fn(New(tx))
	if err != nil {
		return err
	}
	return tx.Commit()
}
