package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLStore executes upserts against a database/sql pool. All batches of one
// statement share a transaction.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ExecUpsert(ctx context.Context, stmt Statement) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var affected int64
	for i, batch := range stmt.Batches {
		res, err := tx.ExecContext(ctx, batch.SQL, batch.Args...)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("batch %d of %d: %w", i+1, len(stmt.Batches), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}
