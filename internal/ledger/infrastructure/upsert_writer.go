package infrastructure

import (
	"context"
	"fmt"

	"github.com/sebuszqo/FinanceSync/internal/ledger/domain"
	ledgerErrors "github.com/sebuszqo/FinanceSync/internal/ledger/errors"
	"github.com/sebuszqo/FinanceSync/internal/logger"
)

// Store executes one bulk upsert atomically and reports the affected rows.
type Store interface {
	ExecUpsert(ctx context.Context, stmt Statement) (int64, error)
}

type UpsertWriter struct {
	store     Store
	dialect   Dialect
	artifacts ArtifactStore
}

func NewUpsertWriter(store Store, dialect Dialect, artifacts ArtifactStore) *UpsertWriter {
	return &UpsertWriter{store: store, dialect: dialect, artifacts: artifacts}
}

// Write reconciles rows into table by identifier and records the statement it
// sent. An empty batch does nothing at all.
func (w *UpsertWriter) Write(ctx context.Context, table string, rows []domain.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	log := logger.FromContext(ctx).With().Str("table", table).Logger()

	stmt, err := BuildUpsert(w.dialect, table, rows)
	if err != nil {
		return 0, ledgerErrors.NewWriteError(table, err)
	}

	log.Info().Int("rows", len(rows)).Msgf("Executing %s", stmt.Preview())
	affected, err := w.store.ExecUpsert(ctx, stmt)
	if err != nil {
		return 0, ledgerErrors.NewWriteError(table, err)
	}
	log.Info().Int64("rows_affected", affected).Msg("Upsert committed")

	if err := w.artifacts.Save(ctx, table, stmt.Text); err != nil {
		return affected, ledgerErrors.NewWriteError(table, fmt.Errorf("saving artifact: %w", err))
	}
	return affected, nil
}
