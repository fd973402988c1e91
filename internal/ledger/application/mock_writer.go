package application

import (
	"context"

	"github.com/sebuszqo/FinanceSync/internal/ledger/domain"
)

type writeCall struct {
	Table string
	Rows  []domain.Row
}

type MockWriter struct {
	Writes []writeCall
	FailOn string
	Err    error
}

func (m *MockWriter) Write(_ context.Context, table string, rows []domain.Row) (int64, error) {
	m.Writes = append(m.Writes, writeCall{Table: table, Rows: rows})
	if table == m.FailOn {
		return 0, m.Err
	}
	return int64(len(rows)), nil
}
