package infrastructure

import (
	"context"
	"sync"
)

type MockStore struct {
	mu         sync.Mutex
	Statements []Statement
	Affected   int64
	Err        error
}

func (m *MockStore) ExecUpsert(_ context.Context, stmt Statement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Statements = append(m.Statements, stmt)
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Affected, nil
}

type MockArtifactStore struct {
	mu     sync.Mutex
	Saved  map[string]string
	Writes int
	Err    error
}

func (m *MockArtifactStore) Save(_ context.Context, table string, statement string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.Err != nil {
		return m.Err
	}
	if m.Saved == nil {
		m.Saved = make(map[string]string)
	}
	m.Saved[table] = statement
	return nil
}
