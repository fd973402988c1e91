package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore keeps the last statement executed for each table.
type ArtifactStore interface {
	Save(ctx context.Context, table string, statement string) error
}

func artifactName(table string) string {
	return table + ".sql"
}

// FileArtifactStore writes <dir>/<table>.sql, replacing the previous file.
type FileArtifactStore struct {
	dir string
}

func NewFileArtifactStore(dir string) *FileArtifactStore {
	return &FileArtifactStore{dir: dir}
}

func (s *FileArtifactStore) Path(table string) string {
	return filepath.Join(s.dir, artifactName(table))
}

func (s *FileArtifactStore) Save(_ context.Context, table string, statement string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+artifactName(table)+".*")
	if err != nil {
		return fmt.Errorf("creating artifact for %s: %w", table, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(statement); err != nil {
		tmp.Close()
		return fmt.Errorf("writing artifact for %s: %w", table, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing artifact for %s: %w", table, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(table)); err != nil {
		return fmt.Errorf("replacing artifact for %s: %w", table, err)
	}
	return nil
}
