package infrastructure

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// GCSArtifactStore writes gs://<bucket>/<prefix><table>.sql. It assumes
// Application Default Credentials are configured.
type GCSArtifactStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSArtifactStore(ctx context.Context, bucket, prefix string) (*GCSArtifactStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSArtifactStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *GCSArtifactStore) ObjectName(table string) string {
	prefix := s.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + artifactName(table)
}

func (s *GCSArtifactStore) Save(ctx context.Context, table string, statement string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.ObjectName(table)).NewWriter(ctx)
	w.ContentType = "application/sql"

	if _, err := io.Copy(w, strings.NewReader(statement)); err != nil {
		w.Close()
		return fmt.Errorf("copy artifact to GCS writer: %w", err)
	}
	// Close finalizes the upload and replaces any previous object.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize artifact upload: %w", err)
	}
	return nil
}

func (s *GCSArtifactStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
