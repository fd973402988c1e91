package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileArtifactStore_Overwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tables")
	store := NewFileArtifactStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "accounts", "INSERT INTO accounts ... first;"))
	require.NoError(t, store.Save(ctx, "accounts", "INSERT INTO accounts ... second;"))

	assert.Equal(t, filepath.Join(dir, "accounts.sql"), store.Path("accounts"))
	content, err := os.ReadFile(store.Path("accounts"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO accounts ... second;", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGCSArtifactStore_ObjectName(t *testing.T) {
	assert.Equal(t, "transactions.sql", (&GCSArtifactStore{}).ObjectName("transactions"))
	assert.Equal(t, "ledger/transactions.sql", (&GCSArtifactStore{prefix: "ledger"}).ObjectName("transactions"))
	assert.Equal(t, "ledger/transactions.sql", (&GCSArtifactStore{prefix: "ledger/"}).ObjectName("transactions"))
}
