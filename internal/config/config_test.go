package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	ledgerErrors "github.com/sebuszqo/FinanceSync/internal/ledger/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonConfig = `{
  "plaid": {
    "clientId": "client-id",
    "secret": "secret",
    "publicKey": "public-key",
    "env": "development",
    "institutionTokens": {
      "Zeta Credit Union": "access-development-z",
      "Chase": "access-development-c",
      "Amex": "access-development-a"
    }
  },
  "db": {"host": "localhost", "user": "ledger", "password": "pw", "database": "finance"}
}`

func TestParse_KeepsSourceOrderAndDefaults(t *testing.T) {
	cfg, err := Parse([]byte(jsonConfig))
	require.NoError(t, err)

	assert.Equal(t, Sources{
		{Label: "Zeta Credit Union", AccessToken: "access-development-z"},
		{Label: "Chase", AccessToken: "access-development-c"},
		{Label: "Amex", AccessToken: "access-development-a"},
	}, cfg.Plaid.InstitutionTokens)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 1, cfg.Sync.HistoryMonths)
	assert.Equal(t, "tables", cfg.Sync.ArtifactsDir)
	assert.Equal(t, "@daily", cfg.Sync.Schedule)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Timeout)
	assert.Equal(t, float64(2), cfg.Plaid.RequestsPerSecond)
	assert.NoError(t, cfg.Validate())
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(`
plaid:
  clientId: id
  secret: s
  institutionTokens:
    Chase: tok
db:
  driver: sqlite
  database: ledger.db
sync:
  historyMonths: 3
  refreshTransactions: true
  timeout: 90s
`))
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.Plaid.Env)
	assert.Equal(t, 3, cfg.Sync.HistoryMonths)
	assert.True(t, cfg.Sync.RefreshTransactions)
	assert.Equal(t, 90*time.Second, cfg.Sync.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestParse_RejectsDuplicateLabels(t *testing.T) {
	_, err := Parse([]byte("plaid:\n  institutionTokens:\n    Chase: a\n    Chase: b\n"))
	assert.True(t, ledgerErrors.IsConfigError(err))
}

func TestParse_RejectsNonMappingTokens(t *testing.T) {
	_, err := Parse([]byte(`{"plaid": {"institutionTokens": ["a", "b"]}}`))
	assert.True(t, ledgerErrors.IsConfigError(err))
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte(jsonConfig))
	require.NoError(t, err)

	env := map[string]string{
		"PLAID_SECRET":         "from-env",
		"DB_CONNECTION_STRING": "postgres://other/db",
		"DB_PORT":              "6543",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "from-env", cfg.Plaid.Secret)
	assert.Equal(t, "client-id", cfg.Plaid.ClientID)
	assert.Equal(t, "postgres://other/db", cfg.DB.DSN)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg, err := Parse([]byte(`{"plaid": {"env": "staging"}, "db": {"driver": "oracle"}}`))
	require.NoError(t, err)

	err = cfg.Validate()
	var all *ledgerErrors.ConfigErrors
	require.ErrorAs(t, err, &all)
	assert.Len(t, all.Errors, 5)
	assert.True(t, ledgerErrors.IsConfigError(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonConfig), 0o600))

	t.Setenv("PLAID_ENV", "production")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Plaid.Env)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.True(t, ledgerErrors.IsConfigError(err))
}
