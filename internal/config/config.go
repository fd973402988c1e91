package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	ledgerErrors "github.com/sebuszqo/FinanceSync/internal/ledger/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath           = "config.json"
	defaultHistoryMonths  = 1
	defaultArtifactsDir   = "tables"
	defaultSchedule       = "@daily"
	defaultTimeout        = 10 * time.Minute
	defaultRequestsPerSec = 2
)

var plaidEnvironments = map[string]bool{"sandbox": true, "development": true, "production": true}

// Source is one linked institution: the operator's label and its access token.
type Source struct {
	Label       string
	AccessToken string
}

// Sources keeps institutionTokens in document order.
type Sources []Source

func (s *Sources) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: institutionTokens must be a mapping of label to access token", value.Line)
	}
	seen := make(map[string]bool, len(value.Content)/2)
	out := make(Sources, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var label, token string
		if err := value.Content[i].Decode(&label); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&token); err != nil {
			return fmt.Errorf("institutionTokens[%q]: %w", label, err)
		}
		if seen[label] {
			return fmt.Errorf("line %d: duplicate institution label %q", value.Content[i].Line, label)
		}
		seen[label] = true
		out = append(out, Source{Label: label, AccessToken: token})
	}
	*s = out
	return nil
}

type PlaidConfig struct {
	ClientID          string  `yaml:"clientId"`
	Secret            string  `yaml:"secret"`
	// PublicKey is accepted for older config documents. No request sends it.
	PublicKey         string  `yaml:"publicKey"`
	Env               string  `yaml:"env"`
	InstitutionTokens Sources `yaml:"institutionTokens"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	// BaseURL overrides the host derived from Env.
	BaseURL string `yaml:"baseUrl"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	// DSN, when set, wins over the individual fields.
	DSN string `yaml:"dsn"`
}

type SyncConfig struct {
	HistoryMonths       int           `yaml:"historyMonths"`
	RefreshTransactions bool          `yaml:"refreshTransactions"`
	ArtifactsDir        string        `yaml:"artifactsDir"`
	ArtifactsBucket     string        `yaml:"artifactsBucket"`
	ArtifactsPrefix     string        `yaml:"artifactsPrefix"`
	Schedule            string        `yaml:"schedule"`
	Timeout             time.Duration `yaml:"timeout"`
	LogLevel            string        `yaml:"logLevel"`
}

type Config struct {
	Plaid PlaidConfig `yaml:"plaid"`
	DB    DBConfig    `yaml:"db"`
	Sync  SyncConfig  `yaml:"sync"`
}

// Load reads the config document at path (JSON or YAML), lets a .env file and
// the environment override secrets, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ledgerErrors.NewConfigError("loading .env: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ledgerErrors.NewConfigError("reading %s: %v", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a config document and fills defaults. It does not validate.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, ledgerErrors.NewConfigError("parsing config: %v", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Plaid.Env == "" {
		c.Plaid.Env = "sandbox"
	}
	if c.Plaid.RequestsPerSecond == 0 {
		c.Plaid.RequestsPerSecond = defaultRequestsPerSec
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "postgres"
	}
	if c.Sync.HistoryMonths == 0 {
		c.Sync.HistoryMonths = defaultHistoryMonths
	}
	if c.Sync.ArtifactsDir == "" {
		c.Sync.ArtifactsDir = defaultArtifactsDir
	}
	if c.Sync.Schedule == "" {
		c.Sync.Schedule = defaultSchedule
	}
	if c.Sync.Timeout == 0 {
		c.Sync.Timeout = defaultTimeout
	}
	if c.Sync.LogLevel == "" {
		c.Sync.LogLevel = "info"
	}
}

func (c *Config) applyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Plaid.ClientID, "PLAID_CLIENT_ID")
	override(&c.Plaid.Secret, "PLAID_SECRET")
	override(&c.Plaid.PublicKey, "PLAID_PUBLIC_KEY")
	override(&c.Plaid.Env, "PLAID_ENV")
	override(&c.DB.Driver, "DB_DRIVER")
	override(&c.DB.Host, "DB_HOST")
	override(&c.DB.User, "DB_USER")
	override(&c.DB.Password, "DB_PASSWORD")
	override(&c.DB.Database, "DB_NAME")
	override(&c.DB.DSN, "DB_CONNECTION_STRING")
	if v := getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.DB.Port = port
		}
	}
}

func (c *Config) Validate() error {
	var errs ledgerErrors.ConfigErrors

	if c.Plaid.ClientID == "" {
		errs.Add(ledgerErrors.NewConfigError("plaid.clientId is required"))
	}
	if c.Plaid.Secret == "" {
		errs.Add(ledgerErrors.NewConfigError("plaid.secret is required"))
	}
	if !plaidEnvironments[strings.ToLower(c.Plaid.Env)] {
		errs.Add(ledgerErrors.NewConfigError("plaid.env must be one of sandbox, development, production, got %q", c.Plaid.Env))
	}
	if len(c.Plaid.InstitutionTokens) == 0 {
		errs.Add(ledgerErrors.NewConfigError("plaid.institutionTokens must name at least one institution"))
	}
	for _, src := range c.Plaid.InstitutionTokens {
		if src.Label == "" || src.AccessToken == "" {
			errs.Add(ledgerErrors.NewConfigError("plaid.institutionTokens entry %q needs a label and an access token", src.Label))
		}
	}
	if c.Plaid.RequestsPerSecond < 0 {
		errs.Add(ledgerErrors.NewConfigError("plaid.requestsPerSecond cannot be negative"))
	}

	switch strings.ToLower(c.DB.Driver) {
	case "postgres", "mysql":
		if c.DB.DSN == "" && (c.DB.Host == "" || c.DB.Database == "") {
			errs.Add(ledgerErrors.NewConfigError("db.host and db.database are required for %s", c.DB.Driver))
		}
	case "sqlite":
		if c.DB.DSN == "" && c.DB.Database == "" {
			errs.Add(ledgerErrors.NewConfigError("db.database must name the sqlite file"))
		}
	default:
		errs.Add(ledgerErrors.NewConfigError("db.driver must be postgres, mysql or sqlite, got %q", c.DB.Driver))
	}

	if c.Sync.HistoryMonths < 0 {
		errs.Add(ledgerErrors.NewConfigError("sync.historyMonths cannot be negative"))
	}
	if c.Sync.Timeout < 0 {
		errs.Add(ledgerErrors.NewConfigError("sync.timeout cannot be negative"))
	}
	return errs.ErrOrNil()
}
