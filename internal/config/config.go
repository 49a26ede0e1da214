package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFile is read from the working directory, when present, before the
// environment overrides are applied.
const EnvFile = ".env"

// Config is the full application configuration.
type Config struct {
	Import     Import     `yaml:"import"`
	Log        Log        `yaml:"log"`
	HTTP       HTTP       `yaml:"http"`
	GCS        GCS        `yaml:"gcs"`
	BigQuery   BigQuery   `yaml:"bigquery"`
	Notion     Notion     `yaml:"notion"`
	Categorize Categorize `yaml:"categorize"`
}

// Import controls the import worker pool.
type Import struct {
	// Workers is the number of files imported in parallel.
	Workers int `yaml:"workers"`
}

// Log controls logger construction.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// HTTP configures the report API server.
type HTTP struct {
	Port         string        `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// GCS configures Cloud Storage access for gs:// imports and exports.
type GCS struct {
	Bucket          string `yaml:"bucket"`
	CredentialsFile string `yaml:"credentials_file"`
}

// BigQuery configures the transaction export table.
type BigQuery struct {
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
	Table     string `yaml:"table"`
}

// Notion configures the Notion database sync.
type Notion struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// Categorize configures the Gemini category suggester.
type Categorize struct {
	Model string `yaml:"model"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Import: Import{Workers: 4},
		Log:    Log{Level: "info", Format: "console"},
		HTTP: HTTP{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		BigQuery: BigQuery{
			Dataset: "finance",
			Table:   "ledger_transactions",
		},
		Categorize: Categorize{Model: "gemini-2.5-flash"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file. Variables from a
// .env file fill in only what the process environment leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Load: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("Load: parse %s: %w", path, err)
		}
	}

	if err := LoadEnvFile(EnvFile); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadEnvFile exports the KEY=VALUE pairs of path into the process
// environment without overriding variables that are already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("LoadEnvFile: %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("LEDGER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("applyEnv: LEDGER_WORKERS: %w", err)
		}
		cfg.Import.Workers = n
	}

	overrides := []struct {
		env    string
		target *string
	}{
		{"LEDGER_LOG_LEVEL", &cfg.Log.Level},
		{"LEDGER_LOG_FORMAT", &cfg.Log.Format},
		{"GCS_BUCKET", &cfg.GCS.Bucket},
		{"GOOGLE_APPLICATION_CREDENTIALS", &cfg.GCS.CredentialsFile},
		{"GOOGLE_CLOUD_PROJECT", &cfg.BigQuery.ProjectID},
		{"BIGQUERY_DATASET", &cfg.BigQuery.Dataset},
		{"NOTION_TOKEN", &cfg.Notion.Token},
		{"NOTION_DB_ID", &cfg.Notion.DatabaseID},
		{"GEMINI_MODEL", &cfg.Categorize.Model},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	return nil
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	var errs []error

	if c.Import.Workers < 1 {
		errs = append(errs, fmt.Errorf("import.workers must be at least 1, got %d", c.Import.Workers))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", c.Log.Format))
	}

	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port is required"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	return nil
}
