package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultAccounts = 1000
	DefaultCards    = 15000
	DefaultBatch    = 500
	// DefaultRandSeed makes repeated runs draw the same keys, so seeding
	// twice without a truncate trips the uniqueness constraints.
	DefaultRandSeed = 20240401
)

type Config struct {
	Version string `json:"version" mapstructure:"version"`
	// Schema names the declared schema in diagrams and messages. Tables are
	// not prefixed with it: the database in DATABASE_URL is the namespace.
	Schema      string   `json:"schema" mapstructure:"schema" validate:"required,alphanum"`
	DiagramPath string   `json:"diagram_path" mapstructure:"diagram_path" validate:"required"`
	ExportPath  string   `json:"export_path" mapstructure:"export_path" validate:"required"`
	Database    Database `json:"database" mapstructure:"database"`
	Seed        Seed     `json:"seed" mapstructure:"seed"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider" validate:"oneof=postgresql postgres mysql sqlite sqlite3 sqlite-pure"`
	URLEnv   string `json:"url_env" mapstructure:"url_env" validate:"required"`
}

// Seed holds the row counts and knobs for a seed run. An explicit RandSeed
// of 0 draws a fresh seed per run.
type Seed struct {
	Accounts      int    `json:"accounts" mapstructure:"accounts" validate:"gte=0"`
	Cards         int    `json:"cards" mapstructure:"cards" validate:"gte=0"`
	Purchases     int    `json:"purchases" mapstructure:"purchases" validate:"gte=0"`
	Batch         int    `json:"batch" mapstructure:"batch" validate:"gte=1,lte=5000"`
	RandSeed      uint64 `json:"rand_seed" mapstructure:"rand_seed"`
	Truncate      bool   `json:"truncate" mapstructure:"truncate"`
	NoTransaction bool   `json:"no_transaction" mapstructure:"no_transaction"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Schema == "" {
		cfg.Schema = "app1"
	}
	if cfg.DiagramPath == "" {
		cfg.DiagramPath = "db/diagram.mmd"
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = "db/export"
	}
	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "sqlite"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	// Zero is a legal count, so only fill what the user left unset.
	if !viper.IsSet("seed.accounts") {
		cfg.Seed.Accounts = DefaultAccounts
	}
	if !viper.IsSet("seed.cards") {
		cfg.Seed.Cards = DefaultCards
	}
	if !viper.IsSet("seed.rand_seed") {
		cfg.Seed.RandSeed = DefaultRandSeed
	}
	if cfg.Seed.Batch == 0 {
		cfg.Seed.Batch = DefaultBatch
	}

	return &cfg, nil
}

func (c *Config) GetDatabaseURL() (string, error) {
	dbURL := os.Getenv(c.Database.URLEnv)
	if dbURL == "" {
		if c.IsSQLite() {
			return "sqlite://" + c.Schema + ".db", nil
		}
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}
	return dbURL, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) IsSQLite() bool {
	switch c.Database.Provider {
	case "sqlite", "sqlite3", "sqlite-pure":
		return true
	}
	return false
}
