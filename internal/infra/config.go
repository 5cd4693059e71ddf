package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CurrencyConfig declares one accepted currency on the allow-list.
type CurrencyConfig struct {
	Symbol   string `yaml:"symbol"`
	LedgerID string `yaml:"ledger_id"`
	Decimals int32  `yaml:"decimals"`
}

// CollectionConfig declares one asset registry the marketplace serves.
type CollectionConfig struct {
	Registry string `yaml:"registry"`
	Name     string `yaml:"name"`
	ThumbURL string `yaml:"thumb_url"`
}

// Config holds all application settings. Sensitive values can be overridden
// through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		Owner           string             `yaml:"owner"`
		EscrowAccount   string             `yaml:"escrow_account"`
		CutPerMillion   int64              `yaml:"cut_per_million"`
		PrimaryCurrency string             `yaml:"primary_currency"`
		Currencies      []CurrencyConfig   `yaml:"currencies"`
		Collections     []CollectionConfig `yaml:"collections"`
	} `yaml:"market"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`

	Feed struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Market.Owner == "" {
		return fmt.Errorf("market owner principal is required")
	}
	if c.Market.EscrowAccount == "" {
		return fmt.Errorf("market escrow account is required")
	}
	if c.Market.CutPerMillion < 0 || c.Market.CutPerMillion > 1_000_000 {
		return fmt.Errorf("cut per million out of range: %d", c.Market.CutPerMillion)
	}
	if len(c.Market.Currencies) == 0 {
		return fmt.Errorf("at least one accepted currency is required")
	}

	seen := make(map[string]bool)
	primaryOK := c.Market.PrimaryCurrency == ""
	for _, cur := range c.Market.Currencies {
		if cur.Symbol == "" || cur.LedgerID == "" {
			return fmt.Errorf("currency requires symbol and ledger_id")
		}
		if seen[cur.Symbol] {
			return fmt.Errorf("duplicate currency %s", cur.Symbol)
		}
		seen[cur.Symbol] = true
		if cur.Symbol == c.Market.PrimaryCurrency {
			primaryOK = true
		}
	}
	if !primaryOK {
		return fmt.Errorf("primary currency %s is not on the allow-list", c.Market.PrimaryCurrency)
	}

	if c.Feed.Enabled && c.Feed.ListenAddr == "" {
		return fmt.Errorf("feed listen_addr is required when the feed is enabled")
	}

	return nil
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if owner := os.Getenv("MARKET_OWNER"); owner != "" {
		cfg.Market.Owner = owner
	}
	if account := os.Getenv("MARKET_ESCROW_ACCOUNT"); account != "" {
		cfg.Market.EscrowAccount = account
	}
	if path := os.Getenv("MARKET_JOURNAL_PATH"); path != "" {
		cfg.Journal.Path = path
	}
}
