// Package config loads brokerd configuration from a YAML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/brokerd/money"
)

// Config is the complete brokerd configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Ledger  LedgerConfig  `json:"ledger" yaml:"ledger"`
	Oracle  OracleConfig  `json:"oracle" yaml:"oracle"`
	Account AccountConfig `json:"account" yaml:"account"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

type ServerConfig struct {
	Listen string `json:"listen" yaml:"listen"`
}

type LedgerConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// OracleConfig selects the price provider. "yahoo" hits the Yahoo Finance
// chart API; "static" uses the in-memory quote store (tests, demos).
type OracleConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

func (o OracleConfig) ParseCacheTTL() (time.Duration, error) {
	if o.CacheTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(o.CacheTTL)
}

func (o OracleConfig) ParseTimeout() (time.Duration, error) {
	if o.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(o.Timeout)
}

type AccountConfig struct {
	// InitialCash seeds every newly created account, decimal string.
	InitialCash string `json:"initial_cash" yaml:"initial_cash"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and falling
// back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, picking the format by extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if c.Ledger.DBPath == "" {
		return fmt.Errorf("ledger.db_path is required")
	}
	if c.Oracle.Provider != "yahoo" && c.Oracle.Provider != "static" {
		return fmt.Errorf("oracle.provider must be 'yahoo' or 'static'")
	}
	if _, err := c.Oracle.ParseCacheTTL(); err != nil {
		return fmt.Errorf("oracle.cache_ttl: %w", err)
	}
	if _, err := c.Oracle.ParseTimeout(); err != nil {
		return fmt.Errorf("oracle.timeout: %w", err)
	}

	cash, err := money.FromString(c.Account.InitialCash)
	if err != nil {
		return fmt.Errorf("account.initial_cash: %w", err)
	}
	if cash.IsNegative() {
		return fmt.Errorf("account.initial_cash must not be negative")
	}
	return nil
}

// InitialCash returns the parsed opening balance. Call Validate first.
func (c *Config) InitialCash() money.Money {
	return money.MustFromString(c.Account.InitialCash)
}

// Default returns a runnable configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Listen: ":8080"},
		Ledger: LedgerConfig{DBPath: "./brokerd.db"},
		Oracle: OracleConfig{
			Provider: "yahoo",
			CacheTTL: "60s",
			Timeout:  "8s",
		},
		Account: AccountConfig{InitialCash: "10000.00"},
		Log:     LogConfig{Level: "info", Pretty: true},
	}
}
