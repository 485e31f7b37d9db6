// Package config loads the quiz YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SourceOpenTDB  = "opentdb"
	SourceEmbedded = "embedded"

	UIModeAuto  = "auto"
	UIModeLive  = "live"
	UIModePlain = "plain"

	DefaultBotURL    = "wss://chat.strims.gg/ws"
	DevBotURL        = "wss://chat2.strims.gg/ws"
	DefaultBotPrefix = "!quiz"
)

// Config is the root of the YAML file.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Source   SourceConfig `yaml:"source"`
	UI       UIConfig     `yaml:"ui"`
	Bot      BotConfig    `yaml:"bot"`
}

type SourceConfig struct {
	Kind         string        `yaml:"kind"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	SessionToken bool          `yaml:"session_token"`
}

type UIConfig struct {
	Mode    string `yaml:"mode"`
	NoColor bool   `yaml:"no_color"`
}

type BotConfig struct {
	URL    string `yaml:"url"`
	Dev    bool   `yaml:"dev"`
	Prefix string `yaml:"prefix"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	Normalize(&cfg)
	return cfg
}

// Load reads, parses, normalizes and validates a config file. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes a single YAML document, rejecting unknown keys.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Normalize fills in defaults and canonicalizes enum values.
func Normalize(cfg *Config) {
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceOpenTDB
	}
	if cfg.Source.BaseURL == "" {
		cfg.Source.BaseURL = "https://opentdb.com"
	}
	cfg.Source.BaseURL = strings.TrimSuffix(cfg.Source.BaseURL, "/")
	if cfg.Source.Timeout == 0 {
		cfg.Source.Timeout = 10 * time.Second
	}

	cfg.UI.Mode = strings.ToLower(strings.TrimSpace(cfg.UI.Mode))
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = UIModeAuto
	}

	if cfg.Bot.URL == "" {
		cfg.Bot.URL = DefaultBotURL
		if cfg.Bot.Dev {
			cfg.Bot.URL = DevBotURL
		}
	}
	if cfg.Bot.Prefix == "" {
		cfg.Bot.Prefix = DefaultBotPrefix
	}
}

// Validate reports the first invalid field.
func Validate(cfg Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (expected debug|info|warn|error)", cfg.LogLevel)
	}

	switch cfg.Source.Kind {
	case SourceOpenTDB:
		u, err := url.Parse(cfg.Source.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid source.base_url %q", cfg.Source.BaseURL)
		}
	case SourceEmbedded:
		if cfg.Source.SessionToken {
			return fmt.Errorf("source.session_token requires source.kind %q", SourceOpenTDB)
		}
	default:
		return fmt.Errorf("invalid source.kind %q (expected %s|%s)", cfg.Source.Kind, SourceOpenTDB, SourceEmbedded)
	}
	if cfg.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must be positive")
	}

	switch cfg.UI.Mode {
	case UIModeAuto, UIModeLive, UIModePlain:
	default:
		return fmt.Errorf("invalid ui.mode %q (expected auto|live|plain)", cfg.UI.Mode)
	}

	u, err := url.Parse(cfg.Bot.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("invalid bot.url %q (expected ws:// or wss://)", cfg.Bot.URL)
	}
	if strings.ContainsAny(cfg.Bot.Prefix, " \t") {
		return fmt.Errorf("bot.prefix must be a single word")
	}
	return nil
}
