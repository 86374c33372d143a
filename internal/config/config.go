package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type ClassifierMode string

const (
	ClassifierModeKeyword ClassifierMode = "keyword"
	ClassifierModeHTTP    ClassifierMode = "http"
)

type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Logging    LoggingConfig    `toml:"logging"`
	Engine     EngineConfig     `toml:"engine"`
	Classifier ClassifierConfig `toml:"classifier"`
	Server     ServerConfig     `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
}

// EngineConfig overrides selected weight-table thresholds. Zero values mean
// "keep the built-in default" so a partial [engine] section stays valid.
type EngineConfig struct {
	SignificanceThreshold float64 `toml:"significance_threshold"`
	ImbalanceThreshold    float64 `toml:"imbalance_threshold"`
	EvidenceCap           int     `toml:"evidence_cap"`
	BurnoutMediumAt       float64 `toml:"burnout_medium_at"`
	BurnoutHighAt         float64 `toml:"burnout_high_at"`
	BurnoutCriticalAt     float64 `toml:"burnout_critical_at"`
}

type ClassifierConfig struct {
	Mode           ClassifierMode `toml:"mode"`
	Endpoint       string         `toml:"endpoint"`
	Model          string         `toml:"model"`
	APIKeyEnv      string         `toml:"api_key_env"`
	Concurrency    int            `toml:"concurrency"`
	TimeoutSeconds int            `toml:"timeout_seconds"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Classifier: ClassifierConfig{
			Mode:           ClassifierModeKeyword,
			Concurrency:    5,
			TimeoutSeconds: 15,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8484",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if level != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Engine.SignificanceThreshold < 0 || c.Engine.SignificanceThreshold >= 1 {
		return fmt.Errorf("engine.significance_threshold must be in [0, 1)")
	}
	if c.Engine.ImbalanceThreshold < 0 {
		return errors.New("engine.imbalance_threshold must be >= 0")
	}
	if c.Engine.EvidenceCap < 0 {
		return errors.New("engine.evidence_cap must be >= 0")
	}
	bands := []float64{c.Engine.BurnoutMediumAt, c.Engine.BurnoutHighAt, c.Engine.BurnoutCriticalAt}
	anyBand := false
	for _, band := range bands {
		if band < 0 {
			return errors.New("engine burnout bands must be >= 0")
		}
		if band > 0 {
			anyBand = true
		}
	}
	if anyBand && !(bands[0] > 0 && bands[1] > bands[0] && bands[2] > bands[1]) {
		return errors.New("engine burnout bands must be set together and strictly ascending")
	}

	switch c.Classifier.Mode {
	case "", ClassifierModeKeyword:
	case ClassifierModeHTTP:
		if strings.TrimSpace(c.Classifier.Endpoint) == "" {
			return errors.New("classifier.endpoint is required for http mode")
		}
	default:
		return fmt.Errorf("invalid classifier.mode: %q", c.Classifier.Mode)
	}
	if c.Classifier.Concurrency < 0 || c.Classifier.Concurrency > 64 {
		return errors.New("classifier.concurrency must be in [0, 64]")
	}
	if c.Classifier.TimeoutSeconds < 0 || c.Classifier.TimeoutSeconds > 300 {
		return errors.New("classifier.timeout_seconds must be in [0, 300]")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
