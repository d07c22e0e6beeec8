package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"cold-message/internal/domain"
)

const (
	backendOpenAI = "openai"
	backendGemini = "gemini"
	backendNone   = "none"
)

// Config is the resolved runtime configuration. Precedence: defaults, then
// the TOML file, then environment variables, then flags.
type Config struct {
	Backend     string  `toml:"backend"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	ParamPrefix string  `toml:"param_prefix"`
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	LoadTimeout string  `toml:"load_timeout"`
	MetricsFile string  `toml:"metrics_file"`
}

func defaultConfig() Config {
	opts := domain.DefaultGenerationOptions()
	return Config{
		Backend:     backendOpenAI,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		MaxTokens:   opts.MaxTokens,
	}
}

// loadConfig reads path (optional) and applies environment overrides.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = getenv("COLDMSG_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: file %s does not exist", path)
			}
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	cfg.Backend = envString(getenv, "COLDMSG_BACKEND", cfg.Backend)
	cfg.Model = envString(getenv, "COLDMSG_MODEL", cfg.Model)
	cfg.BaseURL = envString(getenv, "COLDMSG_BASE_URL", cfg.BaseURL)
	cfg.ParamPrefix = envString(getenv, "PARAM_PREFIX", cfg.ParamPrefix)
	cfg.Timeout = envString(getenv, "COLDMSG_TIMEOUT", cfg.Timeout)
	cfg.LoadTimeout = envString(getenv, "COLDMSG_LOAD_TIMEOUT", cfg.LoadTimeout)
	cfg.MetricsFile = envString(getenv, "COLDMSG_METRICS_FILE", cfg.MetricsFile)
	cfg.Temperature = envFloat(getenv, "COLDMSG_TEMPERATURE", cfg.Temperature)
	cfg.TopP = envFloat(getenv, "COLDMSG_TOP_P", cfg.TopP)
	cfg.MaxTokens = envInt(getenv, "COLDMSG_MAX_TOKENS", cfg.MaxTokens)

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.APIKey = envString(getenv, "COLDMSG_API_KEY", cfg.APIKey)
	if cfg.APIKey == "" {
		switch cfg.Backend {
		case backendOpenAI:
			cfg.APIKey = getenv("OPENAI_API_KEY")
		case backendGemini:
			cfg.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Backend {
	case backendOpenAI, backendGemini, backendNone:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := c.timeouts(); err != nil {
		return err
	}
	if c.Temperature < 0 || c.TopP < 0 || c.TopP > 1 || c.MaxTokens < 0 {
		return errors.New("config: sampling options out of range")
	}
	return nil
}

type timeouts struct {
	invoke time.Duration
	load   time.Duration
}

func (c Config) timeouts() (timeouts, error) {
	var t timeouts
	var err error
	if t.invoke, err = parseDuration(c.Timeout); err != nil {
		return t, fmt.Errorf("config: timeout: %w", err)
	}
	if t.load, err = parseDuration(c.LoadTimeout); err != nil {
		return t, fmt.Errorf("config: load_timeout: %w", err)
	}
	return t, nil
}

func (c Config) generationOptions() domain.GenerationOptions {
	return domain.GenerationOptions{
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxTokens:   c.MaxTokens,
	}
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("must not be negative")
	}
	return d, nil
}

func envString(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(getenv func(string) string, key string, def int) int {
	v := getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(getenv func(string) string, key string, def float64) float64 {
	v := getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
