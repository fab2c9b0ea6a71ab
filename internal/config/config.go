package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Provider struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"` // openai | ollama | canned
	BaseURL   string   `yaml:"base_url"`
	APIKey    string   `yaml:"api_key"`
	Model     string   `yaml:"model"`
	Fallbacks []string `yaml:"fallbacks"`
	Priority  int      `yaml:"priority"`
	Enabled   bool     `yaml:"enabled"`
}

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	Compare struct {
		Timeout          time.Duration `yaml:"timeout"`
		Budgets          []int         `yaml:"budgets"`
		Pinned           string        `yaml:"pinned"`
		RequireStructure bool          `yaml:"require_structure"`
		MinActionBlocks  int           `yaml:"min_action_blocks"`
	} `yaml:"compare"`
	Providers []Provider `yaml:"providers"`
	Log       struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8087"
	cfg.Dev.Mode = true
	cfg.Compare.Timeout = 90 * time.Second
	cfg.Compare.Budgets = []int{1400, 900, 600}
	cfg.Compare.RequireStructure = true
	cfg.Compare.MinActionBlocks = 3
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)

	if !cfg.Dev.Mode && len(cfg.Providers) == 0 {
		return cfg, errors.New("missing providers (or set GR_DEV_MODE=1)")
	}
	seen := make(map[string]bool, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if seen[p.ID] {
			return cfg, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GR_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("GR_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("GR_COMPARE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Compare.Timeout = d
		}
	}
	if v := os.Getenv("GR_COMPARE_BUDGETS"); v != "" {
		if budgets := splitInts(v); len(budgets) > 0 {
			cfg.Compare.Budgets = budgets
		}
	}
	if v := os.Getenv("GR_COMPARE_PINNED"); v != "" {
		cfg.Compare.Pinned = v
	}
	if v := os.Getenv("GR_COMPARE_REQUIRE_STRUCTURE"); v != "" {
		cfg.Compare.RequireStructure = parseBool(v, cfg.Compare.RequireStructure)
	}
	if v := os.Getenv("GR_COMPARE_MIN_ACTION_BLOCKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Compare.MinActionBlocks = n
		}
	}
	if v := os.Getenv("GR_PROVIDERS"); v != "" {
		allowed := map[string]bool{}
		for _, id := range splitCSV(v) {
			allowed[id] = true
		}
		for i := range cfg.Providers {
			cfg.Providers[i].Enabled = allowed[cfg.Providers[i].ID]
		}
	}
	if v := os.Getenv("GR_OPENAI_API_KEY"); v != "" {
		for i := range cfg.Providers {
			if cfg.Providers[i].Kind == "openai" && cfg.Providers[i].APIKey == "" {
				cfg.Providers[i].APIKey = v
			}
		}
	}
	if v := os.Getenv("GR_OLLAMA_URL"); v != "" {
		for i := range cfg.Providers {
			if cfg.Providers[i].Kind == "ollama" && cfg.Providers[i].BaseURL == "" {
				cfg.Providers[i].BaseURL = v
			}
		}
	}
	if v := os.Getenv("GR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		val := strings.TrimSpace(part)
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}

func splitInts(input string) []int {
	var out []int
	for _, part := range splitCSV(input) {
		if n, err := strconv.Atoi(part); err == nil && n > 0 {
			out = append(out, n)
		}
	}
	return out
}
