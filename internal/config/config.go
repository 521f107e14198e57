// Package config is the explicit configuration passed into the engine's
// constructors. No package keeps ambient global settings; everything flows
// from here.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/agent-ensemble/internal/providers/llm"
)

// Config is the full engine configuration.
type Config struct {
	Addr           string        `yaml:"addr"`
	MaxRounds      int           `yaml:"max_rounds"`
	SubTaskTimeout time.Duration `yaml:"subtask_timeout"`
	MaxSpecialists int           `yaml:"max_specialists"`
	Concurrency    int           `yaml:"concurrency"`
	Debug          bool          `yaml:"debug"`
	LLM            llm.Config    `yaml:"llm"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Addr:           ":8080",
		MaxRounds:      15,
		SubTaskTimeout: 5 * time.Minute,
		MaxSpecialists: 3,
		Concurrency:    4,
	}
}

// Load starts from defaults, merges an optional YAML file, then applies
// environment overrides. Precedence: env > file > defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file: %w", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if n, ok := envInt("MAX_ROUNDS"); ok {
		c.MaxRounds = n
	}
	if n, ok := envInt("SUBTASK_TIMEOUT_MS"); ok {
		c.SubTaskTimeout = time.Duration(n) * time.Millisecond
	}
	if n, ok := envInt("MAX_SPECIALISTS"); ok {
		c.MaxSpecialists = n
	}
	if n, ok := envInt("GROUP_CONCURRENCY"); ok {
		c.Concurrency = n
	}
	if os.Getenv("DEBUG") == "1" {
		c.Debug = true
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	// Pick the key matching the provider, or auto-detect by presence.
	switch c.LLM.Provider {
	case "openai":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		c.LLM.BaseURL = os.Getenv("OPENAI_API_BASE")
	case "anthropic":
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		c.LLM.APIKey = os.Getenv("GOOGLE_API_KEY")
	case "":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.Provider, c.LLM.APIKey = "openai", key
			c.LLM.BaseURL = os.Getenv("OPENAI_API_BASE")
		} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.LLM.Provider, c.LLM.APIKey = "anthropic", key
		} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			c.LLM.Provider, c.LLM.APIKey = "gemini", key
		}
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
