package config

import (
	"os"
	"strings"

	"grammarbridge/internal/binding"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "./grammarbridge.toml"

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes, defaults, applies environment overrides and validates.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file is present.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnvOverrides(cfg)
	applyDefaults(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, errs[0]
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Module.ID) == "" {
		cfg.Module.ID = binding.DefaultModuleID
	}
	if strings.TrimSpace(cfg.Module.Name) == "" {
		cfg.Module.Name = binding.DefaultName
	}

	cfg.Grammar.Language = strings.ToLower(strings.TrimSpace(cfg.Grammar.Language))
	if cfg.Grammar.Language == "" {
		cfg.Grammar.Language = binding.DefaultName
	}
	cfg.Grammar.Source = strings.ToLower(strings.TrimSpace(cfg.Grammar.Source))
	if cfg.Grammar.Source == "" {
		if strings.TrimSpace(cfg.Grammar.Library) != "" || strings.TrimSpace(cfg.Grammar.Manifest) != "" {
			cfg.Grammar.Source = SourceDynamic
		} else {
			cfg.Grammar.Source = SourceStatic
		}
	}
}
