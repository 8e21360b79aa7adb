package config

import (
	"fmt"
	"strings"
	"unicode"

	"grammarbridge/internal/binding/typetag"
)

func Validate(cfg *Config) []error {
	var errs []error
	if err := validateVersion(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateModule(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateGrammar(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := validateHost(cfg); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateModule(cfg *Config) error {
	id := cfg.Module.ID
	if id == "" {
		return fmt.Errorf("module.id must not be empty")
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return fmt.Errorf("module.id %q must not contain whitespace", id)
	}
	if strings.TrimSpace(cfg.Module.Name) == "" {
		return fmt.Errorf("module.name must not be empty")
	}
	if strings.TrimSpace(cfg.Module.TypeTag) != "" {
		tag, err := typetag.Parse(cfg.Module.TypeTag)
		if err != nil {
			return fmt.Errorf("module.type_tag: %w", err)
		}
		if tag.IsZero() {
			return fmt.Errorf("module.type_tag must not be zero")
		}
	}
	return nil
}

func validateGrammar(cfg *Config) error {
	g := cfg.Grammar
	switch g.Source {
	case SourceStatic:
		if strings.TrimSpace(g.Library) != "" {
			return fmt.Errorf("grammar.library is only valid when grammar.source is %q", SourceDynamic)
		}
	case SourceDynamic:
		if strings.TrimSpace(g.Library) == "" && strings.TrimSpace(g.Manifest) == "" {
			return fmt.Errorf("grammar.library or grammar.manifest is required when grammar.source is %q", SourceDynamic)
		}
		if g.VerifyEnabled() && strings.TrimSpace(g.Manifest) == "" {
			return fmt.Errorf("grammar.verify requires grammar.manifest")
		}
	default:
		return fmt.Errorf("grammar.source must be %q or %q, got %q", SourceStatic, SourceDynamic, g.Source)
	}
	return nil
}

func validateHost(cfg *Config) error {
	if cfg.Host.MaxExternals < 0 {
		return fmt.Errorf("host.max_externals must be >= 0")
	}
	if cfg.Host.MaxExports < 0 {
		return fmt.Errorf("host.max_exports must be >= 0")
	}
	return nil
}
