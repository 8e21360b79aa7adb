package config

import (
	"strings"

	"grammarbridge/internal/binding/typetag"
)

const (
	SourceStatic  = "static"
	SourceDynamic = "dynamic"
)

type Config struct {
	Version       int           `toml:"version"`
	Module        Module        `toml:"module"`
	Grammar       Grammar       `toml:"grammar"`
	Host          Host          `toml:"host"`
	Observability Observability `toml:"observability"`
}

type Module struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	TypeTag string `toml:"type_tag"` // empty means the tree-sitter language tag
}

type Grammar struct {
	Language string `toml:"language"`
	Source   string `toml:"source"`
	Library  string `toml:"library"`
	Symbol   string `toml:"symbol"`
	Manifest string `toml:"manifest"`
	Verify   *bool  `toml:"verify"`
}

type Host struct {
	MaxExternals int `toml:"max_externals"`
	MaxExports   int `toml:"max_exports"`
}

type Observability struct {
	MetricsAddress string `toml:"metrics_address"`
	OTLPEndpoint   string `toml:"otlp_endpoint"`
}

// TypeTag returns the configured identity tag.
func (c *Config) TypeTag() (typetag.TypeTag, error) {
	if strings.TrimSpace(c.Module.TypeTag) == "" {
		return typetag.LanguageTypeTag, nil
	}
	return typetag.Parse(c.Module.TypeTag)
}

// VerifyEnabled reports whether dynamic grammars must match the manifest.
// Verification defaults to on whenever a manifest is configured.
func (g Grammar) VerifyEnabled() bool {
	if g.Verify != nil {
		return *g.Verify
	}
	return strings.TrimSpace(g.Manifest) != ""
}
