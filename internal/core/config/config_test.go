// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grammarbridge/internal/binding/typetag"
)

func TestLoad(t *testing.T) {
	content := `
version = 1

[module]
id = "tree_sitter_parser_binding"
name = "parser"

[grammar]
language = "Parser"
library = "./grammars/libtree-sitter-parser.so"
symbol = "tree_sitter_parser"

[host]
max_externals = 4
max_exports = 8

[observability]
metrics_address = ":9108"
`
	path := filepath.Join(t.TempDir(), "grammarbridge.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Grammar.Language != "parser" {
		t.Errorf("expected normalized language parser, got %q", cfg.Grammar.Language)
	}
	if cfg.Grammar.Source != SourceDynamic {
		t.Errorf("expected dynamic source inferred from library, got %q", cfg.Grammar.Source)
	}
	if cfg.Grammar.VerifyEnabled() {
		t.Error("expected verification off without a manifest")
	}
	if cfg.Host.MaxExternals != 4 || cfg.Host.MaxExports != 8 {
		t.Errorf("unexpected host limits: %+v", cfg.Host)
	}
	if cfg.Observability.MetricsAddress != ":9108" {
		t.Errorf("unexpected metrics address %q", cfg.Observability.MetricsAddress)
	}
	tag, err := cfg.TypeTag()
	if err != nil || tag != typetag.LanguageTypeTag {
		t.Errorf("expected language type tag, got %v (%v)", tag, err)
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Module.ID != "tree_sitter_parser_binding" || cfg.Module.Name != "parser" {
		t.Errorf("unexpected module defaults: %+v", cfg.Module)
	}
	if cfg.Grammar.Source != SourceStatic {
		t.Errorf("expected static source by default, got %q", cfg.Grammar.Source)
	}
}

func TestParse_TypeTagOverride(t *testing.T) {
	cfg, err := Parse(`
[module]
type_tag = "0x1:0x2"
`)
	if err != nil {
		t.Fatal(err)
	}
	tag, err := cfg.TypeTag()
	if err != nil {
		t.Fatal(err)
	}
	if tag != (typetag.TypeTag{Lower: 1, Upper: 2}) {
		t.Errorf("unexpected tag %v", tag)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]struct {
		content string
		want    string
	}{
		"version":       {"version = 2", "unsupported config version"},
		"module id":     {"[module]\nid = \"a b\"", "whitespace"},
		"bad tag":       {"[module]\ntype_tag = \"nope\"", "module.type_tag"},
		"zero tag":      {"[module]\ntype_tag = \"0:0\"", "must not be zero"},
		"source":        {"[grammar]\nsource = \"wasm\"", "grammar.source"},
		"static lib":    {"[grammar]\nsource = \"static\"\nlibrary = \"x.so\"", "only valid"},
		"dynamic empty": {"[grammar]\nsource = \"dynamic\"", "is required"},
		"verify":        {"[grammar]\nlibrary = \"x.so\"\nverify = true", "requires grammar.manifest"},
		"limits":        {"[host]\nmax_exports = -1", "max_exports"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.content)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("GRAMMARBRIDGE_GRAMMAR_LANGUAGE", "python")
	t.Setenv("GRAMMARBRIDGE_HOST_MAX_EXPORTS", "3")
	t.Setenv("GRAMMARBRIDGE_GRAMMAR_VERIFY", "false")
	t.Setenv("GRAMMARBRIDGE_HOST_MAX_EXTERNALS", "not-a-number")

	cfg, err := Parse(`
[grammar]
language = "go"
manifest = "grammars/manifest.toml"
`)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grammar.Language != "python" {
		t.Errorf("expected env language python, got %q", cfg.Grammar.Language)
	}
	if cfg.Host.MaxExports != 3 {
		t.Errorf("expected max_exports 3, got %d", cfg.Host.MaxExports)
	}
	if cfg.Host.MaxExternals != 0 {
		t.Errorf("expected unparsable override to be ignored, got %d", cfg.Host.MaxExternals)
	}
	if cfg.Grammar.VerifyEnabled() {
		t.Error("expected env override to disable verification")
	}
}
