package grammar

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// GrammarManifest pins the shared-object grammars a dynamic provider may load.
type GrammarManifest struct {
	Version            int               `toml:"version"`
	AllowedABIVersions []int             `toml:"allowed_abi_versions"`
	Artifacts          []GrammarArtifact `toml:"artifacts"`
}

type GrammarArtifact struct {
	Language         string `toml:"language"`
	ABIVersion       int    `toml:"abi_version"`
	Symbol           string `toml:"symbol"`
	SharedObjectPath string `toml:"so_path"`
	SharedObjectHash string `toml:"so_sha256"`
	Source           string `toml:"source"`
	ApprovedDate     string `toml:"approved_date"`
}

func LoadGrammarManifest(path string) (GrammarManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GrammarManifest{}, err
	}
	return ParseGrammarManifest(string(data))
}

func ParseGrammarManifest(data string) (GrammarManifest, error) {
	var manifest GrammarManifest
	if _, err := toml.Decode(data, &manifest); err != nil {
		return GrammarManifest{}, err
	}

	if manifest.Version <= 0 {
		return GrammarManifest{}, fmt.Errorf("manifest version must be > 0")
	}
	if len(manifest.AllowedABIVersions) == 0 {
		return GrammarManifest{}, fmt.Errorf("manifest must define allowed_abi_versions")
	}
	if len(manifest.Artifacts) == 0 {
		return GrammarManifest{}, fmt.Errorf("manifest must define at least one artifact")
	}

	seen := make(map[string]bool, len(manifest.Artifacts))
	for i, artifact := range manifest.Artifacts {
		ref := fmt.Sprintf("artifacts[%d]", i)
		artifact.Language = strings.TrimSpace(strings.ToLower(artifact.Language))
		artifact.Symbol = strings.TrimSpace(artifact.Symbol)
		artifact.SharedObjectPath = filepath.Clean(strings.TrimSpace(artifact.SharedObjectPath))
		artifact.SharedObjectHash = strings.TrimSpace(strings.ToLower(artifact.SharedObjectHash))
		artifact.Source = strings.TrimSpace(artifact.Source)
		artifact.ApprovedDate = strings.TrimSpace(artifact.ApprovedDate)

		if artifact.Language == "" {
			return GrammarManifest{}, fmt.Errorf("%s.language must not be empty", ref)
		}
		if seen[artifact.Language] {
			return GrammarManifest{}, fmt.Errorf("duplicate language entry %q in manifest", artifact.Language)
		}
		seen[artifact.Language] = true
		if artifact.ABIVersion <= 0 {
			return GrammarManifest{}, fmt.Errorf("%s.abi_version must be > 0", ref)
		}
		if artifact.SharedObjectPath == "." || artifact.SharedObjectHash == "" {
			return GrammarManifest{}, fmt.Errorf("%s.so_path and so_sha256 must not be empty", ref)
		}
		if artifact.Symbol == "" {
			artifact.Symbol = SymbolFor(artifact.Language)
		}
		manifest.Artifacts[i] = artifact
	}

	return manifest, nil
}

// Artifact returns the manifest entry for language.
func (m GrammarManifest) Artifact(language string) (GrammarArtifact, bool) {
	language = strings.TrimSpace(strings.ToLower(language))
	for _, artifact := range m.Artifacts {
		if artifact.Language == language {
			return artifact, true
		}
	}
	return GrammarArtifact{}, false
}

// SymbolFor returns the conventional factory symbol exported by a compiled
// tree-sitter grammar.
func SymbolFor(language string) string {
	return "tree_sitter_" + strings.ReplaceAll(strings.TrimSpace(language), "-", "_")
}
