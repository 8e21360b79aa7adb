package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"grammarbridge/internal/binding/typetag"
	"grammarbridge/internal/core/config"
	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/engine/parser/grammar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, content string) *App {
	t.Helper()
	cfg, err := config.Parse(content)
	require.NoError(t, err)
	a, err := New(context.Background(), cfg, slog.Default())
	require.NoError(t, err)
	return a
}

func TestApp_StaticGrammar(t *testing.T) {
	a := newApp(t, "[grammar]\nlanguage = \"go\"\n")

	exports, err := a.Load()
	require.NoError(t, err)

	descs := Describe(exports)
	require.Len(t, descs, 2)
	assert.Equal(t, ExportDescription{Key: "name", Kind: "string", Value: "parser"}, descs[0])
	assert.Equal(t, "language", descs[1].Key)
	assert.Equal(t, "external", descs[1].Kind)
	assert.Equal(t, typetag.LanguageTypeTag.String(), descs[1].TypeTag)
	assert.True(t, descs[1].Trusted)

	g, err := a.Grammar()
	require.NoError(t, err)
	again, err := a.Grammar()
	require.NoError(t, err)
	assert.Same(t, g, again)

	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "up", status.Status)
}

func TestApp_UnlinkedGrammar(t *testing.T) {
	cfg, err := config.Parse("[grammar]\nlanguage = \"cobol\"\n")
	require.NoError(t, err)
	_, err = New(context.Background(), cfg, nil)
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestApp_DynamicGrammarFailureIsFatal(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libtree-sitter-parser.so")
	a := newApp(t, fmt.Sprintf("[grammar]\nlibrary = %q\n", lib))

	exports, err := a.Load()
	assert.Nil(t, exports)
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))
	assert.Equal(t, 0, a.Env.Externals())

	status := NewHealthService(a).Check(context.Background())
	assert.Equal(t, "down", status.Status)
	assert.Equal(t, string(errors.CodeProviderFailure), status.Components["module"])
}

func TestApp_ForeignTagIsUntrusted(t *testing.T) {
	a := newApp(t, "[module]\ntype_tag = \"0x1:0x2\"\n[grammar]\nlanguage = \"go\"\n")

	exports, err := a.Load()
	require.NoError(t, err)
	assert.False(t, Describe(exports)[1].Trusted)

	_, err = a.Grammar()
	assert.True(t, errors.IsCode(err, errors.CodeTypeMismatch))
}

func TestApp_ExportLimit(t *testing.T) {
	a := newApp(t, "[grammar]\nlanguage = \"go\"\n[host]\nmax_exports = 1\n")
	_, err := a.Load()
	assert.True(t, errors.IsCode(err, errors.CodeExportRegistrationFailure))
}

func TestBuildProvider_ManifestVerification(t *testing.T) {
	dir := t.TempDir()
	data := []byte("fake shared object")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libtree-sitter-parser.so"), data, 0o644))
	manifest := fmt.Sprintf(`version = 1
allowed_abi_versions = [15]

[[artifacts]]
language = "parser"
abi_version = 15
so_path = "libtree-sitter-parser.so"
so_sha256 = "%x"
`, sha256.Sum256(data))
	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	p, err := BuildProvider(config.Grammar{
		Language: "parser",
		Source:   config.SourceDynamic,
		Manifest: manifestPath,
	})
	require.NoError(t, err)
	dp, ok := p.(*grammar.DynamicProvider)
	require.True(t, ok)
	assert.Equal(t, dir, dp.BaseDir)
	assert.Equal(t, "tree_sitter_parser", dp.Symbol)

	_, err = BuildProvider(config.Grammar{
		Language: "parser",
		Source:   config.SourceDynamic,
		Manifest: filepath.Join(dir, "missing.toml"),
	})
	assert.Error(t, err)
}
