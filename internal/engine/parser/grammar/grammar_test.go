package grammar

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"grammarbridge/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

func manifestFor(hash string) string {
	return fmt.Sprintf(`
version = 1
allowed_abi_versions = [14, 15]

[[artifacts]]
language = " Parser "
abi_version = 15
so_path = "libtree-sitter-parser.so"
so_sha256 = %q
source = "https://example.invalid/tree-sitter-parser"
`, hash)
}

func TestParseGrammarManifest(t *testing.T) {
	manifest, err := ParseGrammarManifest(manifestFor("ABC"))
	require.NoError(t, err)
	require.Len(t, manifest.Artifacts, 1)

	artifact, ok := manifest.Artifact("PARSER")
	require.True(t, ok)
	assert.Equal(t, "parser", artifact.Language)
	assert.Equal(t, "abc", artifact.SharedObjectHash)
	assert.Equal(t, "tree_sitter_parser", artifact.Symbol)

	_, ok = manifest.Artifact("go")
	assert.False(t, ok)
}

func TestParseGrammarManifest_Rejects(t *testing.T) {
	cases := map[string]string{
		"no version":  "allowed_abi_versions = [15]\n[[artifacts]]\nlanguage='a'\nabi_version=15\nso_path='a.so'\nso_sha256='x'",
		"no abi list": "version = 1\n[[artifacts]]\nlanguage='a'\nabi_version=15\nso_path='a.so'\nso_sha256='x'",
		"no artifact": "version = 1\nallowed_abi_versions = [15]",
		"duplicate": "version = 1\nallowed_abi_versions = [15]\n" +
			"[[artifacts]]\nlanguage='a'\nabi_version=15\nso_path='a.so'\nso_sha256='x'\n" +
			"[[artifacts]]\nlanguage='A'\nabi_version=15\nso_path='b.so'\nso_sha256='y'",
		"missing path": "version = 1\nallowed_abi_versions = [15]\n[[artifacts]]\nlanguage='a'\nabi_version=15\nso_sha256='x'",
		"bad toml":     "version = ",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGrammarManifest(data)
			assert.Error(t, err)
		})
	}
}

func TestSymbolFor(t *testing.T) {
	assert.Equal(t, "tree_sitter_parser", SymbolFor("parser"))
	assert.Equal(t, "tree_sitter_c_sharp", SymbolFor("c-sharp"))
}

func TestVerifyGrammarArtifacts(t *testing.T) {
	dir := t.TempDir()
	hash := writeArtifact(t, dir, "libtree-sitter-parser.so", []byte("grammar"))

	manifest, err := ParseGrammarManifest(manifestFor(hash))
	require.NoError(t, err)

	issues, err := VerifyGrammarArtifacts(dir, manifest)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "libtree-sitter-parser.so"), []byte("tampered"), 0o644))
	issues, err = VerifyGrammarArtifacts(dir, manifest)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "checksum mismatch", issues[0].Reason)
	assert.Equal(t, hash, issues[0].ExpectedHash)
}

func TestVerifyLanguage(t *testing.T) {
	dir := t.TempDir()
	manifest, err := ParseGrammarManifest(manifestFor("00"))
	require.NoError(t, err)
	manifest.Artifacts[0].ABIVersion = 13

	issues, err := VerifyLanguage(dir, manifest, "parser")
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "unsupported ABI version 13", issues[0].Reason)
	assert.Equal(t, "artifact missing or unreadable", issues[1].Reason)

	issues, err = VerifyLanguage(dir, manifest, "go")
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "language missing from manifest", issues[0].Reason)

	_, err = VerifyLanguage(filepath.Join(dir, "missing"), manifest, "parser")
	assert.Error(t, err)
}

func TestFuncProvider(t *testing.T) {
	var grammar byte
	p := Func("fixture", func() unsafe.Pointer { return unsafe.Pointer(&grammar) })
	ptr, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&grammar), ptr)
	assert.Equal(t, "fixture", p.Name())

	_, err = Func("null", func() unsafe.Pointer { return nil }).Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))

	_, err = Func("missing", nil).Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))
}

func TestStatic(t *testing.T) {
	assert.Contains(t, StaticLanguages(), "go")
	assert.Contains(t, StaticLanguages(), "tsx")

	p, err := Static(" Go ")
	require.NoError(t, err)
	assert.Equal(t, "static:go", p.Name())
	ptr, err := p.Acquire()
	require.NoError(t, err)
	assert.NotNil(t, ptr)

	_, err = Static("cobol")
	assert.True(t, errors.IsCode(err, errors.CodeNotSupported))
}

func TestDynamicProvider_Failures(t *testing.T) {
	_, err := Dynamic("parser", "").Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))

	_, err = Dynamic("parser", filepath.Join(t.TempDir(), "missing.so")).Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))

	dir := t.TempDir()
	hash := writeArtifact(t, dir, "libtree-sitter-parser.so", []byte("not really a library"))
	manifest, err := ParseGrammarManifest(manifestFor(hash))
	require.NoError(t, err)

	p := Dynamic("parser", "/elsewhere/lib.so", WithManifest(dir, manifest))
	assert.Equal(t, "tree_sitter_parser", p.Symbol)
	_, err = p.Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))
	assert.Contains(t, err.Error(), "not the verified artifact")

	manifest.Artifacts[0].SharedObjectHash = "00"
	_, err = Dynamic("parser", "", WithManifest(dir, manifest)).Acquire()
	assert.True(t, errors.IsCode(err, errors.CodeProviderFailure))
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestDynamicProvider_Symbol(t *testing.T) {
	assert.Equal(t, "tree_sitter_parser", Dynamic("Parser", "x.so").Symbol)
	assert.Equal(t, "custom", Dynamic("parser", "x.so", WithSymbol(" custom ")).Symbol)
	assert.Equal(t, "dynamic:parser", Dynamic("parser", "x.so").Name())
}
