// Package grammar supplies compiled tree-sitter grammars as opaque handles.
// A Provider is a zero-argument factory; callers treat the returned pointer
// as a TSLanguage only after the binding layer has tagged it.
package grammar

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"grammarbridge/internal/core/errors"
)

type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	Acquire() (unsafe.Pointer, error)
}

type funcProvider struct {
	name    string
	factory func() unsafe.Pointer
}

// Func adapts a native grammar factory. A nil result is a provider failure.
func Func(name string, factory func() unsafe.Pointer) Provider {
	return &funcProvider{name: name, factory: factory}
}

func (p *funcProvider) Name() string { return p.name }

func (p *funcProvider) Acquire() (unsafe.Pointer, error) {
	if p.factory == nil {
		return nil, errors.New(errors.CodeProviderFailure, fmt.Sprintf("grammar provider %q has no factory", p.name))
	}
	ptr := p.factory()
	if ptr == nil {
		return nil, errors.New(errors.CodeProviderFailure, fmt.Sprintf("grammar provider %q returned a nil handle", p.name))
	}
	return ptr, nil
}

// DynamicProvider loads a grammar from a shared object on every Acquire.
type DynamicProvider struct {
	Language string
	Path     string
	Symbol   string

	// When Manifest is set the artifact is verified against it before loading.
	Manifest *GrammarManifest
	BaseDir  string
}

type DynamicOption func(*DynamicProvider)

func WithSymbol(symbol string) DynamicOption {
	return func(p *DynamicProvider) {
		if s := strings.TrimSpace(symbol); s != "" {
			p.Symbol = s
		}
	}
}

// WithManifest verifies the artifact for the provider's language against
// manifest, resolving relative paths against baseDir.
func WithManifest(baseDir string, manifest GrammarManifest) DynamicOption {
	return func(p *DynamicProvider) {
		p.BaseDir = baseDir
		p.Manifest = &manifest
	}
}

// Dynamic returns a provider for language backed by the shared object at
// path. With a manifest, an empty path resolves to the manifest's so_path.
func Dynamic(language, path string, opts ...DynamicOption) *DynamicProvider {
	p := &DynamicProvider{
		Language: strings.TrimSpace(strings.ToLower(language)),
		Path:     strings.TrimSpace(path),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Symbol == "" {
		p.Symbol = SymbolFor(p.Language)
		if p.Manifest != nil {
			if artifact, ok := p.Manifest.Artifact(p.Language); ok {
				p.Symbol = artifact.Symbol
			}
		}
	}
	return p
}

func (p *DynamicProvider) Name() string { return "dynamic:" + p.Language }

func (p *DynamicProvider) Acquire() (unsafe.Pointer, error) {
	path, err := p.resolve()
	if err != nil {
		return nil, err
	}
	ptr, err := LoadDynamic(path, p.Symbol)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeProviderFailure, "dynamic grammar load failed"),
			errors.CtxPath, path,
		)
	}
	return ptr, nil
}

func (p *DynamicProvider) resolve() (string, error) {
	if p.Manifest == nil {
		if p.Path == "" {
			return "", errors.New(errors.CodeProviderFailure, fmt.Sprintf("no shared object configured for grammar %q", p.Language))
		}
		return p.Path, nil
	}

	issues, err := VerifyLanguage(p.BaseDir, *p.Manifest, p.Language)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeProviderFailure, "grammar verification failed")
	}
	if len(issues) > 0 {
		return "", errors.New(errors.CodeProviderFailure, fmt.Sprintf(
			"grammar verification failed (%d issues): %s", len(issues), issues[0]))
	}

	artifact, _ := p.Manifest.Artifact(p.Language)
	verified := filepath.Join(p.BaseDir, artifact.SharedObjectPath)
	if p.Path != "" && filepath.Clean(p.Path) != filepath.Clean(verified) {
		return "", errors.New(errors.CodeProviderFailure, fmt.Sprintf(
			"configured library %s is not the verified artifact %s", p.Path, verified))
	}
	return verified, nil
}
