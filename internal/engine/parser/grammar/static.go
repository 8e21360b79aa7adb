package grammar

import (
	"fmt"
	"strings"
	"unsafe"

	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/shared/util"

	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Grammars linked into the binary.
var staticFactories = map[string]func() unsafe.Pointer{
	"css":        tree_sitter_css.Language,
	"go":         tree_sitter_go.Language,
	"html":       tree_sitter_html.Language,
	"java":       tree_sitter_java.Language,
	"javascript": tree_sitter_javascript.Language,
	"python":     tree_sitter_python.Language,
	"rust":       tree_sitter_rust.Language,
	"tsx":        tree_sitter_typescript.LanguageTSX,
	"typescript": tree_sitter_typescript.LanguageTypescript,
}

// Static returns the provider for a grammar compiled into the binary.
func Static(language string) (Provider, error) {
	language = strings.TrimSpace(strings.ToLower(language))
	factory, ok := staticFactories[language]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("grammar %q is not linked into this binary", language)),
			errors.CtxLanguage, language,
		)
	}
	return Func("static:"+language, factory), nil
}

// StaticLanguages lists the linked grammars, sorted.
func StaticLanguages() []string {
	return util.SortedStringKeys(staticFactories)
}
