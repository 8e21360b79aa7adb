// # internal/engine/parser/parser.go
package parser

import (
	"context"
	"fmt"
	"time"

	"grammarbridge/internal/binding"
	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/host"
	"grammarbridge/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Grammar is a language export that passed the type tag check and has been
// reinterpreted as a tree-sitter language.
type Grammar struct {
	Name     string
	Language *sitter.Language
	pool     *ParserPool
}

// Summary describes one parse result.
type Summary struct {
	Grammar    string `json:"grammar"`
	RootKind   string `json:"root_kind"`
	Nodes      int    `json:"nodes"`
	NamedNodes int    `json:"named_nodes"`
	HasError   bool   `json:"has_error"`
	Bytes      int    `json:"bytes"`
	Duration   string `json:"duration"`
}

// FromExports binds to a loaded binding module. The language export is
// rejected unless it carries the tree-sitter language type tag.
func FromExports(exports *host.Exports) (*Grammar, error) {
	ptr, err := binding.LanguageFromExports(exports)
	if err != nil {
		return nil, err
	}

	name := binding.DefaultName
	if v, ok := exports.Get(binding.KeyName); ok {
		if s, ok := v.(string); ok && s != "" {
			name = s
		}
	}

	lang := sitter.NewLanguage(ptr)
	return &Grammar{
		Name:     name,
		Language: lang,
		pool:     NewParserPool(name, lang),
	}, nil
}

// KindCount returns the number of node kinds the grammar defines.
func (g *Grammar) KindCount() uint32 {
	return g.Language.NodeKindCount()
}

func (g *Grammar) Pool() *ParserPool { return g.pool }

// Parse parses source with a pooled parser and summarizes the tree.
func (g *Grammar) Parse(ctx context.Context, source []byte) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	sp := g.pool.Get()
	defer g.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeInternal, fmt.Sprintf("parser returned no tree for %d bytes", len(source))),
			errors.CtxLanguage, g.Name,
		)
	}
	defer tree.Close()

	elapsed := time.Since(start)
	observability.ParsingDuration.WithLabelValues(g.Name).Observe(elapsed.Seconds())

	root := tree.RootNode()
	summary := &Summary{
		Grammar:  g.Name,
		RootKind: root.Kind(),
		HasError: root.HasError(),
		Bytes:    len(source),
		Duration: elapsed.String(),
	}
	countNodes(tree, summary)
	return summary, nil
}

func countNodes(tree *sitter.Tree, summary *Summary) {
	cursor := tree.Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		summary.Nodes++
		if node.IsNamed() {
			summary.NamedNodes++
		}
		if cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return
			}
		}
	}
}
