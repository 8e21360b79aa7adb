// Package binding publishes a compiled tree-sitter grammar to a host runtime.
//
// On load the module acquires one grammar handle from its Provider, wraps it
// in a host External, tags the External with typetag.LanguageTypeTag and
// exports two values:
//
//	name     -> the grammar name ("parser")
//	language -> the tagged External
//
// Consumers must pass the language value through UnwrapLanguage (or check the
// tag themselves) before treating the pointer as a TSLanguage.
package binding

import (
	"fmt"
	"unsafe"

	"grammarbridge/internal/binding/typetag"
	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/engine/parser/grammar"
	"grammarbridge/internal/host"
	"grammarbridge/internal/shared/observability"
)

const (
	DefaultName     = "parser"
	DefaultModuleID = "tree_sitter_parser_binding"

	KeyName     = "name"
	KeyLanguage = "language"
)

type Module struct {
	ID       string
	Name     string
	Tag      typetag.TypeTag
	Provider grammar.Provider
}

type Option func(*Module)

func WithName(name string) Option {
	return func(m *Module) { m.Name = name }
}

func WithModuleID(id string) Option {
	return func(m *Module) { m.ID = id }
}

// WithTypeTag overrides the identity tag. Only useful for bindings that wrap
// something other than a TSLanguage.
func WithTypeTag(tag typetag.TypeTag) Option {
	return func(m *Module) { m.Tag = tag }
}

func New(provider grammar.Provider, opts ...Option) *Module {
	m := &Module{
		ID:       DefaultModuleID,
		Name:     DefaultName,
		Tag:      typetag.LanguageTypeTag,
		Provider: provider,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register makes the module loadable from reg under its ID.
func (m *Module) Register(reg *host.Registry) error {
	return reg.Register(m.ID, m.Init)
}

// Init is the module's host init function.
func (m *Module) Init(env *host.Env, exports *host.Exports) error {
	if err := exports.Set(KeyName, m.Name); err != nil {
		return exportFailure(err, KeyName)
	}

	ptr, err := m.acquire()
	if err != nil {
		return err
	}
	env.Logger().Debug("grammar acquired", "module", m.ID, "provider", m.Provider.Name())

	language, err := env.NewExternal(ptr)
	if err != nil {
		return exportFailure(err, KeyLanguage)
	}
	if err := language.TypeTag(m.Tag); err != nil {
		return errors.AddContext(
			errors.Wrap(err, errors.CodeTagAttachmentFailure, "failed to tag grammar handle"),
			errors.CtxTag, m.Tag.String(),
		)
	}
	if err := exports.Set(KeyLanguage, language); err != nil {
		return exportFailure(err, KeyLanguage)
	}

	env.Logger().Debug("grammar exported", "module", m.ID, "name", m.Name, "external", language.ID())
	return nil
}

func (m *Module) acquire() (unsafe.Pointer, error) {
	if m.Provider == nil {
		return nil, errors.New(errors.CodeProviderFailure, "no grammar provider configured")
	}

	ptr, err := m.Provider.Acquire()
	if err == nil && ptr == nil {
		err = errors.New(errors.CodeProviderFailure, fmt.Sprintf("grammar provider %q returned a nil handle", m.Provider.Name()))
	}
	if err != nil {
		observability.GrammarAcquireTotal.WithLabelValues(m.Provider.Name(), "error").Inc()
		if !errors.IsCode(err, errors.CodeProviderFailure) {
			err = errors.Wrap(err, errors.CodeProviderFailure, "grammar provider failed")
		}
		return nil, err
	}
	observability.GrammarAcquireTotal.WithLabelValues(m.Provider.Name(), "ok").Inc()
	return ptr, nil
}

func exportFailure(err error, key string) error {
	return errors.AddContext(
		errors.Wrap(err, errors.CodeExportRegistrationFailure, "failed to register export"),
		errors.CtxKey, key,
	)
}
