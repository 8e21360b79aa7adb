package binding

import (
	"fmt"
	"unsafe"

	"grammarbridge/internal/binding/typetag"
	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/host"
)

// UnwrapLanguage returns the pointer inside value if value is an External
// tagged with tag. Anything else is rejected with CodeTypeMismatch.
func UnwrapLanguage(value any, tag typetag.TypeTag) (unsafe.Pointer, error) {
	ext, ok := value.(*host.External)
	if !ok || ext == nil {
		return nil, errors.New(errors.CodeTypeMismatch, fmt.Sprintf("expected a host external, got %T", value))
	}
	if !ext.CheckTypeTag(tag) {
		return nil, errors.AddContext(
			errors.New(errors.CodeTypeMismatch, "external is not tagged as a tree-sitter language"),
			errors.CtxTag, tag.String(),
		)
	}
	return ext.Pointer(), nil
}

// CheckLanguage reports whether value is a tree-sitter language External.
func CheckLanguage(value any) bool {
	ext, ok := value.(*host.External)
	return ok && ext != nil && ext.CheckTypeTag(typetag.LanguageTypeTag)
}

// LanguageFromExports looks up the language export and unwraps it.
func LanguageFromExports(exports *host.Exports) (unsafe.Pointer, error) {
	if exports == nil {
		return nil, errors.New(errors.CodeNotFound, "module has no exports")
	}
	value, ok := exports.Get(KeyLanguage)
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "module does not export a language"),
			errors.CtxKey, KeyLanguage,
		)
	}
	return UnwrapLanguage(value, typetag.LanguageTypeTag)
}
