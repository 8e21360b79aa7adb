package app

import (
	"fmt"

	"grammarbridge/internal/binding"
	"grammarbridge/internal/host"
)

// ExportDescription is the printable form of one export entry.
type ExportDescription struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Value   string `json:"value,omitempty"`
	TypeTag string `json:"type_tag,omitempty"`
	Trusted bool   `json:"trusted"`
}

// Describe lists exports in order without dereferencing any External.
func Describe(exports *host.Exports) []ExportDescription {
	out := make([]ExportDescription, 0, exports.Len())
	for _, key := range exports.Keys() {
		value, _ := exports.Get(key)
		desc := ExportDescription{Key: key}
		switch v := value.(type) {
		case string:
			desc.Kind = "string"
			desc.Value = v
		case *host.External:
			desc.Kind = "external"
			desc.Value = v.ID().String()
			if tag, ok := v.Tag(); ok {
				desc.TypeTag = tag.String()
			}
			desc.Trusted = binding.CheckLanguage(v)
		default:
			desc.Kind = fmt.Sprintf("%T", value)
			desc.Value = fmt.Sprint(value)
		}
		out = append(out, desc)
	}
	return out
}
