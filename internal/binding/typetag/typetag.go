// Package typetag defines the 128-bit identity tags attached to host
// External objects so consumers can tell what an opaque pointer refers to
// before reinterpreting it.
package typetag

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// TypeTag is a two-word identity tag. The zero value means "untagged".
type TypeTag struct {
	Lower uint64
	Upper uint64
}

// LanguageTypeTag marks an External whose pointer is a TSLanguage. The value
// is shared with every other tree-sitter binding and must never change. It
// is embedded verbatim: Derive("tree-sitter", "language") does not
// reproduce it, because the upstream input encoding was never recorded.
var LanguageTypeTag = TypeTag{
	Lower: 0x8AF2E5212AD58ABF,
	Upper: 0xD5006CAD83ABBA16,
}

// Size is the tag width in bytes.
const Size = 16

// Derive computes a tag for a new object category. The parts are joined with
// NUL separators and hashed with BLAKE2b-128; the digest is split
// little-endian into the two words. Tags for new categories come from here;
// LanguageTypeTag does not.
func Derive(category ...string) TypeTag {
	h, err := blake2b.New(Size, nil)
	if err != nil {
		// Only possible for an invalid size or an oversized key.
		panic(err)
	}
	for i, part := range category {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return FromBytes(h.Sum(nil))
}

// FromBytes builds a tag from a 16 byte little-endian digest.
func FromBytes(b []byte) TypeTag {
	if len(b) != Size {
		panic(fmt.Sprintf("typetag: expected %d bytes, got %d", Size, len(b)))
	}
	return TypeTag{
		Lower: binary.LittleEndian.Uint64(b[:8]),
		Upper: binary.LittleEndian.Uint64(b[8:]),
	}
}

// Bytes returns the little-endian encoding of t.
func (t TypeTag) Bytes() []byte {
	b := make([]byte, Size)
	binary.LittleEndian.PutUint64(b[:8], t.Lower)
	binary.LittleEndian.PutUint64(b[8:], t.Upper)
	return b
}

func (t TypeTag) IsZero() bool { return t.Lower == 0 && t.Upper == 0 }

func (t TypeTag) Equal(other TypeTag) bool {
	return t.Lower == other.Lower && t.Upper == other.Upper
}

func (t TypeTag) String() string {
	return fmt.Sprintf("0x%016X:0x%016X", t.Lower, t.Upper)
}

// Parse reads the "0xLOWER:0xUPPER" form produced by String. The 0x prefix
// is optional and hex digits are case-insensitive.
func Parse(s string) (TypeTag, error) {
	lower, upper, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return TypeTag{}, fmt.Errorf("type tag %q must be of the form 0xLOWER:0xUPPER", s)
	}
	lo, err := parseWord(lower)
	if err != nil {
		return TypeTag{}, fmt.Errorf("type tag %q lower word: %w", s, err)
	}
	hi, err := parseWord(upper)
	if err != nil {
		return TypeTag{}, fmt.Errorf("type tag %q upper word: %w", s, err)
	}
	return TypeTag{Lower: lo, Upper: hi}, nil
}

func parseWord(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("empty word")
	}
	return strconv.ParseUint(s, 16, 64)
}
