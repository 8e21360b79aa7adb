package host

import (
	"errors"
	"sync"
	"unsafe"

	"grammarbridge/internal/binding/typetag"
	"grammarbridge/internal/shared/observability"

	"github.com/google/uuid"
)

var (
	ErrNilPointer    = errors.New("external pointer must not be nil")
	ErrZeroTag       = errors.New("type tag must not be zero")
	ErrAlreadyTagged = errors.New("external already carries a type tag")
	ErrReleased      = errors.New("external has been released")
)

// External is a host value wrapping an opaque native pointer. The host never
// looks behind the pointer; consumers must check the type tag before they
// reinterpret it.
type External struct {
	id  uuid.UUID
	ptr unsafe.Pointer

	mu       sync.Mutex
	tag      typetag.TypeTag
	tagged   bool
	released bool
}

func (x *External) ID() uuid.UUID { return x.id }

// Pointer returns the wrapped pointer without any type check.
func (x *External) Pointer() unsafe.Pointer { return x.ptr }

// TypeTag attaches tag to the External. Tags are write-once.
func (x *External) TypeTag(tag typetag.TypeTag) error {
	if tag.IsZero() {
		return ErrZeroTag
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.released {
		return ErrReleased
	}
	if x.tagged {
		return ErrAlreadyTagged
	}
	x.tag = tag
	x.tagged = true
	return nil
}

// CheckTypeTag reports whether the External carries exactly tag. Untagged
// Externals never match.
func (x *External) CheckTypeTag(tag typetag.TypeTag) bool {
	x.mu.Lock()
	ok := x.tagged && !x.released && x.tag.Equal(tag)
	x.mu.Unlock()

	result := "match"
	if !ok {
		result = "mismatch"
	}
	observability.TypeTagChecksTotal.WithLabelValues(result).Inc()
	return ok
}

// Tag returns the attached tag, if any.
func (x *External) Tag() (typetag.TypeTag, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.tag, x.tagged
}

func (x *External) release() {
	x.mu.Lock()
	x.released = true
	x.mu.Unlock()
}
