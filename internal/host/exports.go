package host

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrSealed   = errors.New("export table is sealed")
	ErrEmptyKey = errors.New("export key must not be empty")
	ErrNilValue = errors.New("export value must not be nil")
)

// Exports is a module's export table. Modules fill it during init; the
// registry seals it once init succeeds.
type Exports struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]any
	max    int
	sealed bool
}

func newExports(max int) *Exports {
	return &Exports{values: make(map[string]any), max: max}
}

// Set stores value under key, replacing any earlier value.
func (t *Exports) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if value == nil {
		return ErrNilValue
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed {
		return ErrSealed
	}
	if _, exists := t.values[key]; !exists {
		if t.max > 0 && len(t.keys) >= t.max {
			return fmt.Errorf("export limit of %d reached", t.max)
		}
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
	return nil
}

func (t *Exports) Get(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[key]
	return v, ok
}

// Keys returns the export keys in insertion order.
func (t *Exports) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.keys...)
}

func (t *Exports) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.keys)
}

func (t *Exports) Sealed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sealed
}

func (t *Exports) seal() {
	t.mu.Lock()
	t.sealed = true
	t.mu.Unlock()
}
