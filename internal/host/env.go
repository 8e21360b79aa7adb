package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"grammarbridge/internal/shared/observability"

	"github.com/google/uuid"
)

// Limits caps the resources an Env hands out. Zero means unlimited.
type Limits struct {
	MaxExternals int
	MaxExports   int
}

// Env is one host environment: the scope in which modules are loaded and
// their Externals live. Module inits receive a load scope derived from the
// root Env; Externals created through a scope are owned by the root but
// tracked per load so a failed init releases only its own.
type Env struct {
	ctx    context.Context
	logger *slog.Logger
	limits Limits
	parent *Env

	mu        sync.Mutex
	externals []*External // root: every live External; scope: created by this load
}

type Option func(*Env)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Env) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithLimits(limits Limits) Option {
	return func(e *Env) { e.limits = limits }
}

func NewEnv(ctx context.Context, opts ...Option) *Env {
	if ctx == nil {
		ctx = context.Background()
	}
	e := &Env{
		ctx:    ctx,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Env) Context() context.Context { return e.ctx }

func (e *Env) Logger() *slog.Logger { return e.logger }

func (e *Env) root() *Env {
	if e.parent != nil {
		return e.parent
	}
	return e
}

// NewExternal wraps ptr in a host-owned External.
func (e *Env) NewExternal(ptr unsafe.Pointer) (*External, error) {
	if ptr == nil {
		return nil, ErrNilPointer
	}

	r := e.root()
	r.mu.Lock()
	if r.limits.MaxExternals > 0 && len(r.externals) >= r.limits.MaxExternals {
		r.mu.Unlock()
		return nil, fmt.Errorf("external limit of %d reached", r.limits.MaxExternals)
	}
	x := &External{id: uuid.New(), ptr: ptr}
	r.externals = append(r.externals, x)
	r.mu.Unlock()
	observability.ExternalsLive.Inc()

	if e != r {
		e.mu.Lock()
		e.externals = append(e.externals, x)
		e.mu.Unlock()
	}
	return x, nil
}

// Externals returns the number of live Externals owned by the root Env.
func (e *Env) Externals() int {
	r := e.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.externals)
}

// NewExports returns an empty export table bound to the Env's limits.
func (e *Env) NewExports() *Exports {
	return newExports(e.root().limits.MaxExports)
}

// loadScope returns a child Env that records the Externals one init creates.
func (e *Env) loadScope() *Env {
	r := e.root()
	return &Env{
		ctx:    r.ctx,
		logger: r.logger,
		limits: r.limits,
		parent: r,
	}
}

// rollback releases the Externals created through scope e and removes them
// from the root. Externals created by other loads are untouched.
func (e *Env) rollback() {
	if e.parent == nil {
		return
	}
	e.mu.Lock()
	created := e.externals
	e.externals = nil
	e.mu.Unlock()
	if len(created) == 0 {
		return
	}

	drop := make(map[*External]bool, len(created))
	for _, x := range created {
		x.release()
		drop[x] = true
		observability.ExternalsLive.Dec()
	}

	r := e.parent
	r.mu.Lock()
	kept := r.externals[:0]
	for _, x := range r.externals {
		if !drop[x] {
			kept = append(kept, x)
		}
	}
	for i := len(kept); i < len(r.externals); i++ {
		r.externals[i] = nil
	}
	r.externals = kept
	r.mu.Unlock()
}
