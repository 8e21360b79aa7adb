package host

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"grammarbridge/internal/core/errors"
	"grammarbridge/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InitFunc populates exports for one module load. Returning an error aborts
// the load; nothing the function stored becomes visible.
type InitFunc func(env *Env, exports *Exports) error

type loadKey struct {
	env *Env
	id  string
}

type loadState struct {
	once    sync.Once
	exports *Exports
	err     error
}

// Registry maps module ids to their init functions and runs each init at
// most once per Env.
type Registry struct {
	mu      sync.Mutex
	modules map[string]InitFunc
	loads   map[loadKey]*loadState
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]InitFunc),
		loads:   make(map[loadKey]*loadState),
	}
}

func (r *Registry) Register(id string, fn InitFunc) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New(errors.CodeValidationError, "module id must not be empty")
	}
	if fn == nil {
		return errors.New(errors.CodeValidationError, fmt.Sprintf("module %q has no init function", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[id]; exists {
		return errors.New(errors.CodeConflict, fmt.Sprintf("module %q already registered", id))
	}
	r.modules[id] = fn
	return nil
}

// Modules returns the registered module ids, sorted.
func (r *Registry) Modules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.modules))
	for id := range r.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load initializes module id in env and returns its sealed export table.
// The first call runs the init function; later calls return the cached
// outcome, including a cached failure.
func (r *Registry) Load(env *Env, id string) (*Exports, error) {
	r.mu.Lock()
	fn, ok := r.modules[id]
	if !ok {
		r.mu.Unlock()
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("module %q is not registered", id))
	}
	env = env.root()
	key := loadKey{env: env, id: id}
	state, ok := r.loads[key]
	if !ok {
		state = &loadState{}
		r.loads[key] = state
	}
	r.mu.Unlock()

	state.once.Do(func() {
		state.exports, state.err = runInit(env, id, fn)
	})
	return state.exports, state.err
}

func runInit(env *Env, id string, fn InitFunc) (exports *Exports, err error) {
	_, span := observability.Tracer.Start(env.Context(), "host.Load",
		trace.WithAttributes(attribute.String("module", id)))
	start := time.Now()
	scope := env.loadScope()

	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.CodeInternal, fmt.Sprintf("module init panicked: %v", r))
		}
		if err != nil {
			exports = nil
			scope.rollback()
			err = errors.AddContext(err, errors.CtxModule, id)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			env.Logger().Error("module load failed", "module", id, "error", err)
			observability.ModuleInitTotal.WithLabelValues(id, string(errors.CodeOf(err))).Inc()
		} else {
			env.Logger().Debug("module loaded", "module", id, "exports", exports.Keys())
			observability.ModuleInitTotal.WithLabelValues(id, "ok").Inc()
		}
		observability.ModuleInitDuration.WithLabelValues(id).Observe(time.Since(start).Seconds())
		span.End()
	}()

	staged := env.NewExports()
	if err := fn(scope, staged); err != nil {
		return nil, err
	}
	staged.seal()
	return staged, nil
}
