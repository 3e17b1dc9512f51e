package registry

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/thinky-dev/thinky/internal/agent"
)

var (
	// ErrDuplicateAgent is returned by Register when the id is already taken.
	ErrDuplicateAgent = errors.New("agent already registered")
	// ErrUnknownAgent is returned by Get when no factory has the id.
	ErrUnknownAgent = errors.New("agent not registered")
	// ErrInvalidAgentID is returned when a factory has no usable name.
	ErrInvalidAgentID = errors.New("invalid agent id")
)

// Registry maps agent ids to factories. The zero value is not usable; call New.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]agent.Factory
	order     []string
}

func New() *Registry {
	return &Registry{factories: make(map[string]agent.Factory)}
}

// Register stores f under f.Name() and returns f unchanged. A taken id
// leaves the existing entry untouched.
func (r *Registry) Register(f agent.Factory) (agent.Factory, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidAgentID)
	}
	id := f.Name()
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidAgentID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateAgent, id)
	}
	r.factories[id] = f
	r.order = append(r.order, id)
	return f, nil
}

// MustRegister is Register for package init code; it panics on error.
func (r *Registry) MustRegister(f agent.Factory) agent.Factory {
	f, err := r.Register(f)
	if err != nil {
		panic(err)
	}
	return f
}

// RegisterFunc registers fn under its Go function name, so
//
//	func calc() *agent.Agent { ... }
//
// is registered as "calc". Anonymous functions have no usable name.
func (r *Registry) RegisterFunc(fn agent.NewFunc) (agent.Factory, error) {
	name, err := funcName(fn)
	if err != nil {
		return nil, err
	}
	return r.Register(agent.NewFactory(name, fn))
}

// Get builds a new agent from the factory registered under id.
func (r *Registry) Get(id string) (*agent.Agent, error) {
	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return f.New(), nil
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[id]
	return ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear drops every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]agent.Factory)
	r.order = nil
}

// funcName extracts the bare identifier of a named function value.
func funcName(fn agent.NewFunc) (string, error) {
	if fn == nil {
		return "", fmt.Errorf("%w: nil function", ErrInvalidAgentID)
	}
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "", fmt.Errorf("%w: cannot resolve function name", ErrInvalidAgentID)
	}

	// "github.com/x/y/pkg.name", "github.com/x/y/pkg.(*T).name-fm" or
	// "github.com/x/y/pkg.name[...]" for a generic instantiation.
	full := rf.Name()
	sym := strings.ReplaceAll(full, "[...]", "")
	sym = sym[strings.LastIndex(sym, "/")+1:]
	method := strings.HasSuffix(sym, "-fm")
	parts := strings.Split(strings.TrimSuffix(sym, "-fm"), ".")
	name := parts[len(parts)-1]

	if name == "" || (!method && isClosure(parts)) {
		return "", fmt.Errorf("%w: anonymous function %s", ErrInvalidAgentID, full)
	}
	return name, nil
}

// isClosure reports closure symbols such as "pkg.Outer.func1" and
// "pkg.Outer.func1.2". A closure always sits under a parent segment, so a
// package-level function named func1 ("pkg.func1") is not one.
func isClosure(parts []string) bool {
	if len(parts) < 3 {
		return false
	}
	last := strings.TrimPrefix(parts[len(parts)-1], "func")
	if last == "" {
		return false
	}
	for _, c := range last {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
