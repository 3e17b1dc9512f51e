package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownTool is returned when a tool name is not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is a function an agent can call during a run.
type Tool interface {
	Name() string
	Description() string
	// InputSchema is the JSON Schema object describing the tool arguments.
	InputSchema() map[string]any
	Execute(ctx context.Context, input string) (string, error)
}

// Catalog holds the tools agent definitions may reference by name.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewCatalog() *Catalog {
	return &Catalog{tools: make(map[string]Tool)}
}

// Builtin returns a catalog pre-populated with the bundled tools.
func Builtin() *Catalog {
	c := NewCatalog()
	c.Register(&AddNumbers{})
	c.Register(&CurrentTime{})
	return c
}

// Register adds or replaces a tool.
func (c *Catalog) Register(t Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[t.Name()] = t
}

func (c *Catalog) Get(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// Resolve looks up every name and fails on the first unknown one.
func (c *Catalog) Resolve(names []string) ([]Tool, error) {
	out := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := c.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
		}
		out = append(out, t)
	}
	return out, nil
}

// Names returns the sorted tool names.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tools))
	for name := range c.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
