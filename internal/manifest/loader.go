package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/thinky-dev/thinky/internal/agent"
	"github.com/thinky-dev/thinky/internal/discover"
	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/tools"
)

// Loader registers the agents declared in definition files. It satisfies
// discover.Loader.
type Loader struct {
	registry *registry.Registry
	catalog  *tools.Catalog
	version  string
	logger   *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithVersion sets the thinky version that requires constraints are
// checked against. Versions that are not valid semver (such as "dev")
// satisfy every constraint.
func WithVersion(v string) LoaderOption {
	return func(l *Loader) { l.version = v }
}

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

func NewLoader(reg *registry.Registry, catalog *tools.Catalog, opts ...LoaderOption) *Loader {
	l := &Loader{
		registry: reg,
		catalog:  catalog,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load checks the unit and registers each of its agents in order.
func (l *Loader) Load(ctx context.Context, u discover.Unit) error {
	unit, resolved, err := l.check(u.Path)
	if err != nil {
		return err
	}

	for i, def := range unit.Agents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := l.registry.Register(factoryFor(def, resolved[i])); err != nil {
			return fmt.Errorf("registering %s from %s: %w", def.Name, u.Name, err)
		}
		l.logger.Debug("registered agent",
			zap.String("agent", def.Name),
			zap.String("unit", u.Name),
		)
	}
	return nil
}

// Check parses and validates a definition file without registering
// anything. Tool names and the requires constraint are checked too.
func (l *Loader) Check(path string) (*Unit, error) {
	unit, _, err := l.check(path)
	return unit, err
}

func (l *Loader) check(path string) (*Unit, [][]tools.Tool, error) {
	result, err := ValidateFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrInvalidUnit, path, err)
	}
	if !result.Valid {
		msgs := make([]string, len(result.Issues))
		for i, issue := range result.Issues {
			msgs[i] = issue.String()
		}
		return nil, nil, fmt.Errorf("%w: %s: %s", ErrInvalidUnit, path, strings.Join(msgs, "; "))
	}

	unit, err := Parse(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidUnit, err)
	}

	if err := checkRequires(unit.Requires, l.version); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	seen := make(map[string]bool, len(unit.Agents))
	resolved := make([][]tools.Tool, len(unit.Agents))
	for i, def := range unit.Agents {
		if seen[def.Name] {
			return nil, nil, fmt.Errorf("%w: %s: agent %q declared twice", ErrInvalidUnit, path, def.Name)
		}
		seen[def.Name] = true

		ts, err := l.catalog.Resolve(def.Tools)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: agent %q: %w", path, def.Name, err)
		}
		resolved[i] = ts
	}

	return unit, resolved, nil
}

// checkRequires reports whether version satisfies the constraint.
func checkRequires(requires, version string) error {
	if requires == "" {
		return nil
	}
	c, err := semver.NewConstraint(requires)
	if err != nil {
		return fmt.Errorf("%w: requires %q: %v", ErrInvalidUnit, requires, err)
	}
	v, err := semver.NewVersion(strings.TrimPrefix(version, "v"))
	if err != nil {
		return nil
	}
	if !c.Check(v) {
		return fmt.Errorf("%w: requires %s, running %s", ErrIncompatibleVersion, requires, version)
	}
	return nil
}

func factoryFor(def Definition, ts []tools.Tool) agent.Factory {
	return agent.NewFactory(def.Name, func() *agent.Agent {
		a := &agent.Agent{
			Name:         def.Name,
			Description:  def.Description,
			Provider:     def.Provider,
			Model:        def.Model,
			Instructions: def.Instructions,
			MaxTurns:     def.MaxTurns,
			Tools:        append([]tools.Tool(nil), ts...),
		}
		if def.Temperature != nil {
			t := *def.Temperature
			a.Temperature = &t
		}
		return a
	})
}
