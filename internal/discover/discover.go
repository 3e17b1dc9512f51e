package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultExtensions are the file extensions treated as agent units.
var DefaultExtensions = []string{".yaml", ".yml", ".toml", ".json"}

// Unit is one loadable agent definition found under the search root.
type Unit struct {
	Name   string // dotted unit name, e.g. "my.agents.sub.alpha"
	Path   string // absolute file path
	Module ModuleData
}

// Loader loads a single unit. Loading is where registration happens.
type Loader interface {
	Load(ctx context.Context, u Unit) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, u Unit) error

func (f LoaderFunc) Load(ctx context.Context, u Unit) error { return f(ctx, u) }

// Report summarizes one discovery pass.
type Report struct {
	Module  ModuleData
	Loaded  []string // units loaded in this pass
	Skipped []string // units already loaded by an earlier pass
	Failed  []*ImportError
}

// Option configures a Discoverer.
type Option func(*Discoverer)

func WithLogger(l *zap.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// WithLookupEnv replaces os.LookupEnv for the AGENT_DIR_PATH fallback.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(d *Discoverer) { d.lookupEnv = fn }
}

func WithExtensions(exts ...string) Option {
	return func(d *Discoverer) {
		d.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			d.exts[strings.ToLower(e)] = true
		}
	}
}

// Discoverer walks agent directories and loads every unit through its
// Loader. A unit that loaded successfully is never loaded again by the
// same Discoverer.
type Discoverer struct {
	loader    Loader
	logger    *zap.Logger
	lookupEnv LookupEnvFunc
	exts      map[string]bool

	mu     sync.Mutex
	loaded map[string]bool
}

func New(loader Loader, opts ...Option) *Discoverer {
	d := &Discoverer{
		loader:    loader,
		logger:    zap.NewNop(),
		lookupEnv: os.LookupEnv,
		loaded:    make(map[string]bool),
	}
	WithExtensions(DefaultExtensions...)(d)
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("component", "discover"))
	return d
}

// DiscoverAndImport resolves the agent directory (path, else AGENT_DIR_PATH)
// and loads every unit under it. A unit that fails is logged and recorded
// in the report; the walk continues with the next unit. Only configuration
// and path errors, or context cancellation, are returned.
func (d *Discoverer) DiscoverAndImport(ctx context.Context, path string) (*Report, error) {
	dir, err := AgentDirPath(path, d.lookupEnv)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotFound, dir)
		}
		return nil, fmt.Errorf("checking agent path %s: %w", dir, err)
	}

	mod, err := ResolveModulePath(dir)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("discovering agents",
		zap.String("import_path", mod.ImportPath),
		zap.String("search_root", mod.SearchRoot),
	)

	units := d.collect(mod)
	report := &Report{Module: mod}

	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if d.isLoaded(u.Path) {
			report.Skipped = append(report.Skipped, u.Name)
			continue
		}

		if err := d.load(ctx, u); err != nil {
			ie := &ImportError{Unit: u.Name, Path: u.Path, Err: err}
			report.Failed = append(report.Failed, ie)
			d.logger.Error("import error", zap.String("unit", u.Name), zap.String("path", u.Path), zap.Error(err))
			continue
		}

		d.markLoaded(u.Path)
		report.Loaded = append(report.Loaded, u.Name)
		d.logger.Debug("imported", zap.String("unit", u.Name))
	}

	return report, nil
}

// collect walks the search root in lexical order. Hidden and underscore
// prefixed entries are skipped, as are unreadable directories.
func (d *Discoverer) collect(mod ModuleData) []Unit {
	var units []Unit

	_ = filepath.WalkDir(mod.SearchRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			d.logger.Warn("skipping inaccessible path", zap.String("path", path), zap.Error(err))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if path != mod.SearchRoot && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !d.exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}

		units = append(units, Unit{
			Name:   mod.unitName(path),
			Path:   path,
			Module: mod,
		})
		return nil
	})

	return units
}

// load runs the loader, turning a panic into an error.
func (d *Discoverer) load(ctx context.Context, u Unit) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while loading: %v", r)
		}
	}()
	return d.loader.Load(ctx, u)
}

func (d *Discoverer) isLoaded(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded[path]
}

func (d *Discoverer) markLoaded(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded[path] = true
}
