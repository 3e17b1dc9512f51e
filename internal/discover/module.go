package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ModuleData describes a resolved agent directory.
type ModuleData struct {
	ImportPath string // dotted name built from the last two directory segments
	SearchRoot string // directory walked for units
	RawPath    string // absolute form of the path that was passed in
}

// ResolveModulePath resolves path to an absolute, symlink-free location.
// The search root is path itself for a directory, otherwise its parent.
// ImportPath joins the last two segments of the search root with a dot:
// ".../pkg/mod" becomes "pkg.mod".
func ResolveModulePath(path string) (ModuleData, error) {
	if path == "" {
		return ModuleData{}, fmt.Errorf("%w: empty path", ErrPathNotFound)
	}

	raw, err := filepath.Abs(path)
	if err != nil {
		return ModuleData{}, fmt.Errorf("resolving %s: %w", path, err)
	}

	resolved, err := filepath.EvalSymlinks(raw)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ModuleData{}, fmt.Errorf("%w: %s", ErrPathNotFound, raw)
		}
		return ModuleData{}, fmt.Errorf("resolving %s: %w", raw, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return ModuleData{}, fmt.Errorf("%w: %s", ErrPathNotFound, raw)
	}

	root := resolved
	if !info.IsDir() {
		root = filepath.Dir(resolved)
	}

	return ModuleData{
		ImportPath: importPath(root),
		SearchRoot: root,
		RawPath:    raw,
	}, nil
}

// importPath joins the trailing two segments of dir.
func importPath(dir string) string {
	dir = filepath.ToSlash(filepath.Clean(dir))
	dir = strings.TrimPrefix(dir, filepath.ToSlash(filepath.VolumeName(dir)))

	var parts []string
	for _, p := range strings.Split(dir, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, ".")
}

// unitName appends the unit's path below the search root to the import path.
func (m ModuleData) unitName(path string) string {
	rel, err := filepath.Rel(m.SearchRoot, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	name := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
	if m.ImportPath == "" {
		return name
	}
	return m.ImportPath + "." + name
}
