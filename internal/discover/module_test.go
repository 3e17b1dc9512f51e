package discover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// resolvedTemp returns a symlink-free temp dir (macOS /var -> /private/var).
func resolvedTemp(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestResolveModulePathDirectory(t *testing.T) {
	base := resolvedTemp(t)
	modPath := filepath.Join(base, "pkg", "mod")
	if err := os.MkdirAll(modPath, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := ResolveModulePath(modPath)
	if err != nil {
		t.Fatalf("ResolveModulePath: %v", err)
	}

	if got.ImportPath != "pkg.mod" {
		t.Errorf("ImportPath = %q, want %q", got.ImportPath, "pkg.mod")
	}
	if got.SearchRoot != modPath {
		t.Errorf("SearchRoot = %q, want %q", got.SearchRoot, modPath)
	}
	if got.RawPath != modPath {
		t.Errorf("RawPath = %q, want %q", got.RawPath, modPath)
	}
}

func TestResolveModulePathFile(t *testing.T) {
	base := resolvedTemp(t)
	modPath := filepath.Join(base, "pkg", "mod")
	file := filepath.Join(modPath, "a.yaml")
	writeUnit(t, modPath, "a.yaml", "alpha")

	got, err := ResolveModulePath(file)
	if err != nil {
		t.Fatalf("ResolveModulePath: %v", err)
	}
	if got.SearchRoot != modPath {
		t.Errorf("SearchRoot = %q, want parent %q", got.SearchRoot, modPath)
	}
	if got.ImportPath != "pkg.mod" {
		t.Errorf("ImportPath = %q, want %q", got.ImportPath, "pkg.mod")
	}
	if got.RawPath != file {
		t.Errorf("RawPath = %q, want %q", got.RawPath, file)
	}
}

func TestResolveModulePathRelative(t *testing.T) {
	base := resolvedTemp(t)
	if err := os.MkdirAll(filepath.Join(base, "my", "agents"), 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(filepath.Join(base, "my"))

	got, err := ResolveModulePath("agents")
	if err != nil {
		t.Fatalf("ResolveModulePath: %v", err)
	}
	if got.ImportPath != "my.agents" {
		t.Errorf("ImportPath = %q, want %q", got.ImportPath, "my.agents")
	}
	if !filepath.IsAbs(got.SearchRoot) || !filepath.IsAbs(got.RawPath) {
		t.Errorf("paths not absolute: %+v", got)
	}
}

func TestResolveModulePathFollowsSymlinks(t *testing.T) {
	base := resolvedTemp(t)
	real := filepath.Join(base, "real", "agents")
	if err := os.MkdirAll(real, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := ResolveModulePath(link)
	if err != nil {
		t.Fatalf("ResolveModulePath: %v", err)
	}
	if got.SearchRoot != real {
		t.Errorf("SearchRoot = %q, want %q", got.SearchRoot, real)
	}
	if got.ImportPath != "real.agents" {
		t.Errorf("ImportPath = %q, want %q", got.ImportPath, "real.agents")
	}
	if got.RawPath != link {
		t.Errorf("RawPath = %q, want %q", got.RawPath, link)
	}
}

func TestResolveModulePathMissing(t *testing.T) {
	_, err := ResolveModulePath(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("err = %v, want ErrPathNotFound", err)
	}
	if _, err := ResolveModulePath(""); !errors.Is(err, ErrPathNotFound) {
		t.Errorf("empty path err = %v, want ErrPathNotFound", err)
	}
}

func TestImportPath(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/a/b/c", "b.c"},
		{"/a/b/c/", "b.c"},
		{"/agents", "agents"},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := importPath(tt.dir); got != tt.want {
			t.Errorf("importPath(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestUnitName(t *testing.T) {
	m := ModuleData{ImportPath: "pkg.mod", SearchRoot: "/x/pkg/mod"}

	tests := []struct {
		path string
		want string
	}{
		{"/x/pkg/mod/a.yaml", "pkg.mod.a"},
		{"/x/pkg/mod/team/b.toml", "pkg.mod.team.b"},
	}
	for _, tt := range tests {
		if got := m.unitName(tt.path); got != tt.want {
			t.Errorf("unitName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAgentDirPath(t *testing.T) {
	env := func(v string) LookupEnvFunc {
		return func(key string) (string, bool) {
			if key == EnvAgentDir && v != "" {
				return v, true
			}
			return "", false
		}
	}

	got, err := AgentDirPath("/explicit/path", env("/env/path"))
	if err != nil || got != "/explicit/path" {
		t.Errorf("explicit: got %q, %v", got, err)
	}

	got, err = AgentDirPath("", env("/env/agent/path"))
	if err != nil || got != "/env/agent/path" {
		t.Errorf("env: got %q, %v", got, err)
	}

	_, err = AgentDirPath("", env(""))
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing: err = %v, want ErrConfiguration", err)
	}
}
