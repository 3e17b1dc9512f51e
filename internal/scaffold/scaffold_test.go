package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/manifest"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Weather Bot", "weather_bot"},
		{"my-agents.v2", "my_agents_v2"},
		{"Hello, World!", "hello_world_"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewProjectData(t *testing.T) {
	t.Run("ollama defaults", func(t *testing.T) {
		d, err := NewProjectData("Demo Project", "")
		if err != nil {
			t.Fatalf("NewProjectData() error: %v", err)
		}
		if d.Name != "demo_project" {
			t.Errorf("Name = %q, want %q", d.Name, "demo_project")
		}
		if d.Provider != "ollama" {
			t.Errorf("Provider = %q, want ollama", d.Provider)
		}
		if d.BaseURL != defaultOllamaURL {
			t.Errorf("BaseURL = %q, want %q", d.BaseURL, defaultOllamaURL)
		}
		if d.Year == 0 {
			t.Error("Year should not be zero")
		}
	})

	t.Run("empty name", func(t *testing.T) {
		if _, err := NewProjectData("  ", "ollama"); err == nil {
			t.Error("expected error for empty name")
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProjectData("demo", "skynet")
		if !errors.Is(err, llm.ErrUnknownProvider) {
			t.Errorf("err = %v, want ErrUnknownProvider", err)
		}
	})
}

func TestGenerateOllamaProject(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "demo")
	d, err := NewProjectData("demo", "ollama")
	if err != nil {
		t.Fatal(err)
	}

	result, err := Generate(d, outDir)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	assertFiles(t, result, []string{".env", ".gitignore", "README.md", "agents/assistant.yaml"})
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}

	env := readFile(t, filepath.Join(outDir, ".env"))
	for _, want := range []string{"AGENT_DIR_PATH=agents\n", "PROVIDER=ollama\n", "BASE_URL=http://localhost:11434/v1\n"} {
		if !strings.Contains(env, want) {
			t.Errorf(".env missing %q:\n%s", want, env)
		}
	}
	if strings.Contains(env, "AZURE") {
		t.Errorf(".env should not mention azure:\n%s", env)
	}

	info, err := os.Stat(filepath.Join(outDir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf(".env mode = %v, want 0600", info.Mode().Perm())
	}

	u, err := manifest.Parse(filepath.Join(outDir, "agents", "assistant.yaml"))
	if err != nil {
		t.Fatalf("parsing generated agent: %v", err)
	}
	if u.Agents[0].Description != "General purpose assistant for demo" {
		t.Errorf("Description = %q", u.Agents[0].Description)
	}
}

func TestGenerateAzureProject(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "az")
	d, err := NewProjectData("az", "azure")
	if err != nil {
		t.Fatal(err)
	}
	d.BaseURL = "https://example.openai.azure.com"
	d.APIVersion = "2025-03-01-preview"
	d.APIKey = "secret"

	if _, err := Generate(d, outDir); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	env := readFile(t, filepath.Join(outDir, ".env"))
	for _, want := range []string{
		"AZURE_OPENAI_ENDPOINT=https://example.openai.azure.com\n",
		"OPENAI_API_VERSION=2025-03-01-preview\n",
		"AZURE_OPENAI_API_KEY=secret\n",
	} {
		if !strings.Contains(env, want) {
			t.Errorf(".env missing %q:\n%s", want, env)
		}
	}
	if strings.Contains(env, "BASE_URL=") {
		t.Errorf(".env should not set BASE_URL for azure:\n%s", env)
	}
}

func TestGenerateRefusesNonEmptyDir(t *testing.T) {
	outDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(outDir, "keep.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	d, _ := NewProjectData("demo", "ollama")

	if _, err := Generate(d, outDir); err == nil {
		t.Fatal("expected error for non-empty output directory")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dot_env.tmpl", ".env"},
		{"README.md.tmpl", "README.md"},
		{"agents/assistant.yaml.tmpl", "agents/assistant.yaml"},
		{"agents/dot_keep.tmpl", "agents/.keep"},
	}
	for _, tt := range tests {
		if got := outputName(tt.in); got != tt.want {
			t.Errorf("outputName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func assertFiles(t *testing.T, result *Result, want []string) {
	t.Helper()
	got := append([]string(nil), result.Files...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Files = %v, want %v", got, want)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
