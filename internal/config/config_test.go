package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// isolate points HOME and the working directory at fresh temp dirs and
// clears every variable Load reads.
func isolate(t *testing.T) (home, work string) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home = t.TempDir()
	work = t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(work)

	for _, key := range Keys() {
		t.Setenv("THINKY_"+envSuffix(key), "")
		os.Unsetenv("THINKY_" + envSuffix(key))
		for _, alias := range envAliases[key] {
			t.Setenv(alias, "")
			os.Unsetenv(alias)
		}
	}
	return home, work
}

func envSuffix(key string) string {
	out := []byte(key)
	for i, c := range out {
		switch {
		case c == '.':
			out[i] = '_'
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := Current()
	if s.ServerHost != "127.0.0.1" {
		t.Errorf("ServerHost = %q, want 127.0.0.1", s.ServerHost)
	}
	if s.ServerPort != 8000 {
		t.Errorf("ServerPort = %d, want 8000", s.ServerPort)
	}
	if s.DBPath != "thinky.db" {
		t.Errorf("DBPath = %q, want thinky.db", s.DBPath)
	}
	if s.AgentDir != "" {
		t.Errorf("AgentDir = %q, want empty", s.AgentDir)
	}
}

func TestLoadEnvAliases(t *testing.T) {
	isolate(t)
	t.Setenv("AGENT_DIR_PATH", "/srv/agents")
	t.Setenv("PROVIDER", "ollama")
	t.Setenv("BASE_URL", "http://localhost:11434/v1")
	t.Setenv("THINKY_SERVER_PORT", "9100")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := Current()
	if s.AgentDir != "/srv/agents" {
		t.Errorf("AgentDir = %q", s.AgentDir)
	}
	if s.Provider != "ollama" {
		t.Errorf("Provider = %q", s.Provider)
	}
	if s.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.ServerPort != 9100 {
		t.Errorf("ServerPort = %d, want 9100", s.ServerPort)
	}
}

func TestPrefixedVariableWins(t *testing.T) {
	isolate(t)
	t.Setenv("PROVIDER", "ollama")
	t.Setenv("THINKY_PROVIDER", "openai")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := Get(KeyProvider); got != "openai" {
		t.Errorf("provider = %q, want openai", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	_, work := isolate(t)
	env := "AGENT_DIR_PATH=src/demo/agents\nPROVIDER=ollama\n"
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte(env), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := Current().AgentDir; got != "src/demo/agents" {
		t.Errorf("AgentDir = %q, want src/demo/agents", got)
	}
}

func TestSetWritesConfigFile(t *testing.T) {
	home, _ := isolate(t)
	if err := Load(); err != nil {
		t.Fatal(err)
	}

	if err := Set(KeyModel, "llama3.1:latest"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := Get(KeyModel); got != "llama3.1:latest" {
		t.Errorf("Get = %q", got)
	}

	path := filepath.Join(home, ".thinky", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if len(data) == 0 {
		t.Error("config file is empty")
	}

	viper.Reset()
	if err := Load(); err != nil {
		t.Fatal(err)
	}
	if got := Get(KeyModel); got != "llama3.1:latest" {
		t.Errorf("after reload Get = %q", got)
	}
}

func TestSetUnknownKey(t *testing.T) {
	isolate(t)
	if err := Set("colour", "blue"); err == nil {
		t.Error("expected error for unknown key")
	}
}
