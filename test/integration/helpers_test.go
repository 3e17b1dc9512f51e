//go:build integration

package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/thinky-dev/thinky/internal/discover"
	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/manifest"
	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/scaffold"
	"github.com/thinky-dev/thinky/internal/store"
	"github.com/thinky-dev/thinky/internal/tools"
)

// testEnv holds an isolated project and its wiring.
type testEnv struct {
	ProjectDir string // generated project root
	AgentDir   string // ProjectDir/agents
	Registry   *registry.Registry
	Store      *store.Store
	Report     *discover.Report
	Model      *fakeModel
}

// setupTestEnv scaffolds a project, discovers its agents and points an
// ollama provider at a fake model server.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	projectDir := filepath.Join(t.TempDir(), "demo")
	data, err := scaffold.NewProjectData("demo", llm.ProviderOllama)
	if err != nil {
		t.Fatalf("NewProjectData: %v", err)
	}
	if _, err := scaffold.Generate(data, projectDir); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	env := &testEnv{
		ProjectDir: projectDir,
		AgentDir:   filepath.Join(projectDir, scaffold.AgentDir),
		Model:      newFakeModel(t),
	}

	// Extra units next to the scaffolded one.
	writeFile(t, filepath.Join(env.AgentDir, "team", "math.yaml"), `agents:
  - name: calculator
    description: Adds numbers
    model: llama3.1
    max_turns: 4
    tools: [add_numbers]
`)
	writeFile(t, filepath.Join(env.AgentDir, "broken.yaml"), `agents:
  - name: teleporter
    tools: [teleport]
`)

	env.Registry = registry.New()
	loader := manifest.NewLoader(env.Registry, tools.Builtin(), manifest.WithVersion("0.3.0"))
	report, err := discover.New(loader).DiscoverAndImport(context.Background(), env.AgentDir)
	if err != nil {
		t.Fatalf("DiscoverAndImport: %v", err)
	}
	env.Report = report

	env.Store, err = store.Open(filepath.Join(t.TempDir(), "thinky.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = env.Store.Close() })

	return env
}

func (e *testEnv) settings() llm.Settings {
	return llm.Settings{
		Provider: llm.ProviderOllama,
		BaseURL:  e.Model.URL + "/v1/",
	}
}

// fakeModel speaks the Responses API. A request that carries no tool output
// yet gets a function call for add_numbers when the agent has that tool;
// everything else gets a final text answer.
type fakeModel struct {
	URL string

	mu       sync.Mutex
	requests int
}

func newFakeModel(t *testing.T) *fakeModel {
	t.Helper()
	m := &fakeModel{}
	srv := httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(srv.Close)
	m.URL = srv.URL
	return m
}

func (m *fakeModel) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/responses" {
		http.NotFound(w, r)
		return
	}
	m.mu.Lock()
	m.requests++
	m.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(string(body), `"add_numbers"`) && !strings.Contains(string(body), "function_call_output") {
		_, _ = io.WriteString(w, functionCallResponse)
		return
	}
	_, _ = io.WriteString(w, textResponse)
}

func (m *fakeModel) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests
}

const functionCallResponse = `{
  "id": "resp_1",
  "object": "response",
  "created_at": 1700000000,
  "model": "llama3.1",
  "status": "completed",
  "output": [
    {"type": "function_call", "id": "fc_1", "call_id": "call_1", "name": "add_numbers", "arguments": "{\"a\":2,\"b\":3}", "status": "completed"}
  ],
  "usage": {"input_tokens": 10, "output_tokens": 5, "total_tokens": 15}
}`

const textResponse = `{
  "id": "resp_2",
  "object": "response",
  "created_at": 1700000001,
  "model": "llama3.1",
  "status": "completed",
  "output": [
    {"type": "message", "id": "msg_1", "role": "assistant", "status": "completed",
     "content": [{"type": "output_text", "text": "The sum is 5.", "annotations": []}]}
  ],
  "usage": {"input_tokens": 20, "output_tokens": 7, "total_tokens": 27}
}`

// writeFile creates a file with the given content, creating parent dirs as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating parent dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected file to exist: %s", path)
		return
	}
	if info.IsDir() {
		t.Errorf("expected file but found directory: %s", path)
	}
}
