package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/manifest"
)

//go:embed scaffolds
var scaffoldFS embed.FS

const (
	projectTemplates = "scaffolds/project"

	// AgentDir is the agent directory inside a generated project.
	AgentDir = "agents"

	defaultOllamaURL = "http://localhost:11434/v1"
)

var separators = regexp.MustCompile(`[ \-.,?!]+`)

// ProjectData holds all template variables available to project templates.
type ProjectData struct {
	Name       string // sanitized project name, e.g. "weather_bot"
	Provider   string // one of llm.ValidProviders
	BaseURL    string // ollama base URL or azure endpoint
	APIKey     string
	APIVersion string // azure only
	Model      string
	AgentDir   string
	Year       int
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// Sanitize lowercases name and collapses spaces and punctuation into "_".
func Sanitize(name string) string {
	return strings.ToLower(separators.ReplaceAllString(strings.TrimSpace(name), "_"))
}

// NewProjectData creates ProjectData with derived fields populated.
func NewProjectData(name, provider string) (*ProjectData, error) {
	clean := Sanitize(name)
	if clean == "" || clean == "_" {
		return nil, fmt.Errorf("project name cannot be empty")
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = llm.ProviderOllama
	}
	if !slices.Contains(llm.ValidProviders, provider) {
		return nil, fmt.Errorf("%w: %q, choose one of: %s", llm.ErrUnknownProvider, provider, strings.Join(llm.ValidProviders, ", "))
	}

	d := &ProjectData{
		Name:     clean,
		Provider: provider,
		AgentDir: AgentDir,
		Year:     time.Now().Year(),
	}
	if provider == llm.ProviderOllama {
		d.BaseURL = defaultOllamaURL
	}
	return d, nil
}

// Generate writes a new agent project into outputDir, which must be empty
// or absent.
func Generate(data *ProjectData, outputDir string) (*Result, error) {
	if _, err := fs.Stat(scaffoldFS, projectTemplates); err != nil {
		return nil, fmt.Errorf("template set %q not found: %w", projectTemplates, err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existingEntries, err := os.ReadDir(outputDir)
	if err == nil && len(existingEntries) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{
		OutputDir: outputDir,
	}

	err = fs.WalkDir(scaffoldFS, projectTemplates, func(tmplPath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(tmplPath, projectTemplates+"/")
		outRel := outputName(rel)
		outPath := filepath.Join(outputDir, filepath.FromSlash(outRel))

		tmplBytes, err := fs.ReadFile(scaffoldFS, tmplPath)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", tmplPath, err)
		}

		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), fileMode(outRel)); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}

		result.Files = append(result.Files, outRel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Validate the generated agent definitions against JSON Schema.
	for _, f := range result.Files {
		if !strings.HasPrefix(f, AgentDir+"/") {
			continue
		}
		valResult, valErr := manifest.ValidateFile(filepath.Join(outputDir, filepath.FromSlash(f)))
		if valErr != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Could not validate %s: %v", f, valErr))
			continue
		}
		for _, issue := range valResult.Issues {
			result.Warnings = append(result.Warnings, f+": "+issue.String())
		}
	}

	return result, nil
}

// outputName strips .tmpl and turns a leading "dot_" into ".".
func outputName(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	dir, base := path.Split(rel)
	if strings.HasPrefix(base, "dot_") {
		base = "." + strings.TrimPrefix(base, "dot_")
	}
	return dir + base
}

// fileMode keeps secrets in .env private.
func fileMode(rel string) os.FileMode {
	if path.Base(rel) == ".env" {
		return 0600
	}
	return 0644
}
