package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.yaml.in/yaml/v3"
)

// FormatFor picks the decoder for path from its extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrInvalidUnit, filepath.Ext(path))
	}
}

// Parse reads a definition file and decodes it according to its extension.
// It does not validate the result; see ValidateFile.
func Parse(path string) (*Unit, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	u, err := ParseBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing definition %s: %w", path, err)
	}
	return u, nil
}

// ParseBytes decodes data in the given format.
func ParseBytes(data []byte, format Format) (*Unit, error) {
	var u Unit
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &u); err != nil {
			return nil, err
		}
	case FormatTOML:
		if _, err := toml.Decode(string(data), &u); err != nil {
			return nil, err
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&u); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return &u, nil
}

// decodeGeneric decodes data into plain maps and slices for schema validation.
func decodeGeneric(data []byte, format Format) (any, error) {
	switch format {
	case FormatYAML:
		var raw any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		return raw, nil
	case FormatTOML:
		raw := map[string]any{}
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
		return raw, nil
	case FormatJSON:
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
