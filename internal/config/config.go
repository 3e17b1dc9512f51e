package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/thinky-dev/thinky/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys. Each can also be set through THINKY_<KEY> (dots become
// underscores) and, where listed in envAliases, the plain variable name.
const (
	KeyAgentDir     = "agent_dir"
	KeyProvider     = "provider"
	KeyBaseURL      = "base_url"
	KeyAPIKey       = "api_key"
	KeyAPIVersion   = "api_version"
	KeyModel        = "model"
	KeyDBPath       = "db_path"
	KeyServerHost   = "server.host"
	KeyServerPort   = "server.port"
	KeyOTLPEndpoint = "telemetry.endpoint"
	KeyOTLPInsecure = "telemetry.insecure"
	KeyLogFormat    = "log.format"
)

// envAliases are the unprefixed variables read for a key, highest priority
// first, after THINKY_<KEY>.
var envAliases = map[string][]string{
	KeyAgentDir:     {"AGENT_DIR_PATH"},
	KeyProvider:     {"PROVIDER"},
	KeyBaseURL:      {"BASE_URL", "AZURE_OPENAI_ENDPOINT"},
	KeyAPIKey:       {"API_KEY", "OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "ANTHROPIC_API_KEY"},
	KeyAPIVersion:   {"OPENAI_API_VERSION"},
	KeyModel:        {"MODEL"},
	KeyOTLPEndpoint: {"OTEL_EXPORTER_OTLP_ENDPOINT"},
}

var defaults = map[string]any{
	KeyServerHost:   "127.0.0.1",
	KeyServerPort:   8000,
	KeyLogFormat:    "console",
	KeyOTLPInsecure: true,
}

// Settings is the typed view of the loaded configuration.
type Settings struct {
	AgentDir     string
	Provider     string
	BaseURL      string
	APIKey       string
	APIVersion   string
	Model        string
	DBPath       string
	ServerHost   string
	ServerPort   int
	OTLPEndpoint string
	OTLPInsecure bool
	LogFormat    string
}

// Dir returns the path to the config directory (~/.thinky/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.thinky/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load reads .env from the working directory (without overriding variables
// already set), then initializes Viper from the config file and environment.
func Load() error {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())

	for key, val := range defaults {
		viper.SetDefault(key, val)
	}
	for _, key := range Keys() {
		names := append([]string{branding.EnvVar(key)}, envAliases[key]...)
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
	return nil
}

// Keys returns every known config key, sorted.
func Keys() []string {
	keys := []string{
		KeyAgentDir, KeyProvider, KeyBaseURL, KeyAPIKey, KeyAPIVersion,
		KeyModel, KeyDBPath, KeyServerHost, KeyServerPort,
		KeyOTLPEndpoint, KeyOTLPInsecure, KeyLogFormat,
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a known config key.
func IsKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Current returns the loaded configuration.
func Current() Settings {
	s := Settings{
		AgentDir:     viper.GetString(KeyAgentDir),
		Provider:     viper.GetString(KeyProvider),
		BaseURL:      viper.GetString(KeyBaseURL),
		APIKey:       viper.GetString(KeyAPIKey),
		APIVersion:   viper.GetString(KeyAPIVersion),
		Model:        viper.GetString(KeyModel),
		DBPath:       viper.GetString(KeyDBPath),
		ServerHost:   viper.GetString(KeyServerHost),
		ServerPort:   viper.GetInt(KeyServerPort),
		OTLPEndpoint: viper.GetString(KeyOTLPEndpoint),
		OTLPInsecure: viper.GetBool(KeyOTLPInsecure),
		LogFormat:    viper.GetString(KeyLogFormat),
	}
	if s.DBPath == "" {
		s.DBPath = branding.DBFile()
	}
	return s
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file. Only the
// file's own values are written back; environment values never leak into it.
func Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	file := viper.New()
	file.SetConfigFile(configFile)
	file.SetConfigType(fileType)
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	file.Set(key, value)
	if err := file.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	viper.Set(key, value)
	return nil
}
