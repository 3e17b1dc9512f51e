package discover

import (
	"fmt"
	"os"
	"strings"
)

// EnvAgentDir names the environment variable holding the default agent directory.
const EnvAgentDir = "AGENT_DIR_PATH"

// LookupEnvFunc matches os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// AgentDirPath picks the directory to discover: the explicit path if given,
// otherwise the value of AGENT_DIR_PATH.
func AgentDirPath(path string, lookup LookupEnvFunc) (string, error) {
	if path != "" {
		return path, nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvAgentDir); ok && strings.TrimSpace(v) != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: missing required environment variable %s", ErrConfiguration, EnvAgentDir)
}
