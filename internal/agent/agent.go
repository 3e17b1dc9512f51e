package agent

import "github.com/thinky-dev/thinky/internal/tools"

// DefaultMaxTurns bounds the model/tool loop when an agent does not set one.
const DefaultMaxTurns = 10

// Agent is a runnable LLM-backed workflow produced by a Factory.
type Agent struct {
	Name         string
	Description  string
	Provider     string // empty = configured default provider
	Model        string
	Instructions string
	Temperature  *float64
	MaxTurns     int
	Tools        []tools.Tool
}

// Turns returns the effective turn limit.
func (a *Agent) Turns() int {
	if a.MaxTurns <= 0 {
		return DefaultMaxTurns
	}
	return a.MaxTurns
}

// Tool returns the agent tool with the given name.
func (a *Agent) Tool(name string) (tools.Tool, bool) {
	for _, t := range a.Tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
