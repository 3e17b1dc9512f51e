package manifest

// Unit is one agent definition file. It may declare several agents.
type Unit struct {
	Requires string       `yaml:"requires,omitempty" toml:"requires" json:"requires,omitempty"`
	Agents   []Definition `yaml:"agents" toml:"agents" json:"agents"`
}

// Definition declares a single agent.
type Definition struct {
	Name         string   `yaml:"name" toml:"name" json:"name"`
	Description  string   `yaml:"description,omitempty" toml:"description" json:"description,omitempty"`
	Provider     string   `yaml:"provider,omitempty" toml:"provider" json:"provider,omitempty"`
	Model        string   `yaml:"model,omitempty" toml:"model" json:"model,omitempty"`
	Instructions string   `yaml:"instructions,omitempty" toml:"instructions" json:"instructions,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty" toml:"temperature" json:"temperature,omitempty"`
	MaxTurns     int      `yaml:"max_turns,omitempty" toml:"max_turns" json:"max_turns,omitempty"`
	Tools        []string `yaml:"tools,omitempty" toml:"tools" json:"tools,omitempty"`
}

// Format identifies the encoding of a unit file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Names returns the declared agent names in order.
func (u *Unit) Names() []string {
	names := make([]string, len(u.Agents))
	for i, d := range u.Agents {
		names[i] = d.Name
	}
	return names
}
