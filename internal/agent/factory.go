package agent

// Factory constructs a fresh Agent on every call to New. Its Name is the
// identifier the agent is registered under.
type Factory interface {
	Name() string
	New() *Agent
}

// NewFunc is a zero-argument agent constructor.
type NewFunc func() *Agent

type namedFactory struct {
	name string
	fn   NewFunc
}

// NewFactory pairs a constructor with the name it is registered under.
func NewFactory(name string, fn NewFunc) Factory {
	return &namedFactory{name: name, fn: fn}
}

func (f *namedFactory) Name() string { return f.name }
func (f *namedFactory) New() *Agent  { return f.fn() }
