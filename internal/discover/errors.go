package discover

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is returned when the agent directory does not exist.
	ErrPathNotFound = errors.New("agent path not found")
	// ErrConfiguration is returned when no agent directory is configured.
	ErrConfiguration = errors.New("agent directory not configured")
)

// ImportError records a unit that failed to load. Discovery logs and
// collects these; it never returns them.
type ImportError struct {
	Unit string
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error for unit %q: %v", e.Unit, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
