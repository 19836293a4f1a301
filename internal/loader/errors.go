package loader

import (
	"fmt"

	"github.com/dayuer/justrobot-go/internal/component"
)

// Kind classifies a load failure.
type Kind int

const (
	NotFound Kind = iota + 1
	ImportFailure
	InterfaceMismatch
	PermissionDenied
	AttachFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ImportFailure:
		return "import failure"
	case InterfaceMismatch:
		return "interface mismatch"
	case PermissionDenied:
		return "permission denied"
	case AttachFailure:
		return "attach failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// LoadError is the single failure type produced while loading a module.
type LoadError struct {
	Kind   Kind
	Family component.Family
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Family, e.Path, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
