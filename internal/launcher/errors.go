package launcher

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingExecutable means the selected architecture has no installed emulator.
	ErrMissingExecutable = errors.New("missing executable")
	// ErrMissingArchitecture means Launch was called before SelectArchitecture.
	ErrMissingArchitecture = errors.New("no architecture selected")
)

// ConfigurationError is a fatal problem with the requested emulator setup.
type ConfigurationError struct {
	Kind error
	Arch string
	File string
	Path string
}

func (e *ConfigurationError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrMissingExecutable):
		return fmt.Sprintf("arch %q unavailable; no executable named %q (%q)", e.Arch, e.File, e.Path)
	case errors.Is(e.Kind, ErrMissingArchitecture):
		return "no architecture specified; select one before launching"
	case e.Kind != nil:
		return fmt.Sprintf("arch %q: %v", e.Arch, e.Kind)
	default:
		return fmt.Sprintf("arch %q: configuration error", e.Arch)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Kind
}

// ExitError carries the exit status of an emulator that ran as a child
// process, on platforms where the process image cannot be replaced.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("emulator exited with status %d", e.Code)
}
