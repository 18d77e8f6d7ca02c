package launcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/cochaviz/qvm/arch"
	"github.com/cochaviz/qvm/internal/config"
	"github.com/cochaviz/qvm/internal/logging"
)

// ExecFunc takes over the process with the emulator. argv[0] is the
// executable path. On success it never returns on platforms that support
// replacing the process image.
type ExecFunc func(ctx context.Context, path string, argv []string, env []string) error

// Launcher accumulates an emulator command line.
type Launcher struct {
	home   string
	naming arch.Naming

	arch arch.Architecture
	path string
	args []string

	diagnostics io.Writer
	logger      *slog.Logger
	exec        ExecFunc
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithDiagnostics sets the writer the command is echoed to before launch.
func WithDiagnostics(w io.Writer) Option {
	return func(l *Launcher) {
		if w != nil {
			l.diagnostics = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logging.Ensure(logger)
	}
}

// WithExec replaces the function that hands the process over to the emulator.
func WithExec(fn ExecFunc) Option {
	return func(l *Launcher) {
		if fn != nil {
			l.exec = fn
		}
	}
}

// New returns a Launcher resolving executables from cfg.
func New(cfg config.Config, opts ...Option) *Launcher {
	l := &Launcher{
		home:        cfg.QemuHome,
		naming:      cfg.Naming,
		diagnostics: os.Stderr,
		logger:      logging.Ensure(nil),
		exec:        replaceProcess,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "launcher")
	return l
}

// SelectArchitecture resolves the emulator executable for name. The
// executable must exist as a regular file inside the install directory.
func (l *Launcher) SelectArchitecture(name string) error {
	a, err := arch.Parse(name)
	if err != nil {
		return &ConfigurationError{Kind: err, Arch: name}
	}

	file := l.naming.FileName(a)
	path := filepath.Join(l.home, file)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return &ConfigurationError{
			Kind: ErrMissingExecutable,
			Arch: a.String(),
			File: file,
			Path: path,
		}
	}

	l.arch = a
	l.path = path
	l.logger.Debug("architecture selected", "arch", a, "path", path)
	return nil
}

// Architecture returns the selected architecture, or "" if none is selected.
func (l *Launcher) Architecture() arch.Architecture {
	return l.arch
}

// Executable returns the resolved emulator path, or "" if none is selected.
func (l *Launcher) Executable() string {
	return l.path
}

// Set appends flag followed by its values.
func (l *Launcher) Set(flag string, values ...string) {
	l.args = append(l.args, flag)
	l.args = append(l.args, values...)
}

// SetMemory appends -m <size><unit>. An empty unit means megabytes.
func (l *Launcher) SetMemory(size int, unit string) {
	if unit == "" {
		unit = "M"
	}
	l.Set("-m", fmt.Sprintf("%d%s", size, strings.ToUpper(unit)))
}

// Args returns a copy of the accumulated arguments.
func (l *Launcher) Args() []string {
	return append([]string(nil), l.args...)
}

// Command returns the executable followed by the accumulated arguments.
func (l *Launcher) Command() ([]string, error) {
	if l.path == "" {
		return nil, &ConfigurationError{Kind: ErrMissingArchitecture}
	}
	return append([]string{l.path}, l.args...), nil
}

// Launch echoes the command to the diagnostics writer and hands the process
// over to the emulator. It only returns if that fails, or, where the process
// image cannot be replaced, once the emulator has exited.
func (l *Launcher) Launch(ctx context.Context) error {
	cmd, err := l.Command()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintf(l.diagnostics, "cmd: %s\n", shellescape.QuoteCommand(cmd))
	l.logger.Info("launching emulator", "arch", l.arch, "path", l.path, "args", len(l.args))

	return l.exec(ctx, cmd[0], cmd, os.Environ())
}
