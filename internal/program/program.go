// Package program translates the command-line option set into an emulator
// invocation.
package program

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-shellwords"

	"github.com/cochaviz/qvm/internal/config"
	"github.com/cochaviz/qvm/internal/disk"
	"github.com/cochaviz/qvm/internal/launcher"
	"github.com/cochaviz/qvm/internal/logging"
	"github.com/cochaviz/qvm/internal/network"
)

// RandomUUID asks for a freshly generated machine UUID.
const RandomUUID = "random"

// Options is the full set of things the command line can ask for. Zero
// values emit nothing.
type Options struct {
	Arch           string
	RAMSize        int
	KeyboardLayout string
	CDROMs         []string
	HardDisks      []string

	// CDROMDirs are host directories packed into ISO images.
	CDROMDirs []string
	// Tap replaces user-mode networking with the named host tap interface.
	Tap string
	// UUID is a machine UUID or RandomUUID.
	UUID string
	// ExtraArgs are raw emulator arguments, split like a shell would.
	ExtraArgs string
}

// DefaultOptions returns the options a run starts from before flags are applied.
func DefaultOptions(cfg config.Config) Options {
	return Options{
		Arch:           cfg.Defaults.Arch,
		RAMSize:        cfg.Defaults.MemoryMB,
		KeyboardLayout: cfg.Defaults.KeyboardLayout,
	}
}

// Program is a fully translated emulator invocation.
type Program struct {
	launcher *launcher.Launcher
}

// New builds the emulator command line for opts and the positional
// arguments left over after flag parsing. Only a single positional
// argument is passed through; more than one is dropped with a warning.
func New(cfg config.Config, opts Options, positional []string, logger *slog.Logger, launcherOpts ...launcher.Option) (*Program, error) {
	base := logging.Ensure(logger)
	logger = base.With("component", "program")

	l := launcher.New(cfg, append([]launcher.Option{launcher.WithLogger(base)}, launcherOpts...)...)
	p := &Program{launcher: l}

	if err := p.setNetwork(cfg.Defaults.Net, opts.Tap); err != nil {
		return nil, err
	}

	if opts.KeyboardLayout != "" {
		l.Set("-k", opts.KeyboardLayout)
	}
	if opts.Arch != "" {
		if err := l.SelectArchitecture(opts.Arch); err != nil {
			return nil, err
		}
	}
	if opts.RAMSize > 0 {
		l.SetMemory(opts.RAMSize, "M")
	}
	for _, path := range opts.CDROMs {
		l.Set("-cdrom", path)
	}
	for _, dir := range opts.CDROMDirs {
		image, err := disk.BuildISO(dir, cfg.RunDir, "")
		if err != nil {
			return nil, fmt.Errorf("pack cdrom directory %s: %w", dir, err)
		}
		logger.Debug("packed directory", "dir", dir, "image", image)
		l.Set("-cdrom", image)
	}
	for _, path := range opts.HardDisks {
		l.Set("-hda", path)
	}
	if opts.UUID != "" {
		id, err := resolveUUID(opts.UUID)
		if err != nil {
			return nil, err
		}
		l.Set("-uuid", id)
	}

	for _, raw := range []string{cfg.ExtraArgs, opts.ExtraArgs} {
		if err := p.setExtraArgs(raw); err != nil {
			return nil, err
		}
	}

	switch len(positional) {
	case 0:
	case 1:
		l.Set(positional[0])
	default:
		logger.Warn("too many positional arguments; ignoring all of them", "count", len(positional), "args", strings.Join(positional, " "))
	}

	return p, nil
}

func (p *Program) setNetwork(defaults []string, tap string) error {
	if tap == "" {
		for _, value := range defaults {
			p.launcher.Set("-net", value)
		}
		return nil
	}

	args, err := network.TapArgs(tap)
	if err != nil {
		return fmt.Errorf("configure tap networking: %w", err)
	}
	nic := "nic"
	if len(defaults) > 0 {
		nic = defaults[0]
	}
	p.launcher.Set("-net", nic)
	p.launcher.Set(args[0], args[1:]...)
	return nil
}

func (p *Program) setExtraArgs(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	args, err := shellwords.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse extra arguments %q: %w", raw, err)
	}
	for _, arg := range args {
		p.launcher.Set(arg)
	}
	return nil
}

func resolveUUID(value string) (string, error) {
	if strings.EqualFold(value, RandomUUID) {
		return uuid.NewString(), nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid machine uuid %q: %w", value, err)
	}
	return id.String(), nil
}

// Launcher returns the launcher holding the translated command line.
func (p *Program) Launcher() *launcher.Launcher {
	return p.launcher
}

// Command returns the full emulator command line.
func (p *Program) Command() ([]string, error) {
	return p.launcher.Command()
}

// Launch hands the process over to the emulator.
func (p *Program) Launch(ctx context.Context) error {
	return p.launcher.Launch(ctx)
}
