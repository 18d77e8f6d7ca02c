package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alessio/shellescape"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cochaviz/qvm/arch"
	"github.com/cochaviz/qvm/internal/config"
	"github.com/cochaviz/qvm/internal/launcher"
	"github.com/cochaviz/qvm/internal/logging"
	"github.com/cochaviz/qvm/internal/program"
)

const (
	defaultLogLevel  = "warning"
	listArchitecture = "list"
)

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelWarn)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(logger, &levelVar).ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	var exitErr *launcher.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr):
	case code == 130:
		logger.Warn("interrupted", "error", err)
	default:
		logger.Error(err.Error())
	}
	os.Exit(code)
}

func exitCode(err error) int {
	var exitErr *launcher.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

type rootFlags struct {
	configPath  string
	qemuHome    string
	printConfig bool
	dryRun      bool
	logLevel    string

	arch      string
	memory    int
	keyboard  string
	cdroms    []string
	hdds      []string
	cdromDirs []string
	tap       string
	uuid      string
	qemuArgs  string
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar, launcherOpts ...launcher.Option) *cobra.Command {
	defaults := config.Default()
	flags := rootFlags{logLevel: defaultLogLevel}

	root := &cobra.Command{
		Use:           "qvm [flags] [image]",
		Short:         "Launch a QEMU virtual machine from a few friendly flags",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetGlobalNormalizationFunc(normalizeAliases)

	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(flags.logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		return nil
	}

	f := root.Flags()
	f.StringVarP(&flags.arch, "arch", "a", defaults.Defaults.Arch, "Set architecture to use (alias --architecture); use 'list' to see available")
	f.IntVarP(&flags.memory, "memory", "m", defaults.Defaults.MemoryMB, "Set RAM size in megabytes (alias --ram)")
	f.StringArrayVarP(&flags.cdroms, "cdrom", "c", nil, "Attach a bootable ISO image (alias --iso); repeat to add more")
	f.StringArrayVarP(&flags.hdds, "hdd", "d", nil, "Attach a hard disk image (alias --hda); repeat to add more")
	f.StringVarP(&flags.keyboard, "keyboard", "k", defaults.Defaults.KeyboardLayout, "Set keyboard layout (e.g. 'de' for qwertz)")
	f.StringArrayVar(&flags.cdromDirs, "cdrom-dir", nil, "Pack a host directory into an ISO image and attach it as CD-ROM; repeatable")
	f.StringVar(&flags.tap, "tap", "", "Attach the guest to an existing host tap interface instead of user networking")
	f.StringVar(&flags.uuid, "uuid", "", "Set the machine UUID; 'random' generates one")
	f.StringVar(&flags.qemuArgs, "qemu-args", "", "Extra emulator arguments, split like a shell command line")
	f.BoolVarP(&flags.dryRun, "dry-run", "n", false, "Print the emulator command instead of running it")
	f.StringVar(&flags.configPath, "config", "", "Path to a YAML configuration file (default "+config.DefaultPath()+")")
	f.StringVar(&flags.qemuHome, "qemu-home", "", "Directory containing the qemu-system-* executables")
	f.BoolVar(&flags.printConfig, "print-config", false, "Print the effective configuration as YAML and exit")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("qemu-home") {
			cfg.QemuHome = flags.qemuHome
		}

		out := cmd.OutOrStdout()
		if flags.printConfig {
			return cfg.Write(out)
		}

		opts, err := optionsFromFlags(cmd.Flags(), flags, cfg)
		if err != nil {
			return err
		}
		if opts.Arch == listArchitecture {
			return listArchitectures(out, cfg)
		}

		cmdLogger := logger.With("command", "qvm")
		p, err := program.New(cfg, opts, args, cmdLogger,
			append([]launcher.Option{launcher.WithDiagnostics(cmd.ErrOrStderr())}, launcherOpts...)...)
		if err != nil {
			return err
		}

		if flags.dryRun {
			command, err := p.Command()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, shellescape.QuoteCommand(command))
			return nil
		}
		return p.Launch(cmd.Context())
	}

	return root
}

// optionsFromFlags starts from the configured defaults and applies the flags
// the user actually set.
func optionsFromFlags(fs *pflag.FlagSet, flags rootFlags, cfg config.Config) (program.Options, error) {
	opts := program.DefaultOptions(cfg)
	if fs.Changed("arch") {
		opts.Arch = strings.TrimSpace(flags.arch)
	}
	if fs.Changed("memory") {
		if flags.memory <= 0 {
			return program.Options{}, fmt.Errorf("memory must be a positive number of megabytes (got %d)", flags.memory)
		}
		opts.RAMSize = flags.memory
	}
	if fs.Changed("keyboard") {
		opts.KeyboardLayout = flags.keyboard
	}
	opts.CDROMs = flags.cdroms
	opts.HardDisks = flags.hdds
	opts.CDROMDirs = flags.cdromDirs
	opts.Tap = strings.TrimSpace(flags.tap)
	opts.UUID = strings.TrimSpace(flags.uuid)
	opts.ExtraArgs = flags.qemuArgs
	return opts, nil
}

func listArchitectures(w io.Writer, cfg config.Config) error {
	binaries, err := arch.Scan(cfg.QemuHome, cfg.Naming)
	if err != nil {
		return fmt.Errorf("list architectures in %s: %w", cfg.QemuHome, err)
	}
	fmt.Fprintln(w, "available architectures:")
	for _, bin := range binaries {
		fmt.Fprintf(w, "  %q -> %q\n", bin.Arch, bin.Path)
	}
	return nil
}

func normalizeAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "architecture":
		name = "arch"
	case "ram":
		name = "memory"
	case "iso":
		name = "cdrom"
	case "hda":
		name = "hdd"
	}
	return pflag.NormalizedName(name)
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
