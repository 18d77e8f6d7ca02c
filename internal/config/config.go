// Package config holds the configuration value handed to the launcher: where
// the emulators are installed, how their executables are named and which
// defaults the command line starts from.
//
// The configuration is resolved once at startup and passed around explicitly;
// no other package reads files or environment variables for it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cochaviz/qvm/arch"
)

const (
	// EnvConfigPath names a configuration file to load instead of the default location.
	EnvConfigPath = "QVM_CONFIG"
	// EnvQemuHome overrides the install directory.
	EnvQemuHome = "QVM_QEMU_HOME"
)

// Defaults are the option values used when the command line leaves them unset.
type Defaults struct {
	Arch           string   `yaml:"arch"`
	MemoryMB       int      `yaml:"memory"`
	KeyboardLayout string   `yaml:"keyboard"`
	Net            []string `yaml:"net"`
}

// Config is the resolved configuration.
type Config struct {
	QemuHome  string      `yaml:"qemu_home"`
	Naming    arch.Naming `yaml:"naming"`
	Defaults  Defaults    `yaml:"defaults"`
	RunDir    string      `yaml:"run_dir"`
	ExtraArgs string      `yaml:"extra_args,omitempty"`
}

// Default returns the built-in configuration for the running platform.
func Default() Config {
	return defaultFor(runtime.GOOS)
}

func defaultFor(goos string) Config {
	cfg := Config{
		QemuHome: "/usr/bin",
		Naming: arch.Naming{
			Prefix: arch.DefaultPrefix,
		},
		Defaults: Defaults{
			Arch:           arch.X86_64.String(),
			MemoryMB:       2048,
			KeyboardLayout: "de",
			Net:            []string{"nic", "user"},
		},
		RunDir: filepath.Join(os.TempDir(), "qvm"),
	}
	if goos == "windows" {
		cfg.QemuHome = "c:/Progra~1/qemu/"
		cfg.Naming.Extension = ".exe"
	}
	return cfg
}

// DefaultPath returns the implicit configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "qvm", "config.yaml")
}

// Load resolves the configuration. An explicit path (argument or
// QVM_CONFIG) must exist; the implicit location may be absent. QVM_QEMU_HOME
// is applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}

	switch {
	case explicit != "":
		if err := decodeFile(explicit, &cfg); err != nil {
			return Config{}, err
		}
	case DefaultPath() != "":
		err := decodeFile(DefaultPath(), &cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	if home := strings.TrimSpace(os.Getenv(EnvQemuHome)); home != "" {
		cfg.QemuHome = home
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// Validate reports configuration values the launcher cannot work with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.QemuHome) == "" {
		return errors.New("qemu_home is required")
	}
	if c.Naming.Prefix == "" {
		return errors.New("naming.prefix is required")
	}
	if c.Defaults.MemoryMB < 0 {
		return fmt.Errorf("defaults.memory must not be negative (got %d)", c.Defaults.MemoryMB)
	}
	return nil
}

// Write encodes the configuration as YAML.
func (c Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
