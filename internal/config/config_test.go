package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func isolateEnv(t *testing.T) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvQemuHome, "")
}

func TestDefaultFor(t *testing.T) {
	t.Parallel()

	linux := defaultFor("linux")
	if linux.QemuHome != "/usr/bin" || linux.Naming.Extension != "" {
		t.Fatalf("linux defaults = %+v", linux)
	}

	windows := defaultFor("windows")
	if windows.QemuHome != "c:/Progra~1/qemu/" {
		t.Fatalf("windows QemuHome = %q", windows.QemuHome)
	}
	if windows.Naming.Extension != ".exe" {
		t.Fatalf("windows extension = %q, want .exe", windows.Naming.Extension)
	}

	d := windows.Defaults
	if d.Arch != "x86_64" || d.MemoryMB != 2048 || d.KeyboardLayout != "de" {
		t.Fatalf("defaults = %+v", d)
	}
	if strings.Join(d.Net, ",") != "nic,user" {
		t.Fatalf("default net = %v, want [nic user]", d.Net)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Defaults.MemoryMB != Default().Defaults.MemoryMB {
		t.Fatalf("MemoryMB = %d, want default", cfg.Defaults.MemoryMB)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "qvm.yaml")
	content := `qemu_home: /opt/qemu/bin
defaults:
  arch: aarch64
  memory: 512
  net: [nic, "user,hostfwd=tcp::2222-:22"]
extra_args: -display none
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.QemuHome != "/opt/qemu/bin" {
		t.Fatalf("QemuHome = %q", cfg.QemuHome)
	}
	if cfg.Defaults.Arch != "aarch64" || cfg.Defaults.MemoryMB != 512 {
		t.Fatalf("Defaults = %+v", cfg.Defaults)
	}
	if cfg.Defaults.KeyboardLayout != "de" {
		t.Fatalf("KeyboardLayout = %q, want default to survive partial file", cfg.Defaults.KeyboardLayout)
	}
	if len(cfg.Defaults.Net) != 2 || cfg.Defaults.Net[1] != "user,hostfwd=tcp::2222-:22" {
		t.Fatalf("Net = %v", cfg.Defaults.Net)
	}
	if cfg.ExtraArgs != "-display none" {
		t.Fatalf("ExtraArgs = %q", cfg.ExtraArgs)
	}
	if cfg.Naming.Prefix != "qemu-system-" {
		t.Fatalf("Naming.Prefix = %q, want default", cfg.Naming.Prefix)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "qvm.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  keyboard: en-us\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvQemuHome, "/srv/qemu")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Defaults.KeyboardLayout != "en-us" {
		t.Fatalf("KeyboardLayout = %q, want en-us", cfg.Defaults.KeyboardLayout)
	}
	if cfg.QemuHome != "/srv/qemu" {
		t.Fatalf("QemuHome = %q, want env override", cfg.QemuHome)
	}
}

func TestLoadErrors(t *testing.T) {
	isolateEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Load(missing explicit) error = nil, want non-nil")
	}

	dir := t.TempDir()
	cases := map[string]string{
		"malformed.yaml": "defaults: [",
		"noprefix.yaml":  "naming:\n  prefix: \"\"\n",
		"negative.yaml":  "defaults:\n  memory: -1\n",
		"nohome.yaml":    "qemu_home: \"\"\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("Load(%s) error = nil, want non-nil", name)
		}
	}
}

func TestWrite(t *testing.T) {
	t.Parallel()

	cfg := defaultFor("windows")
	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded Config
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode written config: %v", err)
	}
	if decoded.QemuHome != cfg.QemuHome || decoded.Naming != cfg.Naming {
		t.Fatalf("decoded = %+v, want %+v", decoded, cfg)
	}
	if strings.Contains(buf.String(), "extra_args") {
		t.Fatalf("empty extra_args should be omitted:\n%s", buf.String())
	}
}
