package arch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Architecture
	}{
		{"x86_64", X86_64},
		{"amd64", X86_64},
		{" X86-64 ", X86_64},
		{"i686", I386},
		{"386", I386},
		{"arm64", AArch64},
		{"armhf", ARM},
		{"ppc64le", PPC64},
		{"powerpc", PPC},
		{"riscv", RISCV64},
		{"sparc64", Architecture("sparc64")},
		{"", Architecture("")},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRejectsPathNames(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "../x86_64", `sub\dir`, "..", "."} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidArchitecture) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidArchitecture", in, err)
		}
	}

	got, err := Parse("amd64")
	if err != nil {
		t.Fatalf("Parse(amd64) error = %v", err)
	}
	if got != X86_64 {
		t.Fatalf("Parse(amd64) = %q, want %q", got, X86_64)
	}
}

func TestNamingRoundTrip(t *testing.T) {
	t.Parallel()

	windows := Naming{Prefix: DefaultPrefix, Extension: ".exe"}
	if got := windows.FileName(X86_64); got != "qemu-system-x86_64.exe" {
		t.Fatalf("FileName() = %q", got)
	}

	cases := []struct {
		naming Naming
		name   string
		want   Architecture
		ok     bool
	}{
		{windows, "qemu-system-x86_64.exe", X86_64, true},
		{windows, "qemu-system-aarch64.EXE", AArch64, true},
		{windows, "qemu-system-arm", ARM, true},
		{windows, "qemu-img.exe", "", false},
		{windows, "QEMU-SYSTEM-x86_64.exe", "", false},
		{windows, "qemu-system-.exe", "", false},
		{Naming{Prefix: DefaultPrefix}, "qemu-system-riscv64", RISCV64, true},
		{Naming{}, "qemu-system-riscv64", "", false},
	}

	for _, tt := range cases {
		got, ok := tt.naming.Architecture(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("Architecture(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"qemu-system-x86_64.exe", "qemu-system-aarch64.exe", "qemu-img.exe", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "qemu-system-mips.exe"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	binaries, err := Scan(dir, Naming{Prefix: DefaultPrefix, Extension: ".exe"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(binaries) != 2 {
		t.Fatalf("Scan() returned %d binaries, want 2: %+v", len(binaries), binaries)
	}

	// os.ReadDir sorts by file name.
	want := []Binary{
		{Arch: AArch64, Path: filepath.Join(dir, "qemu-system-aarch64.exe")},
		{Arch: X86_64, Path: filepath.Join(dir, "qemu-system-x86_64.exe")},
	}
	for i := range want {
		if binaries[i] != want[i] {
			t.Fatalf("binaries[%d] = %+v, want %+v", i, binaries[i], want[i])
		}
	}
}

func TestScanEmptyAndMissing(t *testing.T) {
	t.Parallel()

	naming := Naming{Prefix: DefaultPrefix}

	binaries, err := Scan(t.TempDir(), naming)
	if err != nil {
		t.Fatalf("Scan(empty) error = %v", err)
	}
	if len(binaries) != 0 {
		t.Fatalf("Scan(empty) = %v, want none", binaries)
	}

	binaries, err = Scan(filepath.Join(t.TempDir(), "missing"), naming)
	if err != nil {
		t.Fatalf("Scan(missing) error = %v", err)
	}
	if len(binaries) != 0 {
		t.Fatalf("Scan(missing) = %v, want none", binaries)
	}
}
