package arch

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidArchitecture is returned for names that cannot form an executable name.
var ErrInvalidArchitecture = errors.New("invalid architecture")

// Architecture is a QEMU system emulation target, as used in qemu-system-<target>.
type Architecture string

const (
	X86_64  Architecture = "x86_64"
	I386    Architecture = "i386"
	AArch64 Architecture = "aarch64"
	ARM     Architecture = "arm"
	PPC     Architecture = "ppc"
	PPC64   Architecture = "ppc64"
	RISCV64 Architecture = "riscv64"
	S390X   Architecture = "s390x"
	MIPS    Architecture = "mips"
	MIPSEL  Architecture = "mipsel"
	MIPS64  Architecture = "mips64"
)

// Known returns the targets Normalize knows aliases for.
func Known() []Architecture {
	return []Architecture{
		X86_64,
		I386,
		AArch64,
		ARM,
		PPC,
		PPC64,
		RISCV64,
		S390X,
		MIPS,
		MIPSEL,
		MIPS64,
	}
}

// String returns the architecture as string.
func (a Architecture) String() string {
	return string(a)
}

// Normalize maps common aliases onto the QEMU target name. Names it does not
// recognise are returned trimmed but otherwise unchanged, since QEMU ships
// far more targets than are listed here.
func Normalize(value string) Architecture {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case string(X86_64), "x86-64", "amd64", "x64":
		return X86_64
	case string(I386), "x86", "i486", "i586", "i686", "386":
		return I386
	case string(AArch64), "arm64":
		return AArch64
	case string(ARM), "armv7", "armv7l", "armhf":
		return ARM
	case string(PPC64), "ppc64le", "ppc64el", "powerpc64", "powerpc64le":
		return PPC64
	case string(PPC), "powerpc":
		return PPC
	case string(RISCV64), "riscv":
		return RISCV64
	default:
		return Architecture(trimmed)
	}
}

// Parse normalizes value and rejects names that are empty or would escape
// the install directory once substituted into the executable name.
func Parse(value string) (Architecture, error) {
	a := Normalize(value)
	if a == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidArchitecture)
	}
	if strings.ContainsAny(string(a), `/\`) || a == "." || a == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidArchitecture, value)
	}
	return a, nil
}
