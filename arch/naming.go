package arch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPrefix is the file name prefix of QEMU system emulators.
const DefaultPrefix = "qemu-system-"

// Naming describes how emulator executables are named inside the install
// directory: <Prefix><arch><Extension>.
type Naming struct {
	Prefix    string `yaml:"prefix"`
	Extension string `yaml:"extension,omitempty"`
}

// FileName returns the executable name for a.
func (n Naming) FileName(a Architecture) string {
	return n.Prefix + string(a) + n.Extension
}

// Architecture recovers the architecture from an executable name. The prefix
// must match exactly; the extension is stripped case-insensitively.
func (n Naming) Architecture(fileName string) (Architecture, bool) {
	if n.Prefix == "" || !strings.HasPrefix(fileName, n.Prefix) {
		return "", false
	}
	name := strings.TrimPrefix(fileName, n.Prefix)
	if ext := n.Extension; ext != "" && len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext) {
		name = name[:len(name)-len(ext)]
	}
	if name == "" {
		return "", false
	}
	return Architecture(name), true
}

// Binary is an installed emulator executable.
type Binary struct {
	Arch Architecture
	Path string
}

// Scan lists the emulator executables in dir. Entries that are not regular
// files or do not match the naming convention are skipped. A missing
// directory yields an empty list.
func Scan(dir string, naming Naming) ([]Binary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var binaries []Binary
	for _, entry := range entries {
		a, ok := naming.Architecture(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(absDir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		binaries = append(binaries, Binary{Arch: a, Path: path})
	}
	return binaries, nil
}
