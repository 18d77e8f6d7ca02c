// Package disk packs host directories into ISO9660 images that can be
// attached to the guest as CD-ROMs.
package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kdomanski/iso9660"
)

const defaultVolumeLabel = "QVM"

// BuildISO writes sourceDir into a new image under outDir and returns its path.
// The file is named after the sanitized volume label plus a random suffix so
// repeated launches never overwrite an image a running guest still uses.
func BuildISO(sourceDir, outDir, label string) (string, error) {
	srcAbs, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", fmt.Errorf("resolve directory %q: %w", sourceDir, err)
	}
	info, err := os.Stat(srcAbs)
	if err != nil {
		return "", fmt.Errorf("stat directory %q: %w", srcAbs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path %q is not a directory", srcAbs)
	}

	if strings.TrimSpace(label) == "" {
		label = filepath.Base(srcAbs)
	}
	volume := VolumeLabel(label)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure image directory: %w", err)
	}
	imagePath := filepath.Join(outDir, fmt.Sprintf("%s-%s.iso", strings.ToLower(volume), uuid.NewString()))

	if err := writeISO(srcAbs, imagePath, volume); err != nil {
		return "", err
	}
	return imagePath, nil
}

func writeISO(sourceDir, imagePath, volume string) error {
	writer, err := iso9660.NewWriter()
	if err != nil {
		return fmt.Errorf("create iso writer: %w", err)
	}
	defer writer.Cleanup()

	if err := writer.AddLocalDirectory(sourceDir, "/"); err != nil {
		return fmt.Errorf("stage directory: %w", err)
	}

	out, err := os.OpenFile(imagePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if err := writer.WriteTo(out, volume); err != nil {
		out.Close()
		_ = os.Remove(imagePath)
		return fmt.Errorf("write iso: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(imagePath)
		return fmt.Errorf("finalize iso: %w", err)
	}
	return nil
}

// VolumeLabel upper-cases label and replaces everything outside [A-Z0-9]
// with underscores, truncated to the 32 characters ISO9660 allows.
func VolumeLabel(label string) string {
	const maxLen = 32

	var b strings.Builder
	for _, r := range label {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	if strings.Trim(b.String(), "_") == "" {
		return defaultVolumeLabel
	}
	return b.String()
}
