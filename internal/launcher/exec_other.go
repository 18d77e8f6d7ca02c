//go:build !unix

package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// replaceProcess cannot swap the process image here, so the emulator runs as
// a child with the parent's stdio and its exit status is handed back as an
// *ExitError for the caller to exit with.
func replaceProcess(ctx context.Context, path string, argv []string, env []string) error {
	cmd := exec.CommandContext(ctx, path, argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("run %s: %w", path, err)
}
