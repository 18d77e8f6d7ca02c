//go:build unix

package launcher

import (
	"context"
	"fmt"

	"golang.org/x/sys/unix"
)

func replaceProcess(ctx context.Context, path string, argv []string, env []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := unix.Exec(path, argv, env); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
