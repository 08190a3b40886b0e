package gitexec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// TopLevel returns the root of the work tree containing dir.
func TopLevel(ctx context.Context, dir string) (string, error) {
	res, err := NewRunner(dir).Run(ctx, []string{"git", "rev-parse", "--show-toplevel"})
	if err != nil {
		return "", err
	}
	top := strings.TrimSpace(res.Stdout)
	if top == "" {
		return "", fmt.Errorf("%s is not inside a work tree", dir)
	}
	return filepath.Clean(filepath.FromSlash(top)), nil
}
