// Package filex resolves and prepares the client's on-disk data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

const appDirName = "gophauth"

// DefaultDataDir returns the per-user directory used when no data dir is
// configured, e.g. ~/.config/gophauth on Linux.
func DefaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// EnsureDir makes dir absolute (relative paths are resolved against the
// working directory) and creates it with owner-only permissions.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}
