package gobridge

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareWorkspace creates the directory tree the toolchain requires before
// it recognizes root as a workspace: a bin directory for built binaries and
// a package cache directory keyed by the resolved platform/architecture
// tuple. The toolchain refuses workspaces without this exact shape.
// Directories that already exist are left untouched.
func PrepareWorkspace(root, platform, arch string) error {
	tuple := ResolvePlatform(platform) + "_" + ResolveArch(arch)

	for _, dir := range []string{
		filepath.Join(root, "bin"),
		filepath.Join(root, "pkg", tuple),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("gobridge: prepare workspace %s: %w", root, err)
		}
	}

	return nil
}
