package gobridge

import (
	"bytes"
	"context"
	"fmt"
)

// An Analyzer resolves the exported handler of a source file by invoking an
// external detector binary with the source path as its sole argument.
//
// The detector's contract: its trimmed standard output is the name of the
// exported entry-point function; a non-zero exit or empty output means
// detection failed. The source is never parsed here.
type Analyzer struct {
	// Bin is the path or name of the detector binary.
	Bin string
}

// EntryPoint returns the name of the exported handler function declared in
// the source file at the given path.
func (a Analyzer) EntryPoint(ctx context.Context, source string) (string, error) {
	cmd := execCommandContext(ctx, a.Bin, source)

	stdout, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("gobridge: analyze %s: %w", source, err)
	}

	name := string(bytes.TrimSpace(stdout))
	if name == "" {
		return "", fmt.Errorf("gobridge: analyze %s: detector reported no entry point", source)
	}

	return name, nil
}
