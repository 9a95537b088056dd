package gobridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var execCommandContext = exec.CommandContext

// Options customizes a Toolchain handle. The zero value is valid.
type Options struct {
	// Dir is the working directory for toolchain invocations.
	// Defaults to the process working directory.
	Dir string
	// Env holds environment overrides. They are merged into the composed
	// environment last, so they win over everything the handle sets.
	Env map[string]string
	// Stdout and Stderr receive the output streams of toolchain
	// invocations. They default to the process streams; the handle never
	// captures or interprets them.
	Stdout io.Writer
	Stderr io.Writer
}

// A Toolchain binds an installed toolchain binary, a prepared workspace and
// a composed process environment into a ready-to-invoke handle.
//
// Handles are independent of each other and may be driven concurrently as
// long as they do not share a workspace root. A single handle must not be
// invoked concurrently: the running process owns the handle's working
// directory and environment for its duration.
type Toolchain struct {
	// GoBin is the path of the toolchain binary invocations run.
	GoBin string
	// Workspace is the workspace root bound to the environment.
	Workspace string
	// Env is the composed process environment, in os.Environ form.
	Env []string
	// Dir is the working directory of invocations.
	Dir string

	stdout io.Writer
	stderr io.Writer
}

// New prepares the workspace tree for the given platform/architecture pair
// and returns a handle around the toolchain binary at goBin.
//
// The composed environment starts from the ambient process environment,
// prepends the binary's directory to PATH and binds GOPATH to workspace.
// When modules is set, GO111MODULE is forced on. Entries from opts.Env are
// applied last and take precedence over all of the above.
func New(goBin, workspace, platform, arch string, modules bool, opts *Options) (*Toolchain, error) {
	if opts == nil {
		opts = &Options{}
	}

	if err := PrepareWorkspace(workspace, platform, arch); err != nil {
		return nil, err
	}

	env := environMap(os.Environ())

	// Windows reports the search path with varying casing ("Path"); fold
	// any variant into the canonical key so the composed environment
	// carries exactly one search-path variable.
	searchPath := env["PATH"]
	for name, value := range env {
		if name != "PATH" && strings.EqualFold(name, "PATH") {
			if searchPath == "" {
				searchPath = value
			}
			delete(env, name)
		}
	}

	env["PATH"] = filepath.Dir(goBin) + string(os.PathListSeparator) + searchPath
	env["GOPATH"] = workspace
	if modules {
		env["GO111MODULE"] = "on"
	}
	for name, value := range opts.Env {
		env[name] = value
	}

	t := &Toolchain{
		GoBin:     goBin,
		Workspace: workspace,
		Env:       environList(env),
		Dir:       opts.Dir,
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
	}
	if t.stdout == nil {
		t.stdout = os.Stdout
	}
	if t.stderr == nil {
		t.stderr = os.Stderr
	}

	return t, nil
}

// Get fetches the dependencies declared by the source file at src, or those
// of the handle's working directory when src is empty. The invocation may
// populate the workspace's package cache. A non-zero exit status is
// surfaced verbatim.
func (t *Toolchain) Get(ctx context.Context, src string) error {
	args := []string{"get"}
	if src != "" {
		args = append(args, src)
	}

	return t.run(ctx, args)
}

// Build compiles the given sources into a single executable at dest.
// Multiple sources are passed to the toolchain as additional compilation
// units; at least one is required. A non-zero exit status is surfaced
// verbatim and no cleanup of a partial artifact at dest is attempted.
func (t *Toolchain) Build(ctx context.Context, dest string, sources ...string) error {
	if len(sources) == 0 {
		return fmt.Errorf("gobridge: build %s: no sources given", dest)
	}

	args := append([]string{"build", "-o", dest}, sources...)

	return t.run(ctx, args)
}

func (t *Toolchain) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := execCommandContext(ctx, t.GoBin, args...)
	cmd.Dir = t.Dir
	cmd.Env = t.Env
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	return cmd
}

func (t *Toolchain) run(ctx context.Context, args []string) error {
	if err := t.command(ctx, args).Run(); err != nil {
		return fmt.Errorf("gobridge: %s %s: %w", filepath.Base(t.GoBin), args[0], err)
	}

	return nil
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, entry := range environ {
		name, value := entry, ""
		if i := strings.IndexByte(entry, '='); i >= 0 {
			name, value = entry[:i], entry[i+1:]
		}
		env[name] = value
	}

	return env
}

func environList(env map[string]string) []string {
	environ := make([]string, 0, len(env))
	for name, value := range env {
		environ = append(environ, name+"="+value)
	}

	return environ
}
