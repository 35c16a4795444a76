// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a local container runtime and runs one-shot
// filter containers (stdin in, stdout out). The cleaning stage uses it to
// turn guideline PDFs into text without a native PDF toolchain.
//
// See docs/ARCHITECTURE § Cleaning.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// stderrLimit caps how much container stderr is quoted in errors.
	stderrLimit = 512
)

// Runtime provides container operations: checking availability, verifying
// images, and running filter containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the named image exists locally.
	ImageExists(ctx context.Context, image string) error

	// Run executes image with networking disabled, piping stdin to the
	// container and its stdout to stdout. A failing run returns an error
	// that quotes the tail of the container's stderr.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runtime implements Runtime for docker and podman; they differ only in
// binary name and the image check subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, r.imageCheckCmd...), image)
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", "--network", "none", image}
	var stderr bytes.Buffer
	if err := r.exec.RunPiped(ctx, r.bin, args, stdin, stdout, &stderr); err != nil {
		if msg := tail(stderr.String(), stderrLimit); msg != "" {
			return fmt.Errorf("running %s container %s: %w: %s", r.bin, image, err, msg)
		}
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// tail returns the last n bytes of s with surrounding whitespace removed.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, defaultExec)
}

func detectRuntime(ctx context.Context, exec executor) (Runtime, error) {
	for _, rt := range []*runtime{newDockerRuntime(exec), newPodmanRuntime(exec)} {
		if rt.Available(ctx) {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
