// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs one-shot document converters inside a local
// docker or podman runtime. A converter reads the document on stdin and
// writes Markdown to stdout, with no network and a read-only root.
package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Supported runtimes, in detection order.
const (
	Docker = "docker"
	Podman = "podman"
)

// Runtime runs converter containers.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// Available reports whether the runtime is on PATH and its daemon or
	// service answers.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Run pipes stdin through image and copies its output to stdout. The
	// container is removed on exit.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// commander runs host commands. Tests substitute a fake.
type commander interface {
	LookPath(file string) (string, error)
	Quiet(ctx context.Context, name string, args ...string) error
	Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type hostCommander struct{}

func (hostCommander) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (hostCommander) Quiet(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (hostCommander) Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

type cli struct {
	bin        string
	imageCheck []string
	cmd        commander
}

func newCLI(bin string, cmd commander) (*cli, error) {
	switch bin {
	case Docker:
		return &cli{bin: bin, imageCheck: []string{"image", "inspect"}, cmd: cmd}, nil
	case Podman:
		return &cli{bin: bin, imageCheck: []string{"image", "exists"}, cmd: cmd}, nil
	}
	return nil, fmt.Errorf("unsupported container runtime %q", bin)
}

func (c *cli) Name() string { return c.bin }

func (c *cli) Available(ctx context.Context) bool {
	if _, err := c.cmd.LookPath(c.bin); err != nil {
		return false
	}
	return c.cmd.Quiet(ctx, c.bin, "info") == nil
}

func (c *cli) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, c.imageCheck...), image)
	if err := c.cmd.Quiet(ctx, c.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, c.bin, err)
	}
	return nil
}

func (c *cli) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	args := []string{"run", "--rm", "-i", "--network", "none", "--read-only", image}
	if err := c.cmd.Pipe(ctx, c.bin, args, stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", c.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the preferred runtime when it is available. An
// empty preference tries docker, then podman.
func DetectRuntime(ctx context.Context, preferred string) (Runtime, error) {
	return detect(ctx, preferred, hostCommander{})
}

func detect(ctx context.Context, preferred string, cmd commander) (Runtime, error) {
	candidates := []string{Docker, Podman}
	if preferred != "" {
		candidates = []string{preferred}
	}
	for _, bin := range candidates {
		rt, err := newCLI(bin, cmd)
		if err != nil {
			return nil, err
		}
		if rt.Available(ctx) {
			return rt, nil
		}
	}
	if preferred != "" {
		return nil, fmt.Errorf("container runtime %s not found or not running", preferred)
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s found or running", Docker, Podman)
}
