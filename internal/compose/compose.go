// Package compose drives the docker compose project that hosts the server.
//
// It shells out to the docker CLI rather than talking to the daemon API so
// that it honors the same compose file, project name, and docker context the
// operator uses by hand.
package compose

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rileyhilliard/mcwatch/internal/errors"
)

// DefaultService is the compose service running the Bedrock server.
const DefaultService = "bds"

// ProjectLabel is the label docker compose puts on every container it creates.
const ProjectLabel = "com.docker.compose.project"

// ExecCommandFunc creates an exec.Cmd. Tests replace it to avoid running docker.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Project identifies a compose project and the service to follow.
type Project struct {
	binary      string
	file        string
	name        string
	service     string
	execCommand ExecCommandFunc
}

// Option configures a Project.
type Option func(*Project)

// WithFile sets the compose file passed with -f.
func WithFile(path string) Option {
	return func(p *Project) { p.file = path }
}

// WithProjectName sets the compose project passed with -p. When set,
// ListRunning only reports containers belonging to that project.
func WithProjectName(name string) Option {
	return func(p *Project) { p.name = name }
}

// WithService sets the service whose logs are followed.
func WithService(service string) Option {
	return func(p *Project) {
		if service != "" {
			p.service = service
		}
	}
}

// WithBinary overrides the docker binary (e.g. "podman").
func WithBinary(binary string) Option {
	return func(p *Project) {
		if binary != "" {
			p.binary = binary
		}
	}
}

// WithExecCommand replaces the command factory.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(p *Project) { p.execCommand = fn }
}

// NewProject creates a Project with the given options.
func NewProject(opts ...Option) *Project {
	p := &Project{
		binary:      "docker",
		service:     DefaultService,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Service returns the followed service name.
func (p *Project) Service() string {
	return p.service
}

// composeArgs builds "compose [-f file] [-p name] <sub...>".
func (p *Project) composeArgs(sub ...string) []string {
	args := []string{"compose"}
	if p.file != "" {
		args = append(args, "-f", p.file)
	}
	if p.name != "" {
		args = append(args, "-p", p.name)
	}
	return append(args, sub...)
}

// Stop runs "docker compose stop".
func (p *Project) Stop(ctx context.Context) error {
	out, err := p.run(ctx, p.composeArgs("stop")...)
	if err != nil {
		return errors.WrapWithCode(withOutput(err, out), errors.ErrStop,
			"Couldn't stop the compose project",
			"Check that docker is running and the compose file is correct.")
	}
	return nil
}

// ListRunning returns the IDs of running containers.
func (p *Project) ListRunning(ctx context.Context) ([]string, error) {
	args := []string{"container", "ps", "-q"}
	if p.name != "" {
		args = append(args, "--filter", "label="+ProjectLabel+"="+p.name)
	}

	out, err := p.run(ctx, args...)
	if err != nil {
		return nil, errors.WrapWithCode(withOutput(err, out), errors.ErrExec,
			"Couldn't list running containers",
			"Check that docker is running.")
	}

	return strings.Fields(string(out)), nil
}

// FollowLogs streams "docker compose logs --no-color -f <service>" and calls
// fn for each line with the compose prefix removed. It returns when the
// stream ends or ctx is cancelled.
func (p *Project) FollowLogs(ctx context.Context, fn func(line string)) error {
	cmd := p.execCommand(ctx, p.binary, p.composeArgs("logs", "--no-color", "-f", p.service)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't open the log stream",
			"This shouldn't happen - please report this bug!")
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Couldn't start docker compose logs",
			"Make sure docker is installed and on your PATH.")
	}

	scanErr := scanLines(stdout, func(line string) {
		fn(StripPrefix(line, p.service))
	})

	if scanErr != nil {
		// stdout is no longer drained, so the process could block forever
		_ = cmd.Process.Kill()
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if scanErr != nil {
		return errors.WrapWithCode(scanErr, errors.ErrExec,
			"Couldn't read the server log stream",
			"A log line may be too long; restart the monitor to reattach.")
	}
	if waitErr != nil {
		return errors.WrapWithCode(waitErr, errors.ErrExec,
			"docker compose logs exited",
			"Check that the service name is correct.")
	}
	return nil
}

// StripPrefix removes the "<service>  | " prefix docker compose adds to
// each log line.
func StripPrefix(line, service string) string {
	idx := strings.Index(line, " | ")
	if idx < 0 {
		return line
	}
	if strings.HasPrefix(strings.TrimSpace(line[:idx]), service) {
		return line[idx+3:]
	}
	return line
}

func (p *Project) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := p.execCommand(ctx, p.binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(strings.TrimRight(scanner.Text(), "\r"))
	}
	return scanner.Err()
}

func withOutput(err error, out []byte) error {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}
