// Package runner executes external commands under a hard wall-clock timeout
// and reports the outcome as a fetch.Result instead of raw exec errors.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.trai.ch/zerr"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

// DefaultTimeout applies when a Command leaves Timeout unset.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
// after the direct child was killed.
const waitDelay = 500 * time.Millisecond

// Command describes one subprocess invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Stdin   []byte
	Env     []string // appended to os.Environ()
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is the captured text of a successful run.
type Output struct {
	Stdout string
	Stderr string
}

// ExitError reports a non-zero exit status together with captured stderr.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return fetch.ErrSubprocess }

// Runner is the seam components use to spawn processes.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, cmd Command) fetch.Result[Output]
}

// Exec runs real processes.
type Exec struct{}

func New() *Exec { return &Exec{} }

func (*Exec) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", zerr.With(fmt.Errorf("%w: %v", fetch.ErrToolUnavailable, err), "tool", name)
	}
	return path, nil
}

// Run starts the command in its own process group and kills the whole group
// when the timeout expires, so helpers spawned by the command die with it.
func (*Exec) Run(ctx context.Context, c Command) fetch.Result[Output] {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if c.Stdin != nil {
		cmd.Stdin = bytes.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fetch.Timeout[Output](timeout)
	}
	if err != nil {
		return fetch.Failure[Output](classify(c, err, stderr.String()))
	}
	return fetch.Success(Output{Stdout: stdout.String(), Stderr: stderr.String()})
}

func classify(c Command, err error, stderr string) error {
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		return &ExitError{Code: exitErr.ExitCode(), Stderr: stderr}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return zerr.With(fmt.Errorf("%w: %v", fetch.ErrToolUnavailable, err), "command", c.Name)
	default:
		return zerr.With(fmt.Errorf("%w: %v", fetch.ErrSubprocess, err), "command", c.String())
	}
}
