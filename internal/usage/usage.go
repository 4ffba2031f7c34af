// Package usage runs the ccusage report that fills the first status line.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultCommand = "bun"
	stderrMaxLen   = 50
)

var DefaultArgs = []string{"x", "ccusage", "statusline", "--visual-burn-rate", "text", "--refresh-interval", "60"}

// Report is the first status line. Failed reports carry a short diagnostic
// in Text and are painted with the error style.
type Report struct {
	Text   string
	Failed bool
}

type Fetcher struct {
	run     runner.Runner
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Fetcher)

func WithCommand(name string, args []string) Option {
	return func(f *Fetcher) {
		if strings.TrimSpace(name) != "" {
			f.command = name
			f.args = append([]string(nil), args...)
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func NewFetcher(run runner.Runner, opts ...Option) *Fetcher {
	f := &Fetcher{
		run:     run,
		command: DefaultCommand,
		args:    DefaultArgs,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch feeds raw to the usage tool and returns its trimmed stdout.
func (f *Fetcher) Fetch(ctx context.Context, raw []byte) Report {
	if _, err := f.run.LookPath(f.command); err != nil {
		return failed(f.command + " not found")
	}
	res := f.run.Run(ctx, runner.Command{
		Name:    f.command,
		Args:    f.args,
		Stdin:   raw,
		Env:     []string{"FORCE_COLOR=1"},
		Timeout: f.timeout,
	})
	switch res.Kind() {
	case fetch.KindTimeout:
		f.logger.Debug("ccusage timed out", "after", res.After())
		return failed(fmt.Sprintf("ccusage timeout (%s)", formatSeconds(f.timeout)))
	case fetch.KindFailure:
		return f.diagnose(res.Err())
	}

	out, _ := res.Value()
	text := strings.TrimSpace(out.Stdout)
	if text == "" {
		return failed("ccusage code 0" + stderrHint(out.Stderr))
	}
	return Report{Text: text}
}

func (f *Fetcher) diagnose(err error) Report {
	f.logger.Debug("ccusage failed", "err", err)
	var exitErr *runner.ExitError
	switch {
	case errors.As(err, &exitErr):
		return failed(fmt.Sprintf("ccusage code %d%s", exitErr.Code, stderrHint(exitErr.Stderr)))
	case errors.Is(err, fetch.ErrToolUnavailable):
		return failed(f.command + " not found")
	default:
		return failed("ccusage OS error")
	}
}

func failed(text string) Report {
	return Report{Text: text, Failed: true}
}

// stderrHint keeps the first line of stderr short enough for a status bar.
func stderrHint(stderr string) string {
	stderr, _, _ = strings.Cut(strings.TrimSpace(stderr), "\n")
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	r := []rune(stderr)
	if len(r) > stderrMaxLen {
		stderr = string(r[:stderrMaxLen-3]) + "…"
	}
	return " (" + stderr + ")"
}

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}
