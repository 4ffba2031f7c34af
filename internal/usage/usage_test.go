package usage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

type fakeRunner struct {
	missing bool
	result  fetch.Result[runner.Output]
	got     runner.Command
	calls   int
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing {
		return "", fetch.ErrToolUnavailable
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Run(_ context.Context, cmd runner.Command) fetch.Result[runner.Output] {
	f.calls++
	f.got = cmd
	return f.result
}

func TestFetch_PassesInputThrough(t *testing.T) {
	fr := &fakeRunner{result: fetch.Success(runner.Output{Stdout: "  🤖 Opus | 💰 $1.00\n"})}
	raw := []byte(`{"workspace":{"current_dir":"/x"}}`)

	got := NewFetcher(fr).Fetch(context.Background(), raw)
	assert.Equal(t, Report{Text: "🤖 Opus | 💰 $1.00"}, got)
	assert.Equal(t, "bun", fr.got.Name)
	assert.Equal(t, DefaultArgs, fr.got.Args)
	assert.Equal(t, raw, fr.got.Stdin)
	assert.Equal(t, []string{"FORCE_COLOR=1"}, fr.got.Env)
	assert.Equal(t, DefaultTimeout, fr.got.Timeout)
}

func TestFetch_Diagnostics(t *testing.T) {
	long := strings.Repeat("x", 60)
	tests := []struct {
		name    string
		missing bool
		result  fetch.Result[runner.Output]
		want    string
	}{
		{name: "bun missing", missing: true, want: "bun not found"},
		{name: "exit with stderr", result: fetch.Failure[runner.Output](&runner.ExitError{Code: 2, Stderr: "boom\n"}), want: "ccusage code 2 (boom)"},
		{name: "multi-line stderr", result: fetch.Failure[runner.Output](&runner.ExitError{Code: 2, Stderr: "error: boom\r\nhint: retry\n"}), want: "ccusage code 2 (error: boom)"},
		{name: "exit without stderr", result: fetch.Failure[runner.Output](&runner.ExitError{Code: 1}), want: "ccusage code 1"},
		{name: "long stderr", result: fetch.Failure[runner.Output](&runner.ExitError{Code: 1, Stderr: long}), want: "ccusage code 1 (" + strings.Repeat("x", 47) + "…)"},
		{name: "exactly fifty", result: fetch.Failure[runner.Output](&runner.ExitError{Code: 1, Stderr: strings.Repeat("y", 50)}), want: "ccusage code 1 (" + strings.Repeat("y", 50) + ")"},
		{name: "empty stdout", result: fetch.Success(runner.Output{Stdout: "  \n"}), want: "ccusage code 0"},
		{name: "timeout", result: fetch.Timeout[runner.Output](30 * time.Second), want: "ccusage timeout (30s)"},
		{name: "vanished binary", result: fetch.Failure[runner.Output](fetch.ErrToolUnavailable), want: "bun not found"},
		{name: "os error", result: fetch.Failure[runner.Output](errors.New("fork: resource unavailable")), want: "ccusage OS error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fr := &fakeRunner{missing: tc.missing, result: tc.result}
			got := NewFetcher(fr).Fetch(context.Background(), nil)
			assert.True(t, got.Failed)
			assert.Equal(t, tc.want, got.Text)
			if tc.missing {
				assert.Zero(t, fr.calls)
			}
		})
	}
}

func TestFetch_TimeoutLabelUsesConfiguredValue(t *testing.T) {
	fr := &fakeRunner{result: fetch.Timeout[runner.Output](time.Second)}
	got := NewFetcher(fr, WithTimeout(time.Second)).Fetch(context.Background(), nil)
	assert.Equal(t, "ccusage timeout (1s)", got.Text)
}

func TestFetch_RealSubprocessTimeout(t *testing.T) {
	f := NewFetcher(runner.New(),
		WithCommand("/bin/sh", []string{"-c", "sleep 5"}),
		WithTimeout(150*time.Millisecond),
	)
	start := time.Now()
	got := f.Fetch(context.Background(), nil)
	require.True(t, got.Failed)
	assert.Equal(t, "ccusage timeout (150ms)", got.Text)
	assert.Less(t, time.Since(start), 3*time.Second)
}
