// Package gitstate reads local repository state with at most one subprocess
// per invocation.
package gitstate

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

// DefaultTimeout bounds the local status call.
const DefaultTimeout = 3 * time.Second

// RepoStatus is the per-invocation view of a working tree. An empty Branch
// means detached HEAD or not a repository.
type RepoStatus struct {
	Branch    string
	Ahead     int
	Behind    int
	Dirty     bool
	Staged    bool
	Untracked bool
}

var (
	aheadPattern  = regexp.MustCompile(`ahead (\d+)`)
	behindPattern = regexp.MustCompile(`behind (\d+)`)
)

// Reader runs `git status` through a runner and falls back to go-git when
// the git binary is missing.
type Reader struct {
	run     runner.Runner
	timeout time.Duration
	logger  *slog.Logger
	// fallback is swapped in tests.
	fallback func(ctx context.Context, dir string) (RepoStatus, error)
}

func NewReader(run runner.Runner, timeout time.Duration, logger *slog.Logger) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{run: run, timeout: timeout, logger: logger, fallback: readWithGoGit}
}

// Read never fails: any problem yields an empty RepoStatus.
func (r *Reader) Read(ctx context.Context, dir string) RepoStatus {
	res := r.run.Run(ctx, runner.Command{
		Name:    "git",
		Args:    []string{"-C", dir, "--no-optional-locks", "status", "--porcelain=v1", "--branch"},
		Timeout: r.timeout,
	})
	if out, ok := res.Value(); ok {
		return ParsePorcelain(out.Stdout)
	}
	if !errors.Is(res.Err(), fetch.ErrToolUnavailable) {
		r.logger.DebugContext(ctx, "git status failed", "dir", dir, "reason", res.Reason())
		return RepoStatus{}
	}

	r.logger.DebugContext(ctx, "git binary missing; reading with go-git", "dir", dir)
	fbCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	type result struct {
		status RepoStatus
		err    error
	}
	done := make(chan result, 1)
	go func() {
		st, err := r.fallback(fbCtx, dir)
		done <- result{status: st, err: err}
	}()
	select {
	case out := <-done:
		if out.err != nil {
			r.logger.DebugContext(ctx, "go-git status failed", "dir", dir, "error", out.err)
			return RepoStatus{}
		}
		return out.status
	case <-fbCtx.Done():
		r.logger.DebugContext(ctx, "go-git status timed out", "dir", dir, "timeout", r.timeout)
		return RepoStatus{}
	}
}

// ParsePorcelain parses `git status --porcelain=v1 --branch` output.
func ParsePorcelain(out string) RepoStatus {
	var st RepoStatus
	lines := strings.Split(out, "\n")
	if len(lines) == 0 {
		return st
	}
	header := lines[0]
	if strings.HasPrefix(header, "## ") {
		st.Branch = parseBranch(strings.TrimPrefix(header, "## "))
		st.Ahead = matchCount(aheadPattern, header)
		st.Behind = matchCount(behindPattern, header)
		lines = lines[1:]
	}
	for _, line := range lines {
		if len(line) < 2 {
			continue
		}
		applyCodes(&st, line[0], line[1])
	}
	return st
}

func parseBranch(part string) string {
	if rest, ok := strings.CutPrefix(part, "No commits yet on "); ok {
		return strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(part, "Initial commit on "); ok {
		return strings.TrimSpace(rest)
	}
	var branch string
	if before, _, ok := strings.Cut(part, "..."); ok {
		branch = before
	} else if before, _, ok := strings.Cut(part, " "); ok {
		branch = before
	} else {
		branch = part
	}
	branch = strings.TrimSpace(branch)
	if branch == "HEAD" {
		return ""
	}
	return branch
}

func matchCount(re *regexp.Regexp, header string) int {
	m := re.FindStringSubmatch(header)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func applyCodes(st *RepoStatus, x, y byte) {
	if strings.IndexByte("MADRC", x) >= 0 {
		st.Staged = true
	}
	if y == 'M' || y == 'D' {
		st.Dirty = true
	}
	if x == '?' && y == '?' {
		st.Untracked = true
	}
}
