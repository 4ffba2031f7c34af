package github

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

// scriptedRunner answers commands by the joined argument prefix.
type scriptedRunner struct {
	mu        sync.Mutex
	missing   bool
	responses map[string]fetch.Result[runner.Output]
	calls     []string
	lookups   int
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{responses: map[string]fetch.Result[runner.Output]{}}
}

func (s *scriptedRunner) on(prefix string, res fetch.Result[runner.Output]) *scriptedRunner {
	s.responses[prefix] = res
	return s
}

func (s *scriptedRunner) LookPath(name string) (string, error) {
	s.mu.Lock()
	s.lookups++
	s.mu.Unlock()
	if s.missing {
		return "", fetch.ErrToolUnavailable
	}
	return "/usr/bin/" + name, nil
}

func (s *scriptedRunner) Run(_ context.Context, cmd runner.Command) fetch.Result[runner.Output] {
	line := cmd.Name + " " + strings.Join(cmd.Args, " ")
	s.mu.Lock()
	s.calls = append(s.calls, line)
	s.mu.Unlock()
	for prefix, res := range s.responses {
		if strings.HasPrefix(line, prefix) {
			return res
		}
	}
	return fetch.Failure[runner.Output](&runner.ExitError{Code: 1})
}

func (s *scriptedRunner) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

func (s *scriptedRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func ok(stdout string) fetch.Result[runner.Output] {
	return fetch.Success(runner.Output{Stdout: stdout})
}

type countingRefresher struct {
	calls int
}

func (c *countingRefresher) TriggerRefresh() (bool, error) {
	c.calls++
	return true, nil
}

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(t.TempDir())
}

const sampleSearch = `{"data":{"search":{"nodes":[
 {"number":1,"url":"https://github.com/acme/a/pull/1","headRefName":"ok-branch","repository":{"nameWithOwner":"acme/a"},
  "commits":{"nodes":[{"commit":{"statusCheckRollup":{"state":"SUCCESS"}}}]}},
 {"number":2,"url":"https://github.com/acme/a/pull/2","headRefName":"bad-branch","repository":{"nameWithOwner":"acme/a"},
  "commits":{"nodes":[{"commit":{"statusCheckRollup":{"state":"FAILURE"}}}]}},
 {"number":3,"url":"","headRefName":"wip","repository":{"nameWithOwner":"acme/b"},
  "commits":{"nodes":[{"commit":{"statusCheckRollup":null}}]}},
 {"number":4,"url":"https://github.com/acme/b/pull/4","headRefName":"slow","repository":{"nameWithOwner":"acme/b"},
  "commits":{"nodes":[{"commit":{"statusCheckRollup":{"state":"EXPECTED"}}}]}},
 {"number":5,"url":"https://github.com/acme/b/pull/5","headRefName":"odd","repository":{"nameWithOwner":"acme/b"},
  "commits":{"nodes":[{"commit":{"statusCheckRollup":{"state":"NEUTRAL"}}}]}}
]}}}`
