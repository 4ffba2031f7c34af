package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbonezy/omcc-statusline/internal/config"
	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/render"
)

// isolate points every path the binary touches at temp dirs and leaves PATH
// without git, gh or bun.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	cacheDir := filepath.Join(t.TempDir(), "cache")
	t.Setenv("HOME", home)
	t.Setenv(config.EnvConfig, "")
	t.Setenv(config.EnvCacheDir, cacheDir)
	t.Setenv(config.EnvTheme, "")
	t.Setenv(config.EnvDebug, "")
	t.Setenv("PATH", t.TempDir())
	return cacheDir
}

func executeRoot(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(append([]string{"omcc-statusline"}, args...))
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_MissingCurrentDirIsFatal(t *testing.T) {
	isolate(t)
	out, err := executeRoot(t, `{"workspace":{}}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrMalformedInput)
	assert.Empty(t, out)
}

func TestRoot_EmptyInputIsFatal(t *testing.T) {
	isolate(t)
	out, err := executeRoot(t, "")
	require.Error(t, err)
	assert.Equal(t, "No JSON input received from stdin", err.Error())
	assert.Empty(t, out)
}

func TestRoot_NoToolsStillRenders(t *testing.T) {
	cacheDir := isolate(t)
	dir := t.TempDir()

	out, err := executeRoot(t, `{"workspace":{"current_dir":"`+dir+`"}}`)
	require.NoError(t, err)

	th := render.DefaultTheme()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, th.Paint(render.Err, "bun not found"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], render.DirLabel(th, dir)))
	assert.True(t, strings.HasSuffix(lines[1], render.Separator(th)+th.Paint(render.Err, "gh not installed")))

	marker, err := os.ReadFile(filepath.Join(cacheDir, github.AvailabilityKey))
	require.NoError(t, err)
	assert.Equal(t, "no-gh", string(marker))
}

func TestRoot_Demo(t *testing.T) {
	isolate(t)
	out, err := executeRoot(t, "", "--demo")
	require.NoError(t, err)
	for _, title := range []string{"all green", "mixed CI + unread comments", "gh not installed", "bun not found"} {
		assert.Contains(t, out, "=== Demo: "+title+" ===")
	}
	assert.Equal(t, 12, strings.Count(out, "\n"))
	assert.Contains(t, out, "💬3")
}

func TestRoot_Version(t *testing.T) {
	isolate(t)
	orig := version
	version = "v1.2.3"
	t.Cleanup(func() { version = orig })

	out, err := executeRoot(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3\n", out)
}

func TestThemeCommand_ListsTokens(t *testing.T) {
	isolate(t)
	out, err := executeRoot(t, "", "theme")
	require.NoError(t, err)
	assert.Contains(t, out, "using defaults")
	for _, tok := range render.Tokens {
		assert.Contains(t, out, string(tok))
	}
	assert.Contains(t, out, "dim fg:3")
}

func TestCacheCommand_ReportsFreshness(t *testing.T) {
	cacheDir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cacheDir, "ci"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, github.AvailabilityKey), []byte("ok"), 0o644))
	review := filepath.Join(cacheDir, github.ReviewCacheKey)
	require.NoError(t, os.WriteFile(review, []byte(`{}`), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(review, old, old))
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "ci", "acme_w_00000000000000ff.json"), []byte(`{"conclusion":null}`), 0o644))

	out, err := executeRoot(t, "", "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "pr-status.json")
	assert.Contains(t, out, "1 hour ago stale")
	assert.Contains(t, out, "fresh (ttl 30m0s) ok")
	assert.Contains(t, out, "ci/acme_w_00000000000000ff.json")
	assert.Contains(t, out, "refresh.lock")
	assert.Contains(t, out, "missing")
}

func TestRunRefresh_SkipsWhenLocked(t *testing.T) {
	isolate(t)
	a := newApp()
	defer a.Close()

	held, err := lockForTest(a)
	require.NoError(t, err)
	defer held.Close()

	require.NoError(t, runRefresh(context.Background(), a))
	_, err = os.Stat(a.store.Path(github.ReviewCacheKey))
	assert.True(t, os.IsNotExist(err))
}

func TestRunRefresh_WritesDocumentWithoutGh(t *testing.T) {
	isolate(t)
	a := newApp()
	defer a.Close()

	require.NoError(t, runRefresh(context.Background(), a))
	raw, err := os.ReadFile(a.store.Path(github.ReviewCacheKey))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unread_count":0`)
}
