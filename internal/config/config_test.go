package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Usage.Duration)
	assert.Equal(t, 5*time.Minute, cfg.TTL.Reviews.Duration)
	assert.Equal(t, 20, cfg.Reviews.FetchLimit)
}

func TestLoad_PartialOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache_dir = "~/cache/statusline"

[timeouts]
usage = "45s"

[ttl]
ci = "90s"

[reviews]
fetch_limit = 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache", "statusline"), cfg.CacheDir)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Usage.Duration)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Git.Duration)
	assert.Equal(t, 90*time.Second, cfg.TTL.CI.Duration)
	assert.Equal(t, 5, cfg.Reviews.FetchLimit)
	assert.Equal(t, "bun", cfg.Usage.Command)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad toml":          "cache_dir = ",
		"bad duration":      "[timeouts]\ngit = \"soon\"\n",
		"negative duration": "[timeouts]\ngit = \"-1s\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("theme_file = \"/from/file.json\"\n"), 0o644))
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvCacheDir, filepath.Join(dir, "cache"))
	t.Setenv(EnvTheme, "")
	t.Setenv(EnvDebug, "yes")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.CacheDir)
	assert.Equal(t, "/from/file.json", cfg.ThemeFile)
	assert.True(t, cfg.Debug)

	t.Setenv(EnvTheme, "/env/theme.yaml")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/env/theme.yaml", cfg.ThemeFile)
}

func TestEnvFlagEnabled(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		t.Setenv("OMCC_TEST_FLAG", v)
		assert.True(t, EnvFlagEnabled("OMCC_TEST_FLAG"), v)
	}
	for _, v := range []string{"", "0", "off", "nope"} {
		t.Setenv("OMCC_TEST_FLAG", v)
		assert.False(t, EnvFlagEnabled("OMCC_TEST_FLAG"), v)
	}
}

func TestDefaultPathsFollowHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".config", "omcc-statusline", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join(home, ".config", "omcc-statusline", "theme.json"), Default().ThemeFile)
}
