package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mrbonezy/omcc-statusline/internal/aggregate"
	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/config"
	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/gitstate"
	"github.com/mrbonezy/omcc-statusline/internal/lock"
	"github.com/mrbonezy/omcc-statusline/internal/logging"
	"github.com/mrbonezy/omcc-statusline/internal/render"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
	"github.com/mrbonezy/omcc-statusline/internal/usage"
)

const (
	refreshLockKey     = "refresh.lock"
	refreshCommandName = "__refresh-reviews"
)

// app is one invocation's wiring. Nothing in it outlives the process except
// the detached refresh child.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	store  *cache.Store
	run    runner.Runner
	theme  render.Theme
}

var executablePath = os.Executable

func newApp() *app {
	cfg, cfgErr := config.FromEnv()
	if cfgErr != nil {
		cfg = config.Default()
		cfg.Debug = config.EnvFlagEnabled(config.EnvDebug)
	}
	// An unwritable debug log falls back to discarding.
	logger, closer, _ := logging.New(cfg.Debug, cfg.CacheDir)
	if cfgErr != nil {
		logger.Warn("config ignored", "err", cfgErr)
	}
	theme, themeErr := render.LoadTheme(cfg.ThemeFile)
	if themeErr != nil {
		logger.Warn("theme ignored", "path", cfg.ThemeFile, "err", themeErr)
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		closer: closer,
		store:  cache.NewStore(cfg.CacheDir),
		run:    runner.New(),
		theme:  theme,
	}
}

func (a *app) Close() error {
	return a.closer.Close()
}

func (a *app) prober() *github.Prober {
	return github.NewProber(a.run, a.store, a.cfg.TTL.Availability.Duration, a.cfg.Timeouts.GH.Duration, a.logger)
}

// refreshCoordinator re-executes this binary as the detached refresh job.
func (a *app) refreshCoordinator() lock.Coordinator {
	c := lock.Coordinator{Path: a.store.Path(refreshLockKey)}
	exe, err := executablePath()
	if err != nil {
		a.logger.Debug("cannot locate executable for refresh", "err", err)
		return c
	}
	c.Job = lock.Detached(exe, []string{refreshCommandName}, []string{
		config.EnvCacheDir + "=" + a.cfg.CacheDir,
	})
	return c
}

func (a *app) aggregator() *aggregate.Aggregator {
	resolver := github.NewResolver(a.run, a.store, a.prober(), a.refreshCoordinator(), github.Options{
		ReviewTTL: a.cfg.TTL.Reviews.Duration,
		CITTL:     a.cfg.TTL.CI.Duration,
		Timeout:   a.cfg.Timeouts.GH.Duration,
	}, a.logger)
	git := gitstate.NewReader(a.run, a.cfg.Timeouts.Git.Duration, a.logger)
	fetcher := usage.NewFetcher(a.run,
		usage.WithCommand(a.cfg.Usage.Command, a.cfg.Usage.Args),
		usage.WithTimeout(a.cfg.Timeouts.Usage.Duration),
		usage.WithLogger(a.logger),
	)
	return aggregate.New(git, resolver, fetcher, a.logger)
}
