package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/lock"
	"github.com/mrbonezy/omcc-statusline/internal/render"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var readBuildInfo = debug.ReadBuildInfo

// buildVersion prefers the linked version, then the module version recorded
// by go install.
func buildVersion() string {
	if v := strings.TrimSpace(version); v != "" && v != "dev" {
		return v
	}
	if info, ok := readBuildInfo(); ok && info != nil {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

func newRootCommand(args []string) *cobra.Command {
	var showDemo bool
	root := &cobra.Command{
		Use:           "omcc-statusline",
		Short:         "Two-line status line: usage, directory, git, CI and review state",
		Long:          "Reads the status line JSON document on stdin and prints two lines: the usage report, then directory, branch, CI and open review state.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersion(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp()
			defer a.Close()
			if showDemo {
				return writeDemo(cmd.OutOrStdout(), a.theme)
			}
			return runStatusline(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.Flags().BoolVar(&showDemo, "demo", false, "Print sample status lines for visual testing")

	root.AddCommand(
		newThemeCommand(),
		newCacheCommand(),
		newRefreshCommand(),
	)

	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	return root
}

// runStatusline prints nothing unless the input is usable, so a fatal input
// error leaves stdout empty.
func runStatusline(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	raw, err := readInput(in, a.cfg.Timeouts.Stdin.Duration)
	if err != nil {
		return err
	}
	dir, err := parseInput(raw)
	if err != nil {
		return err
	}
	inputs := a.aggregator().Aggregate(ctx, dir, raw)
	_, err = fmt.Fprintln(out, render.Render(a.theme, inputs))
	return err
}

func newRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:    refreshCommandName,
		Short:  "Rebuild the review cache (started in the background)",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp()
			defer a.Close()
			return runRefresh(cmd.Context(), a)
		},
	}
}

func runRefresh(ctx context.Context, a *app) error {
	held, inherited := lock.Inherited()
	if !inherited {
		var err error
		held, err = lock.TryAcquire(a.store.Path(refreshLockKey))
		if err != nil {
			if errors.Is(err, fetch.ErrLockContention) {
				a.logger.Debug("review refresh already running")
				return nil
			}
			return err
		}
	}
	defer held.Close()

	// Both calls run in parallel, each bounded by the gh timeout.
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.GH.Duration+5*time.Second)
	defer cancel()
	return github.RefreshReviewCache(ctx, a.run, a.store, github.RefreshOptions{
		FetchLimit: a.cfg.Reviews.FetchLimit,
		Timeout:    a.cfg.Timeouts.GH.Duration,
		Logger:     a.logger,
	})
}
