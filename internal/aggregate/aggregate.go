// Package aggregate runs the status sources concurrently and merges whatever
// they return into render inputs.
package aggregate

import (
	"context"
	"log/slog"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/gitstate"
	"github.com/mrbonezy/omcc-statusline/internal/render"
	"github.com/mrbonezy/omcc-statusline/internal/usage"
)

type GitReader interface {
	Read(ctx context.Context, dir string) gitstate.RepoStatus
}

type ReviewSource interface {
	ReviewStatus(ctx context.Context) github.ReviewStatus
	CIStatus(ctx context.Context, dir, branch string) github.Conclusion
}

type UsageFetcher interface {
	Fetch(ctx context.Context, raw []byte) usage.Report
}

type Aggregator struct {
	git     GitReader
	reviews ReviewSource
	usage   UsageFetcher
	logger  *slog.Logger
}

func New(git GitReader, reviews ReviewSource, usage UsageFetcher, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Aggregator{git: git, reviews: reviews, usage: usage, logger: logger}
}

// Aggregate never fails. Each source is bounded by its own timeout, a
// panicking source contributes its zero value, and CI is resolved once the
// branch is known.
func (a *Aggregator) Aggregate(ctx context.Context, dir string, raw []byte) render.Inputs {
	in := render.Inputs{Dir: dir}

	var g errgroup.Group
	g.Go(func() error {
		defer zerr.Defer(a.onPanic(ctx, "git"))
		in.Git = a.git.Read(ctx, dir)
		return nil
	})
	g.Go(func() error {
		defer zerr.Defer(a.onPanic(ctx, "reviews"))
		in.Reviews = a.reviews.ReviewStatus(ctx)
		return nil
	})
	g.Go(func() error {
		defer zerr.Defer(a.onPanic(ctx, "usage"))
		in.Usage = a.usage.Fetch(ctx, raw)
		return nil
	})
	_ = g.Wait()

	if in.Git.Branch != "" {
		in.CI = a.ciStatus(ctx, dir, in.Git.Branch)
	}
	return in
}

func (a *Aggregator) ciStatus(ctx context.Context, dir, branch string) (c github.Conclusion) {
	defer zerr.Defer(a.onPanic(ctx, "ci"))
	return a.reviews.CIStatus(ctx, dir, branch)
}

func (a *Aggregator) onPanic(ctx context.Context, unit string) func(error) {
	return func(err error) {
		zerr.Log(ctx, a.logger, zerr.With(err, "unit", unit))
	}
}
