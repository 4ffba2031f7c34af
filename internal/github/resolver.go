package github

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/gitstate"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

type Options struct {
	ReviewTTL time.Duration
	CITTL     time.Duration
	Timeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.ReviewTTL <= 0 {
		o.ReviewTTL = DefaultReviewTTL
	}
	if o.CITTL <= 0 {
		o.CITTL = DefaultCITTL
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Resolver serves review dots and CI state. Failures never escape: they
// degrade to an empty status or a diagnostic.
type Resolver struct {
	run       runner.Runner
	store     *cache.Store
	prober    *Prober
	refresher Refresher
	opts      Options
	logger    *slog.Logger

	remoteURL func(dir, remote string) (string, error)
}

func NewResolver(run runner.Runner, store *cache.Store, prober *Prober, refresher Refresher, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		run:       run,
		store:     store,
		prober:    prober,
		refresher: refresher,
		opts:      opts.withDefaults(),
		logger:    logger,
		remoteURL: gitstate.RemoteURL,
	}
}

// ReviewStatus returns the cached review dots, kicking off a background
// refresh when the cache is stale. It never waits for that refresh.
func (r *Resolver) ReviewStatus(ctx context.Context) ReviewStatus {
	if a := r.prober.Check(ctx); a != AvailabilityOK {
		return ReviewStatus{Diagnostic: a.Diagnostic()}
	}

	if !r.store.IsFresh(ReviewCacheKey, r.opts.ReviewTTL) && r.refresher != nil {
		started, err := r.refresher.TriggerRefresh()
		if err != nil {
			r.logger.Debug("trigger review refresh", "err", err)
		} else if !started {
			r.logger.Debug("review refresh already running")
		}
	}

	doc, ok := loadReviewDocument(r.store, r.logger)
	if !ok {
		return ReviewStatus{}
	}
	reviews := ParseReviews(doc.Reviews)
	if len(reviews) == 0 {
		return ReviewStatus{}
	}
	return ReviewStatus{Reviews: reviews, Unread: doc.UnreadCount}
}

func ghCommand(timeout time.Duration, args ...string) runner.Command {
	return runner.Command{Name: "gh", Args: args, Timeout: timeout}
}
