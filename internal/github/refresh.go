package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

// Refresher starts a background rebuild of the review cache. started is
// false when another refresh already holds the lock.
type Refresher interface {
	TriggerRefresh() (started bool, err error)
}

type RefreshOptions struct {
	FetchLimit int
	Timeout    time.Duration
	Now        func() time.Time
	Logger     *slog.Logger
}

var participatingReasons = map[string]bool{
	"comment":          true,
	"mention":          true,
	"author":           true,
	"review_requested": true,
	"assign":           true,
}

type notification struct {
	Unread  bool   `json:"unread"`
	Reason  string `json:"reason"`
	Subject struct {
		Type string `json:"type"`
	} `json:"subject"`
}

func searchQuery(limit int) string {
	return fmt.Sprintf(`query {
  search(query: "is:open is:pr author:@me", type: ISSUE, first: %d) {
    nodes {
      ... on PullRequest {
        number
        repository { nameWithOwner }
        url
        headRefName
        commits(last: 1) { nodes { commit { statusCheckRollup { state } } } }
      }
    }
  }
}`, limit)
}

// RefreshReviewCache fetches open reviews and the unread notification count
// and replaces the review cache. A failed fetch degrades its half of the
// document; only a failed write is returned.
func RefreshReviewCache(ctx context.Context, run runner.Runner, store *cache.Store, opts RefreshOptions) error {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = DefaultFetchLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	doc := ReviewDocument{Reviews: json.RawMessage(`{}`)}
	var g errgroup.Group
	g.Go(func() error {
		res := run.Run(ctx, runner.Command{
			Name:    "gh",
			Args:    []string{"api", "graphql", "-f", "query=" + searchQuery(opts.FetchLimit)},
			Timeout: opts.Timeout,
		})
		out, ok := res.Value()
		if !ok {
			logger.Debug("review search failed", "err", res.Err())
			return nil
		}
		if !json.Valid([]byte(out.Stdout)) {
			logger.Debug("review search returned invalid json")
			return nil
		}
		doc.Reviews = json.RawMessage(out.Stdout)
		return nil
	})
	g.Go(func() error {
		res := run.Run(ctx, runner.Command{
			Name:    "gh",
			Args:    []string{"api", "notifications"},
			Timeout: opts.Timeout,
		})
		out, ok := res.Value()
		if !ok {
			logger.Debug("notifications fetch failed", "err", res.Err())
			return nil
		}
		var items []notification
		if err := json.Unmarshal([]byte(out.Stdout), &items); err != nil {
			logger.Debug("notifications decode failed", "err", err)
			return nil
		}
		doc.UnreadCount = countUnread(items)
		return nil
	})
	_ = g.Wait()

	doc.UpdatedAt = opts.Now().Unix()
	if err := store.WriteJSON(ReviewCacheKey, doc); err != nil {
		return zerr.With(zerr.Wrap(err, "write review cache"), "path", store.Path(ReviewCacheKey))
	}
	logger.Debug("review cache refreshed", "unread", doc.UnreadCount)
	return nil
}

func countUnread(items []notification) int {
	n := 0
	for _, it := range items {
		if !it.Unread || !participatingReasons[it.Reason] {
			continue
		}
		if it.Subject.Type == "PullRequest" || it.Subject.Type == "Issue" {
			n++
		}
	}
	return n
}
