package github

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

const (
	ReviewCacheKey    = "pr-status.json"
	DefaultReviewTTL  = 5 * time.Minute
	DefaultFetchLimit = 20
)

// ReviewDocument is the on-disk review cache. Reviews holds the GraphQL
// search response verbatim.
type ReviewDocument struct {
	Reviews     json.RawMessage `json:"prs"`
	UnreadCount int             `json:"unread_count"`
	UpdatedAt   int64           `json:"updated_at"`
}

// Review is one open pull request authored by the user.
type Review struct {
	Number     int
	Repository string
	URL        string
	HeadRef    string
	Rollup     Rollup
	// Reported is false when the latest commit carries no rollup at all.
	Reported bool
}

type searchResponse struct {
	Data struct {
		Search struct {
			Nodes []searchNode `json:"nodes"`
		} `json:"search"`
	} `json:"data"`
}

type searchNode struct {
	Number     int    `json:"number"`
	URL        string `json:"url"`
	HeadRef    string `json:"headRefName"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
	Commits struct {
		Nodes []struct {
			Commit struct {
				StatusCheckRollup *struct {
					State string `json:"state"`
				} `json:"statusCheckRollup"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
}

// ParseReviews extracts reviews from a raw search response. Anything that is
// not a search response yields no reviews.
func ParseReviews(raw json.RawMessage) []Review {
	if len(raw) == 0 {
		return nil
	}
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	reviews := make([]Review, 0, len(resp.Data.Search.Nodes))
	for _, n := range resp.Data.Search.Nodes {
		r := Review{
			Number:     n.Number,
			Repository: n.Repository.NameWithOwner,
			URL:        n.URL,
			HeadRef:    n.HeadRef,
			Rollup:     RollupUnknown,
		}
		if len(n.Commits.Nodes) > 0 {
			if rollup := n.Commits.Nodes[0].Commit.StatusCheckRollup; rollup != nil {
				r.Rollup = RollupFromGitHub(rollup.State)
				r.Reported = true
			}
		}
		reviews = append(reviews, r)
	}
	return reviews
}

// Buckets orders reviews worst news first: failing, pending, passing,
// then unknown. Order within a bucket is preserved.
func Buckets(reviews []Review) [4][]Review {
	var out [4][]Review
	for _, r := range reviews {
		var i int
		switch r.Rollup {
		case RollupFailure:
			i = 0
		case RollupPending:
			i = 1
		case RollupSuccess:
			i = 2
		default:
			i = 3
		}
		out[i] = append(out[i], r)
	}
	return out
}

// ReviewStatus is what the review-dot segment shows. A non-empty Diagnostic
// replaces the dots.
type ReviewStatus struct {
	Reviews    []Review
	Unread     int
	Diagnostic string
}

func (s ReviewStatus) Empty() bool {
	return s.Diagnostic == "" && len(s.Reviews) == 0
}

func loadReviewDocument(store *cache.Store, logger *slog.Logger) (ReviewDocument, bool) {
	res := cache.ReadJSON[ReviewDocument](store, ReviewCacheKey)
	doc, ok := res.Value()
	if !ok {
		if res.Kind() == fetch.KindFailure {
			logger.Debug("review cache unavailable", "err", res.Err())
		}
		return ReviewDocument{}, false
	}
	return doc, true
}
