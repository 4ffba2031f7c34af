package github

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
)

const DefaultCITTL = 2 * time.Minute

var ownerRepoPattern = regexp.MustCompile(`[:/]([^/]+)/([^/]+?)(?:\.git)?$`)

// ParseOwnerRepo extracts owner and repository from an SSH or HTTPS remote.
func ParseOwnerRepo(remote string) (string, string, bool) {
	m := ownerRepoPattern.FindStringSubmatch(remote)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// CIKey names the per-branch cache document. The branch is hashed because
// branch names may contain path separators.
func CIKey(owner, repo, branch string) string {
	return fmt.Sprintf("ci/%s_%s_%016x.json", owner, repo, xxhash.Sum64String(branch))
}

type ciEntry struct {
	Conclusion *string `json:"conclusion"`
}

// CheckRun is the subset of a REST check-run the classifier reads.
type CheckRun struct {
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
}

// ClassifyCheckRuns reduces check runs to one verdict. No runs is
// ConclusionNone.
func ClassifyCheckRuns(runs []CheckRun) Conclusion {
	if len(runs) == 0 {
		return ConclusionNone
	}
	for _, r := range runs {
		switch r.Conclusion {
		case "failure", "timed_out", "cancelled", "action_required":
			return ConclusionFailure
		}
	}
	allGreen := true
	for _, r := range runs {
		if (r.Conclusion != "" && r.Conclusion != "success") || r.Status != "completed" {
			allGreen = false
			break
		}
	}
	if allGreen {
		return ConclusionSuccess
	}
	for _, r := range runs {
		if r.Status == "queued" || r.Status == "in_progress" {
			return ConclusionPending
		}
	}
	return ConclusionUnknown
}

// CIStatus resolves the CI verdict for branch. The review cache wins when it
// lists the branch, even if stale; then the per-branch cache; then one live
// check-runs call when gh is usable.
func (r *Resolver) CIStatus(ctx context.Context, dir, branch string) Conclusion {
	if branch == "" {
		return ConclusionNone
	}
	if c, ok := r.ciFromReviews(branch); ok {
		return c
	}

	remote, err := r.remoteURL(dir, "origin")
	if err != nil {
		r.logger.Debug("no origin remote", "dir", dir, "err", err)
		return ConclusionNone
	}
	owner, repo, ok := ParseOwnerRepo(remote)
	if !ok {
		return ConclusionNone
	}
	key := CIKey(owner, repo, branch)

	if r.store.IsFresh(key, r.opts.CITTL) {
		if entry, ok := readCIEntry(r, key); ok {
			if entry.Conclusion == nil {
				return ConclusionNone
			}
			return parseConclusion(*entry.Conclusion)
		}
	}

	if r.prober.Check(ctx) != AvailabilityOK {
		return ConclusionNone
	}
	return r.fetchCheckRuns(ctx, owner, repo, branch, key)
}

func (r *Resolver) ciFromReviews(branch string) (Conclusion, bool) {
	doc, ok := loadReviewDocument(r.store, r.logger)
	if !ok {
		return ConclusionNone, false
	}
	for _, rev := range ParseReviews(doc.Reviews) {
		if rev.HeadRef != branch {
			continue
		}
		if !rev.Reported {
			return ConclusionPending, true
		}
		return conclusionFromRollup(rev.Rollup), true
	}
	return ConclusionNone, false
}

func readCIEntry(r *Resolver, key string) (ciEntry, bool) {
	res := cache.ReadJSON[ciEntry](r.store, key)
	entry, ok := res.Value()
	if !ok {
		r.logger.Debug("ci cache unreadable", "key", key, "err", res.Err())
	}
	return entry, ok
}

func (r *Resolver) fetchCheckRuns(ctx context.Context, owner, repo, branch, key string) Conclusion {
	res := r.run.Run(ctx, ghCommand(r.opts.Timeout,
		"api", fmt.Sprintf("repos/%s/%s/commits/%s/check-runs", owner, repo, branch),
		"--jq", ".check_runs",
	))
	out, ok := res.Value()
	if !ok {
		r.logger.Debug("check-runs fetch failed", "branch", branch, "err", res.Err())
		return ConclusionNone
	}
	var runs []CheckRun
	if err := json.Unmarshal([]byte(out.Stdout), &runs); err != nil {
		r.logger.Debug("check-runs decode failed", "branch", branch, "err", err)
		return ConclusionNone
	}

	verdict := ClassifyCheckRuns(runs)
	entry := ciEntry{}
	if verdict != ConclusionNone {
		s := string(verdict)
		entry.Conclusion = &s
	}
	if err := r.store.WriteJSON(key, entry); err != nil {
		r.logger.Debug("write ci cache", "key", key, "err", err)
	}
	return verdict
}
