// Package github resolves review dots and CI state for the status line from
// the gh CLI, a shared review cache and per-branch CI caches.
package github

import "strings"

// Rollup is the aggregate check state GitHub reports for a commit.
type Rollup string

const (
	RollupSuccess Rollup = "success"
	RollupFailure Rollup = "failure"
	RollupPending Rollup = "pending"
	RollupUnknown Rollup = "unknown"
)

// RollupFromGitHub converts the GraphQL StatusState vocabulary.
func RollupFromGitHub(state string) Rollup {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "SUCCESS":
		return RollupSuccess
	case "FAILURE", "ERROR":
		return RollupFailure
	case "PENDING", "EXPECTED":
		return RollupPending
	default:
		return RollupUnknown
	}
}

// Conclusion is the CI verdict for a branch. ConclusionNone means nothing to
// show, for example a branch without check runs.
type Conclusion string

const (
	ConclusionNone    Conclusion = ""
	ConclusionSuccess Conclusion = "success"
	ConclusionFailure Conclusion = "failure"
	ConclusionPending Conclusion = "pending"
	ConclusionUnknown Conclusion = "unknown"
)

func conclusionFromRollup(r Rollup) Conclusion {
	switch r {
	case RollupSuccess:
		return ConclusionSuccess
	case RollupFailure:
		return ConclusionFailure
	case RollupPending:
		return ConclusionPending
	default:
		return ConclusionUnknown
	}
}

func parseConclusion(s string) Conclusion {
	switch Conclusion(s) {
	case ConclusionSuccess, ConclusionFailure, ConclusionPending, ConclusionUnknown:
		return Conclusion(s)
	default:
		return ConclusionNone
	}
}
