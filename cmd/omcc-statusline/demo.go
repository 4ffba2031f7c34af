package main

import (
	"fmt"
	"io"

	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/gitstate"
	"github.com/mrbonezy/omcc-statusline/internal/render"
	"github.com/mrbonezy/omcc-statusline/internal/usage"
)

const (
	demoDir           = "/my-project"
	demoBranchMain    = "feature/wonderful-new-feature"
	demoBranchFeature = "feat/auth"
	demoBranchDev     = "develop"
)

type demoScenario struct {
	title  string
	inputs render.Inputs
}

func demoReviews(rollups ...github.Rollup) []github.Review {
	out := make([]github.Review, 0, len(rollups))
	for i, r := range rollups {
		out = append(out, github.Review{Number: i + 1, Rollup: r, Reported: r != github.RollupUnknown})
	}
	return out
}

func demoScenarios(t render.Theme) []demoScenario {
	usageText := func(model, cost string) usage.Report {
		return usage.Report{Text: "🤖 " + model + " " + t.Paint(render.Sep, "|") + " 💰 " + cost + " session"}
	}
	return []demoScenario{
		{
			title: "all green",
			inputs: render.Inputs{
				Dir:     demoDir,
				Git:     gitstate.RepoStatus{Branch: demoBranchMain, Staged: true},
				Reviews: github.ReviewStatus{Reviews: demoReviews(github.RollupSuccess, github.RollupSuccess, github.RollupSuccess)},
				Usage:   usageText("Sonnet 4.5", "$12.34"),
			},
		},
		{
			title: "mixed CI + unread comments",
			inputs: render.Inputs{
				Dir: demoDir,
				Git: gitstate.RepoStatus{Branch: demoBranchFeature, Dirty: true, Staged: true},
				CI:  github.ConclusionFailure,
				Reviews: github.ReviewStatus{
					Reviews: demoReviews(
						github.RollupFailure,
						github.RollupPending, github.RollupPending,
						github.RollupSuccess, github.RollupSuccess,
						github.RollupUnknown,
					),
					Unread: 3,
				},
				Usage: usageText("Opus 4.6", "$58.07"),
			},
		},
		{
			title: "gh not installed",
			inputs: render.Inputs{
				Dir:     demoDir,
				Git:     gitstate.RepoStatus{Branch: demoBranchMain},
				Reviews: github.ReviewStatus{Diagnostic: github.AvailabilityToolMissing.Diagnostic()},
				Usage:   usageText("Sonnet 4.5", "$0.42"),
			},
		},
		{
			title: "bun not found",
			inputs: render.Inputs{
				Dir:   demoDir,
				Git:   gitstate.RepoStatus{Branch: demoBranchDev, Ahead: 1},
				Usage: usage.Report{Text: "bun not found", Failed: true},
			},
		},
	}
}

func writeDemo(w io.Writer, t render.Theme) error {
	for _, s := range demoScenarios(t) {
		if _, err := fmt.Fprintf(w, "=== Demo: %s ===\n%s\n", s.title, render.Render(t, s.inputs)); err != nil {
			return err
		}
	}
	return nil
}
