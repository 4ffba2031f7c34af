package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muesli/termenv"

	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/gitstate"
	"github.com/mrbonezy/omcc-statusline/internal/usage"
)

const (
	BranchGlyph       = "⑂"
	ReviewGlyph       = "⁕"
	parentDirMaxRunes = 15
)

// Segments are the already-painted pieces of a status line. Empty strings
// are skipped.
type Segments struct {
	Dir           string
	Branch        string
	GitIndicators string
	CI            string
	Reviews       string
	Usage         string
}

// Inputs is everything one invocation resolved.
type Inputs struct {
	Dir     string
	Git     gitstate.RepoStatus
	CI      github.Conclusion
	Reviews github.ReviewStatus
	Usage   usage.Report
}

// Line joins segments into the usage line and the location line.
func Line(t Theme, s Segments) string {
	var b strings.Builder
	b.WriteString(s.Dir)
	if s.Branch != "" {
		b.WriteString(" ")
		b.WriteString(t.Paint(BranchSign, BranchGlyph))
		b.WriteString(t.Paint(BranchName, s.Branch))
		b.WriteString(s.GitIndicators)
	}
	if s.CI != "" {
		b.WriteString(" ")
		b.WriteString(s.CI)
	}
	if s.Reviews != "" {
		b.WriteString(Separator(t))
		b.WriteString(s.Reviews)
	}
	return s.Usage + "\n" + b.String()
}

func Render(t Theme, in Inputs) string {
	return Line(t, Segments{
		Dir:           DirLabel(t, in.Dir),
		Branch:        in.Git.Branch,
		GitIndicators: GitIndicators(t, in.Git),
		CI:            CILabel(t, in.CI),
		Reviews:       ReviewDots(t, in.Reviews),
		Usage:         UsageLine(t, in.Usage),
	})
}

func Separator(t Theme) string {
	return " " + t.Paint(Sep, "|") + " "
}

// DirLabel shows "parent/current/" with a long parent cut to fit.
func DirLabel(t Theme, dir string) string {
	dir = filepath.Clean(dir)
	current := filepath.Base(dir)
	if current == string(filepath.Separator) || current == "." {
		return t.Paint(DirName, current)
	}
	parent := filepath.Base(filepath.Dir(dir))
	if parent == string(filepath.Separator) || parent == "." {
		parent = ""
	}
	if parent == "" || parent == current {
		return t.Paint(DirName, current+"/")
	}
	if r := []rune(parent); len(r) > parentDirMaxRunes {
		parent = string(r[:parentDirMaxRunes-1]) + "…"
	}
	return t.Paint(DirParent, parent+"/") + t.Paint(DirName, current+"/")
}

// GitIndicators emits, in order: dirty, staged, untracked, ahead, behind.
func GitIndicators(t Theme, st gitstate.RepoStatus) string {
	var b strings.Builder
	if st.Dirty {
		b.WriteString(t.Paint(GitDirty, "*"))
	}
	if st.Staged {
		b.WriteString(t.Paint(GitStaged, "+"))
	}
	if st.Untracked {
		b.WriteString(t.Paint(GitUntracked, "?"))
	}
	if st.Ahead > 0 {
		b.WriteString(t.Paint(GitAhead, "↑"))
	}
	if st.Behind > 0 {
		b.WriteString(t.Paint(GitBehind, "↓"))
	}
	return b.String()
}

// CILabel colors a fixed "CI" label by verdict. Unknown and none show
// nothing.
func CILabel(t Theme, c github.Conclusion) string {
	switch c {
	case github.ConclusionSuccess:
		return t.Paint(CIOK, "CI")
	case github.ConclusionFailure:
		return t.Paint(CIFail, "CI")
	case github.ConclusionPending:
		return t.Paint(CIWait, "CI")
	default:
		return ""
	}
}

var bucketTokens = [4]Token{PRFail, PRWait, PROK, PRNone}

// ReviewDots draws one dot per open review, worst news first, each linked
// to its review when a URL is known.
func ReviewDots(t Theme, s github.ReviewStatus) string {
	if s.Diagnostic != "" {
		return t.Paint(Err, s.Diagnostic)
	}
	if len(s.Reviews) == 0 {
		return ""
	}
	var b strings.Builder
	for i, bucket := range github.Buckets(s.Reviews) {
		if len(bucket) == 0 {
			continue
		}
		var dots strings.Builder
		for _, r := range bucket {
			dots.WriteString(reviewDot(r))
		}
		b.WriteString(t.Paint(bucketTokens[i], dots.String()))
	}
	if s.Unread > 0 {
		b.WriteString(" ")
		b.WriteString(t.Paint(Notif, fmt.Sprintf("💬%d", s.Unread)))
	}
	return b.String()
}

func reviewDot(r github.Review) string {
	if r.URL == "" {
		return ReviewGlyph
	}
	return termenv.Hyperlink(r.URL, ReviewGlyph)
}

// UsageLine passes the usage report through; diagnostics get the error
// style.
func UsageLine(t Theme, r usage.Report) string {
	if r.Failed {
		return t.Paint(Err, r.Text)
	}
	return r.Text
}
