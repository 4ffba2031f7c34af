package gitstate

import (
	"context"

	git "github.com/go-git/go-git/v5"
)

// readWithGoGit is used only when no git binary is installed. It reports
// branch and file flags; ahead/behind would need a merge-base walk and are
// left at zero.
func readWithGoGit(ctx context.Context, dir string) (RepoStatus, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err != nil {
		return RepoStatus{}, err
	}
	var st RepoStatus
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		st.Branch = head.Name().Short()
	}
	if err := ctx.Err(); err != nil {
		return RepoStatus{}, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return RepoStatus{}, err
	}
	status, err := wt.Status()
	if err != nil {
		return RepoStatus{}, err
	}
	for _, fs := range status {
		applyCodes(&st, byte(fs.Staging), byte(fs.Worktree))
	}
	return st, nil
}
