package gitstate

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitconfig "github.com/go-git/go-git/v5/config"
)

var (
	ErrNotInRepository = errors.New("not in a git repository")
	ErrNoRemote        = errors.New("remote not configured")
)

// RepoRoot walks up from dir to the first directory containing .git.
func RepoRoot(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", ErrNotInRepository
	}
	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", ErrNotInRepository
		}
		current = parent
	}
}

// CommonDir resolves the directory holding the shared config for the
// repository at repoRoot. Linked worktrees have a .git file pointing into
// <common>/worktrees/<name>.
func CommonDir(repoRoot string) (string, error) {
	dotGit := filepath.Join(repoRoot, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotInRepository
		}
		return "", err
	}
	if info.IsDir() {
		return dotGit, nil
	}
	return parseGitdirPointer(dotGit, repoRoot)
}

func parseGitdirPointer(dotGitFile string, repoRoot string) (string, error) {
	data, err := os.ReadFile(dotGitFile)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	const prefix = "gitdir:"
	if !strings.HasPrefix(strings.ToLower(line), prefix) {
		return "", fmt.Errorf("invalid .git file format in %s", repoRoot)
	}
	target := strings.TrimSpace(line[len(prefix):])
	if target == "" {
		return "", fmt.Errorf("empty gitdir in %s", repoRoot)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoRoot, target)
	}
	target = filepath.Clean(target)
	sep := string(filepath.Separator) + "worktrees" + string(filepath.Separator)
	if before, _, ok := strings.Cut(target, sep); ok && strings.TrimSpace(before) != "" {
		return filepath.Clean(before), nil
	}
	return target, nil
}

// RemoteURL reads the first URL of the named remote straight from the
// repository config file, without spawning git.
func RemoteURL(dir string, remote string) (string, error) {
	root, err := RepoRoot(dir)
	if err != nil {
		return "", err
	}
	common, err := CommonDir(root)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(common, "config"))
	if err != nil {
		return "", err
	}
	cfg, err := gitconfig.ReadConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse git config: %w", err)
	}
	rc, ok := cfg.Remotes[remote]
	if !ok || len(rc.URLs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoRemote, remote)
	}
	return strings.TrimSpace(rc.URLs[0]), nil
}
