package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrbonezy/omcc-statusline/internal/github"
	"github.com/mrbonezy/omcc-statusline/internal/render"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	nameColumn   = lipgloss.NewStyle().Width(16)
	sampleColumn = lipgloss.NewStyle().Width(16)
)

var tokenSamples = map[render.Token]string{
	render.DirParent:    "parent/",
	render.DirName:      "project/",
	render.BranchSign:   render.BranchGlyph,
	render.BranchName:   "main",
	render.GitDirty:     "*",
	render.GitStaged:    "+",
	render.GitUntracked: "?",
	render.GitAhead:     "↑",
	render.GitBehind:    "↓",
	render.CIOK:         "CI",
	render.CIFail:       "CI",
	render.CIWait:       "CI",
	render.PROK:         render.ReviewGlyph,
	render.PRFail:       render.ReviewGlyph,
	render.PRWait:       render.ReviewGlyph,
	render.PRNone:       render.ReviewGlyph,
	render.Notif:        "💬3",
	render.Sep:          "|",
	render.Err:          "gh auth login",
}

func newThemeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "theme",
		Short: "Preview every theme token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp()
			defer a.Close()
			return writeThemePreview(cmd.OutOrStdout(), a.cfg.ThemeFile, a.theme)
		},
	}
}

func writeThemePreview(w io.Writer, path string, t render.Theme) error {
	source := path
	if _, err := os.Stat(path); err != nil {
		source = path + " (not found, using defaults)"
	}
	rows := []string{
		headingStyle.Render("Theme") + " " + mutedStyle.Render(source),
		"",
	}
	for _, tok := range render.Tokens {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			nameColumn.Render(string(tok)),
			sampleColumn.Render(t.Paint(tok, tokenSamples[tok])),
			mutedStyle.Render(t.Style(tok).Describe()),
		))
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, rows...))
	return err
}

func newCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show cache documents and their freshness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp()
			defer a.Close()
			return writeCacheStatus(cmd.OutOrStdout(), a, time.Now())
		},
	}
}

type cacheRow struct {
	key string
	ttl time.Duration
}

func cacheRows(a *app) []cacheRow {
	rows := []cacheRow{
		{key: github.ReviewCacheKey, ttl: a.cfg.TTL.Reviews.Duration},
		{key: github.AvailabilityKey, ttl: a.cfg.TTL.Availability.Duration},
		{key: refreshLockKey},
	}
	matches, _ := filepath.Glob(a.store.Path("ci/*.json"))
	sort.Strings(matches)
	for _, m := range matches {
		rows = append(rows, cacheRow{key: "ci/" + filepath.Base(m), ttl: a.cfg.TTL.CI.Duration})
	}
	return rows
}

func writeCacheStatus(w io.Writer, a *app, now time.Time) error {
	lines := []string{headingStyle.Render("Cache") + " " + mutedStyle.Render(a.store.Root()), ""}
	keyWidth := 0
	rows := cacheRows(a)
	for _, r := range rows {
		keyWidth = max(keyWidth, len(r.key))
	}
	keyColumn := lipgloss.NewStyle().Width(keyWidth + 2)
	for _, r := range rows {
		info, err := os.Stat(a.store.Path(r.key))
		if err != nil {
			lines = append(lines, keyColumn.Render(r.key)+mutedStyle.Render("missing"))
			continue
		}
		state := ""
		if r.ttl > 0 {
			if now.Sub(info.ModTime()) < r.ttl {
				state = "fresh"
			} else {
				state = "stale"
			}
			state = fmt.Sprintf(" %s (ttl %s)", state, r.ttl)
		}
		detail := ""
		if r.key == github.AvailabilityKey {
			if text, ok := a.store.ReadText(r.key).Value(); ok {
				detail = " " + strings.TrimSpace(text)
			}
		}
		lines = append(lines, keyColumn.Render(r.key)+humanize.RelTime(info.ModTime(), now, "ago", "from now")+state+detail)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
