// Package render turns resolved status data into the two status lines.
// Everything here is pure: the same theme and inputs give the same bytes.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"
)

// Token names a semantic color slot. Render code only paints through tokens.
type Token string

const (
	DirParent    Token = "dir_parent"
	DirName      Token = "dir_name"
	BranchSign   Token = "branch_sign"
	BranchName   Token = "branch_name"
	GitDirty     Token = "git_dirty"
	GitStaged    Token = "git_staged"
	GitUntracked Token = "git_untracked"
	GitAhead     Token = "git_ahead"
	GitBehind    Token = "git_behind"
	CIOK         Token = "ci_ok"
	CIFail       Token = "ci_fail"
	CIWait       Token = "ci_wait"
	PROK         Token = "pr_ok"
	PRFail       Token = "pr_fail"
	PRWait       Token = "pr_wait"
	PRNone       Token = "pr_none"
	Notif        Token = "notif"
	Sep          Token = "sep"
	Err          Token = "err"
)

// Tokens lists every token in display order.
var Tokens = []Token{
	DirParent, DirName, BranchSign, BranchName,
	GitDirty, GitStaged, GitUntracked, GitAhead, GitBehind,
	CIOK, CIFail, CIWait,
	PROK, PRFail, PRWait, PRNone,
	Notif, Sep, Err,
}

// attrSeqs maps attribute names to SGR parameters. "none" is accepted and
// emits nothing.
var attrSeqs = map[string]string{
	"none":      "",
	"dim":       termenv.FaintSeq,
	"bold":      termenv.BoldSeq,
	"italic":    termenv.ItalicSeq,
	"underline": termenv.UnderlineSeq,
	"ul_double": "21",
	"ul_curly":  "4:3",
	"ul_dotted": "4:4",
	"ul_dashed": "4:5",
	"blink":     termenv.BlinkSeq,
	"strike":    termenv.CrossOutSeq,
	"overline":  termenv.OverlineSeq,
	"reverse":   termenv.ReverseSeq,
}

var reset = termenv.CSI + termenv.ResetSeq + "m"

// Style is one theme entry: optional 256-color foreground and background
// plus SGR attributes.
type Style struct {
	FG    *int     `json:"fg,omitempty" yaml:"fg,omitempty"`
	BG    *int     `json:"bg,omitempty" yaml:"bg,omitempty"`
	Attrs []string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

func fg(n int, attrs ...string) Style {
	return Style{FG: &n, Attrs: attrs}
}

// Sequence renders attributes first, then foreground, then background.
// Unknown attribute names are skipped.
func (s Style) Sequence() string {
	var b strings.Builder
	for _, a := range s.Attrs {
		if seq := attrSeqs[a]; seq != "" {
			b.WriteString(termenv.CSI + seq + "m")
		}
	}
	if s.FG != nil {
		b.WriteString(termenv.CSI + termenv.ANSI256Color(*s.FG).Sequence(false) + "m")
	}
	if s.BG != nil {
		b.WriteString(termenv.CSI + termenv.ANSI256Color(*s.BG).Sequence(true) + "m")
	}
	return b.String()
}

func (s Style) valid() error {
	for _, c := range []*int{s.FG, s.BG} {
		if c != nil && (*c < 0 || *c > 255) {
			return fmt.Errorf("color %d out of range 0-255", *c)
		}
	}
	return nil
}

// Theme is an immutable token to style mapping.
type Theme struct {
	styles map[Token]Style
}

func DefaultTheme() Theme {
	return Theme{styles: map[Token]Style{
		DirParent:    fg(239),
		DirName:      fg(238),
		BranchSign:   fg(238),
		BranchName:   fg(238),
		GitDirty:     fg(3, "dim"),
		GitStaged:    fg(2, "dim"),
		GitUntracked: fg(235),
		GitAhead:     fg(6),
		GitBehind:    fg(5),
		CIOK:         fg(2),
		CIFail:       fg(1),
		CIWait:       fg(4),
		PROK:         fg(2),
		PRFail:       fg(1),
		PRWait:       fg(4),
		PRNone:       fg(8),
		Notif:        fg(6),
		Sep:          fg(8),
		Err:          fg(1),
	}}
}

// With returns a copy of t with tok replaced.
func (t Theme) With(tok Token, s Style) Theme {
	styles := make(map[Token]Style, len(t.styles))
	for k, v := range t.styles {
		styles[k] = v
	}
	styles[tok] = s
	return Theme{styles: styles}
}

func (t Theme) Style(tok Token) Style {
	if t.styles == nil {
		return DefaultTheme().styles[tok]
	}
	return t.styles[tok]
}

// Paint wraps text in the token's sequence and a reset.
func (t Theme) Paint(tok Token, text string) string {
	return t.Style(tok).Sequence() + text + reset
}

// LoadTheme reads token overrides from a JSON or YAML file. A missing file
// yields the defaults. Unknown tokens are ignored; a listed token replaces
// the default entry as a whole. On a parse error the defaults are returned
// along with the error.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	if strings.TrimSpace(path) == "" {
		return theme, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return theme, nil
		}
		return theme, err
	}

	overrides, err := decodeOverrides(path, data)
	if err != nil {
		return DefaultTheme(), fmt.Errorf("parse theme %s: %w", path, err)
	}
	for tok, style := range overrides {
		if err := style.valid(); err != nil {
			return DefaultTheme(), fmt.Errorf("theme token %s: %w", tok, err)
		}
		theme.styles[tok] = style
	}
	return theme, nil
}

// decodeOverrides decodes only the entries naming a known token, so other
// top-level keys such as "$schema" may hold any value.
func decodeOverrides(path string, data []byte) (map[Token]Style, error) {
	known := make(map[Token]bool, len(Tokens))
	for _, tok := range Tokens {
		known[tok] = true
	}
	out := map[Token]Style{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var raw map[string]yaml.Node
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		for key, node := range raw {
			if !known[Token(key)] {
				continue
			}
			var style Style
			if err := node.Decode(&style); err != nil {
				return nil, fmt.Errorf("token %s: %w", key, err)
			}
			out[Token(key)] = style
		}
	default:
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		for key, msg := range raw {
			if !known[Token(key)] {
				continue
			}
			var style Style
			if err := json.Unmarshal(msg, &style); err != nil {
				return nil, fmt.Errorf("token %s: %w", key, err)
			}
			out[Token(key)] = style
		}
	}
	return out, nil
}

// Describe summarizes a style for previews, e.g. "dim fg:3".
func (s Style) Describe() string {
	var parts []string
	for _, a := range s.Attrs {
		if a != "none" {
			parts = append(parts, a)
		}
	}
	if s.FG != nil {
		parts = append(parts, "fg:"+strconv.Itoa(*s.FG))
	}
	if s.BG != nil {
		parts = append(parts, "bg:"+strconv.Itoa(*s.BG))
	}
	if len(parts) == 0 {
		return "plain"
	}
	return strings.Join(parts, " ")
}
