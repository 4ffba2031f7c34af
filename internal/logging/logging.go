// Package logging builds the debug logger. stdout belongs to the status line
// and stderr to fatal input errors, so diagnostics only ever go to a file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const FileName = "debug.log"

// New returns a discarding logger unless debug is set, in which case records
// are appended to <cacheDir>/debug.log. The returned closer is never nil.
func New(debug bool, cacheDir string) (*slog.Logger, io.Closer, error) {
	if !debug {
		return Discard(), nopCloser{}, nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return Discard(), nopCloser{}, err
	}
	f, err := os.OpenFile(filepath.Join(cacheDir, FileName), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return Discard(), nopCloser{}, err
	}
	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(handler).With("pid", os.Getpid()), f, nil
}

func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
