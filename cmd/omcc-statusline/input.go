package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

// inputError is a fatal problem with the stdin document. Its message is
// printed verbatim after "FATAL:".
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == fetch.ErrMalformedInput }

func inputErrorf(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

type statusInput struct {
	Workspace struct {
		CurrentDir string `json:"current_dir"`
	} `json:"workspace"`
}

// readInput reads all of r, giving up after timeout. The reader goroutine
// is abandoned on timeout; the process exits right after.
func readInput(r io.Reader, timeout time.Duration) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- result{data: data, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, inputErrorf("Failed to read stdin: %v", res.err)
		}
		return res.data, nil
	case <-timer.C:
		return nil, inputErrorf("Timed out reading stdin")
	}
}

// parseInput validates the document and extracts the working directory.
func parseInput(raw []byte) (string, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return "", inputErrorf("No JSON input received from stdin")
	}
	var in statusInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", inputErrorf("Invalid JSON: %v", err)
	}
	dir := strings.TrimSpace(in.Workspace.CurrentDir)
	if dir == "" {
		return "", inputErrorf("Failed to extract current_dir from JSON")
	}
	return dir, nil
}
