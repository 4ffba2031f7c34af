package main

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbonezy/omcc-statusline/internal/fetch"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantDir string
		wantErr string
	}{
		{name: "ok", raw: `{"workspace":{"current_dir":"/home/me/app"},"model":{"id":"x"}}`, wantDir: "/home/me/app"},
		{name: "empty", raw: "  \n", wantErr: "No JSON input received from stdin"},
		{name: "invalid", raw: `{"workspace":`, wantErr: "Invalid JSON"},
		{name: "missing workspace", raw: `{"model":{}}`, wantErr: "Failed to extract current_dir from JSON"},
		{name: "empty dir", raw: `{"workspace":{"current_dir":""}}`, wantErr: "Failed to extract current_dir from JSON"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir, err := parseInput([]byte(tc.raw))
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.wantDir, dir)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, fetch.ErrMalformedInput))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReadInput(t *testing.T) {
	data, err := readInput(strings.NewReader(`{"a":1}`), time.Second)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestReadInput_Timeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	start := time.Now()
	_, err := readInput(pr, 100*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrMalformedInput)
	assert.Equal(t, "Timed out reading stdin", err.Error())
	assert.Less(t, time.Since(start), time.Second)
}
