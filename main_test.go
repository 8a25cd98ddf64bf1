package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.alexhamlin.co/coalesce/internal/pixel"
)

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig([]string{"--windows=3", "--pixel-type=RGB32", "--deferred", "-v"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Windows)
	assert.Equal(t, pixel.RGB32, cfg.PixelType)
	assert.True(t, cfg.Deferred)
	assert.True(t, cfg.Verbose)
}

func TestParseConfigInvalid(t *testing.T) {
	testCases := [][]string{
		{"--windows=0"},
		{"--frames=-1"},
		{"--pixel-type=GRAY32"},
		{"--consumer-delay=-1s"},
		{"--bogus"},
		{"extra"},
	}
	for _, args := range testCases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := parseConfig(args)
			assert.Error(t, err)
		})
	}
}

func TestRunJSON(t *testing.T) {
	for _, mode := range []string{"--deferred=false", "--deferred=true"} {
		t.Run(mode, func(t *testing.T) {
			var out bytes.Buffer
			err := run([]string{
				mode, "--json",
				"--windows=2", "--producers=3", "--frames=20",
				"--width=4", "--height=4", "--consumer-delay=0",
			}, &out)
			require.NoError(t, err)

			var rep report
			require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
			assert.Equal(t, 60, rep.Requested)
			assert.Len(t, rep.Renders, 2)
			for window, n := range rep.Renders {
				assert.Positive(t, n, window)
				assert.LessOrEqual(t, n, 30, window)
				assert.Equal(t, pixel.Gray16, rep.LastFrames[window].Type)
			}
			assert.Equal(t, rep.Stats.Posted, rep.Stats.Scheduled)
			assert.Equal(t, rep.Stats.Posted, rep.Stats.Ran+rep.Stats.Skipped+rep.Stats.Idle)
			assert.Contains(t, rep.Properties, "Camera")
		})
	}
}

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"--windows=1", "--producers=1", "--frames=5", "--width=2", "--height=2", "--consumer-delay=0"}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "requested 5 display refreshes")
	assert.Contains(t, out.String(), "window-0:")
}

func TestRunHelp(t *testing.T) {
	assert.NoError(t, run([]string{"--help"}, &bytes.Buffer{}))
}
