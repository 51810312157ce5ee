package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		" WARN ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
		"disabled": zerolog.Disabled,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestNewJSONCarriesStaticFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "info", Format: "json", Writer: &buf, StaticFields: map[string]string{"run_id": "abc"}})

	l.Debug().Msg("hidden")
	l.Info().Str("target", "7878").Msg("polling")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "polling", entry["message"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "7878", entry["target"])
}

func TestNewConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Format: "console", Writer: &buf})
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.False(t, strings.HasPrefix(buf.String(), "{"))
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	root.Store(nil)
	assert.NotPanics(t, func() { Get().Info().Msg("dropped") })
}

func TestNamedAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Writer: &buf})
	t.Cleanup(func() { root.Store(nil) })

	Named("scheduler").Info().Msg("started")
	assert.Contains(t, buf.String(), `"component":"scheduler"`)

	buf.Reset()
	Named("").Info().Msg("plain")
	assert.NotContains(t, buf.String(), "component")
}
