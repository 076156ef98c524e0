package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONToFile(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "log.json")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	logger, err := Setup(Options{Level: "warn", Format: "auto", Output: out})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "fr.po").Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.True(t, strings.HasPrefix(string(data), "{"), "non-terminal output is JSON")
	assert.Contains(t, string(data), `"path":"fr.po"`)
}

func TestSetupConsole(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "log.txt")
	out, err := os.Create(path)
	require.NoError(t, err)
	defer out.Close()

	logger, err := Setup(Options{Format: "console", Output: out})
	require.NoError(t, err)
	logger.Info().Msg("Catalog saved")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Catalog saved")
	assert.False(t, strings.HasPrefix(string(data), "{"))
}

func TestSetupRejectsBadOptions(t *testing.T) {
	_, err := Setup(Options{Level: "loud"})
	assert.Error(t, err)
	_, err = Setup(Options{Format: "xml"})
	assert.Error(t, err)
}
