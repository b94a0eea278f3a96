package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	config "github.com/mwantia/gocard/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Warn, Parse(" WARNING "))
	assert.Equal(t, Error, Parse("error"))
	assert.Equal(t, Info, Parse("bogus"))
}

func TestFileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocard.log")
	svc := NewLoggerService("gocard", config.LogServerConfig{
		Level:      "info",
		File:       path,
		JSON:       true,
		NoTerminal: true,
		Rotation:   config.LogServerRotationConfig{MaxSize: 1},
	})
	t.Cleanup(func() { _ = svc.(*LoggerServiceImpl).Cleanup() })

	svc.Debug("hidden %d", 1)
	svc.Named("cache").Info("cached %s", "h1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "gocard/cache", entry.Service)
	assert.Equal(t, "cached h1", entry.Message)
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Error("dropped %s", "silently")
	l.Named("x").Warn("also dropped")
}
