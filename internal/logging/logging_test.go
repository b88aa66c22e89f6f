package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	w, err := FileWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, filepath.Join(dir, FileName), w.Filename)
	_, err = os.Stat(filepath.Join(dir, ".write-test"))
	assert.True(t, os.IsNotExist(err))

	logger := New(w)
	logger.Info().Str("category", "email").Msg("Loaded")
	data, err := os.ReadFile(w.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"email"`)
}

func TestFileWriterNotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err := FileWriter(path)
	assert.Error(t, err)
}

func TestNewFansOut(t *testing.T) {
	var a, b bytes.Buffer
	logger := New(&a, &b)
	logger.Warn().Int("status", 503).Msg("Fetch failed")

	for _, buf := range []*bytes.Buffer{&a, &b} {
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "warn", line["level"])
		assert.Equal(t, "Fetch failed", line["message"])
		assert.Contains(t, line, "time")
	}
}
