package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "debug")
	l.Debug("hello", "venue_id", "v1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v1", line["venue_id"])
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "warn")
	l.Info("dropped")
	assert.Zero(t, buf.Len())
}
