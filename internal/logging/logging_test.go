package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Setup(Config{}) })

	For("compile").WithField("event", "compile_done").Debug("done")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "compile", line["component"])
	assert.Equal(t, "compile_done", line["event"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: "chatty", Output: &buf})
	t.Cleanup(func() { Setup(Config{}) })

	assert.Equal(t, log.InfoLevel, log.GetLevel())
	For("x").Debug("hidden")
	assert.Empty(t, buf.String())
}
