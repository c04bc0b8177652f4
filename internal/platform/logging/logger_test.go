package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "debug", "json")

	logger.WithField("user", "alice").Info("signed up")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "signed up", entry["msg"])
	assert.Equal(t, "alice", entry["user"])
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewWithOutput_TextAndBadLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(&buf, "loud", "TEXT")

	logger.Debug("hidden")
	logger.Warn("visible")

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=warning")
}
