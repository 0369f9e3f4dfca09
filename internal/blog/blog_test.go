package blog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	l.Info("started", map[string]interface{}{"port": 8080})

	var record map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "started", record["message"])
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, float64(8080), record["port"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)
	l.SetLevel(LevelWarn)

	l.Debug("skip me", nil)
	l.Info("skip me too", nil)
	assert.Empty(t, buf.String())

	l.Warn("noted", nil)
	assert.Contains(t, buf.String(), "noted")
}

func TestLoggerWithMergesFields(t *testing.T) {
	var buf bytes.Buffer
	l := New()
	l.SetOutput(&buf)

	child := l.With(map[string]interface{}{"component": "watch"})
	child.Error("broke", map[string]interface{}{"path": "/a"})

	var record map[string]interface{}
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "watch", record["component"])
	assert.Equal(t, "/a", record["path"])
	assert.Equal(t, "error", record["level"])
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "unknown", Level(99).String())
}
