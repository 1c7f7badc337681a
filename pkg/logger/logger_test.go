package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossposter/pkg/config"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("fetching page")
	log.Warn("page budget reached")

	out := buf.String()
	assert.NotContains(t, out, "fetching page")
	assert.Contains(t, out, "page budget reached")
}

func TestFieldsAreRendered(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "debug"}, &buf)
	require.NoError(t, err)

	log.WithField("account", "someone").
		WithError(errors.New("boom")).
		InfoWithFields("page fetched", map[string]interface{}{"page": 3})

	out := buf.String()
	assert.Contains(t, out, "page fetched")
	assert.Contains(t, out, "someone")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "3")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent, err := NewWithWriter(&config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)

	_ = parent.WithField("run_id", "abc")
	parent.Info("plain")

	assert.NotContains(t, buf.String(), "abc")
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crossposter.log")
	var buf bytes.Buffer
	log, err := NewWithWriter(&config.LoggingConfig{Level: "info", File: path}, &buf)
	require.NoError(t, err)

	log.Info("written to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written to file"`)
	assert.Contains(t, string(data), `"app":"crossposter"`)
}

func TestTestLoggerCapturesFieldsAndErrors(t *testing.T) {
	log := NewTestLogger()

	log.WithField("page", 1).Info("fetching")
	log.WithError(errors.New("timeout")).Error("failed")

	msgs := log.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].Fields["page"])
	assert.Equal(t, "timeout", msgs[1].Error)
	assert.True(t, log.HasMessage("fetching"))
	assert.True(t, log.HasError())
	assert.Len(t, log.GetMessagesByLevel("INFO"), 1)
}
