package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, log.InfoLevel, ParseLevel("chatty"))
}

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Configure(&buf, "info", "json")
	t.Cleanup(func() { Configure(os.Stderr, "info", "text") })

	logger.Debug("hidden")
	log.Info("story generated", "attempt_id", "att_1")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"story generated"`)
	assert.Contains(t, out, `"attempt_id":"att_1"`)
}
