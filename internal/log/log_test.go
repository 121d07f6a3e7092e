package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})

	SetLevel(LevelInfo)
	Debug("hidden")
	Info("layout", "events", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=layout events=3")

	buf.Reset()
	SetLevel(LevelError)
	Info("quiet")
	Error("load failed", errors.New("boom"), "source", "team")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "err=boom source=team")

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
