package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"propscope/backend-go/internal/config"
)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.Config{LogLevel: "debug", LogFormat: "json"}, &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("tab", "standard").Info("rendered")
	assert.Contains(t, buf.String(), `"tab":"standard"`)
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	log := newLogger(config.Config{LogLevel: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
