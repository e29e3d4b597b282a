package logging

import (
	"bytes"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newLogger(debug bool) (*logrus.Logger, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.DebugLevel)
	l.AddHook(&ConsoleHook{Stdout: stdout, Stderr: stderr, Debug: debug})
	return l, stdout, stderr
}

func TestConsoleHookRouting(t *testing.T) {
	l, stdout, stderr := newLogger(false)
	l.Info("config written")
	l.WithField("path", "/opt/nebula/node.yml").Warn("finalize failed")
	l.Debug("hidden")

	assert.Equal(t, "config written\n", stdout.String())
	assert.Equal(t, "finalize failed path=/opt/nebula/node.yml\n", stderr.String())
}

func TestConsoleHookDebug(t *testing.T) {
	l, stdout, _ := newLogger(true)
	l.WithFields(logrus.Fields{"b": 2, "a": 1}).Debug("resolved paths")
	assert.Equal(t, "resolved paths a=1 b=2\n", stdout.String())
}
