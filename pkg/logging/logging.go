// Package logging sets up logrus for the CLI. Info lines go to stdout and
// warnings and errors to stderr, colored by level. Debug lines are only
// emitted when debug output is requested.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ConsoleHook routes log entries to the terminal.
type ConsoleHook struct {
	Stdout io.Writer
	Stderr io.Writer
	Debug  bool
}

// Levels defines on which log levels this hook would trigger.
func (hook *ConsoleHook) Levels() []logrus.Level {
	levels := []logrus.Level{
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
		logrus.FatalLevel,
	}
	if hook.Debug {
		levels = append(levels, logrus.DebugLevel)
	}
	return levels
}

// Fire executes the hook for the given entry.
func (hook *ConsoleHook) Fire(entry *logrus.Entry) error {
	output := hook.Stdout
	if entry.Level != logrus.InfoLevel && entry.Level != logrus.DebugLevel {
		output = hook.Stderr
	}
	var writer *color.Color
	switch entry.Level {
	case logrus.WarnLevel:
		writer = color.New(color.FgYellow)
	case logrus.ErrorLevel, logrus.FatalLevel:
		writer = color.New(color.FgRed)
	case logrus.DebugLevel:
		writer = color.New(color.FgHiBlack)
	default:
		writer = color.New(color.FgWhite)
	}
	_, err := writer.Fprint(output, format(entry))
	return err
}

func format(entry *logrus.Entry) string {
	var b strings.Builder
	b.WriteString(entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteString("\n")
	return b.String()
}

// Setup configures the standard logrus logger for console use.
func Setup(debug bool) {
	logrus.SetLevel(logrus.InfoLevel)
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetOutput(io.Discard)
	logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	logrus.AddHook(&ConsoleHook{Stdout: os.Stdout, Stderr: os.Stderr, Debug: debug})
}
