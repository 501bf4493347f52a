// Package obslog builds the structured logger shared by the manager, driver
// registry and CLI. It intentionally hands back a *logrus.Logger value
// rather than mutating a package global, so tests can construct an isolated
// logger per case instead of sharing process-wide state.
package obslog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger configured the way cmd/wmbus-analyze wants it:
// full timestamps, text formatting, level from the WMBUS_LOG_LEVEL-style
// caller-supplied string.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(parseLevel(level))
	return l
}

// Discard returns a logger that drops everything, for tests that only care
// about return values and not log output.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Default is the package-wide fallback used by code paths that are not
// handed an explicit logger (e.g. NewManager or wmbuscore.NewEngine given a
// nil logger).
var Default = New("info")

func parseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SetOutput redirects l's output to w.
func SetOutput(l *logrus.Logger, w io.Writer) {
	l.SetOutput(w)
}

func init() {
	Default.SetOutput(os.Stderr)
}
