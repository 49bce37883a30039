// Package qlog is the probe's structured logger. It generalizes the
// teacher's ad hoc stderr writes (fmt.Fprintf(os.Stderr, "[gasoline] ...")
// in internal/mcp/response.go) into a logrus logger shared by every
// package in this module, writing to stderr and tagging every entry with
// source=probe. Host-origin captured log lines (spec §3
// Captured-Log-Entry) are kept separately in Ring (capture.go); this
// logger does not write into it.
package qlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Source distinguishes where a log line originated.
type Source string

const (
	SourceProbe Source = "probe"
	SourceHost  Source = "host"
)

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("PROBE_DEBUG") == "1" {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// For returns a logger scoped to a component name, always tagged with
// source=probe (internal diagnostics, as opposed to captured host log
// lines, which are stored through Ring.Add in capture.go).
func For(component string) *logrus.Entry {
	return base.WithFields(logrus.Fields{"component": component, "source": SourceProbe})
}

// SetOutput redirects the base logger, for tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}
