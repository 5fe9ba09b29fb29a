// Package log bridges third-party logger interfaces onto the application's
// logrus stream.
package log

import "github.com/sirupsen/logrus"

// BadgerLogger satisfies badger.Logger so KV-store internals show up in the
// same contextual log stream as everything else instead of on stderr.
type BadgerLogger struct {
	entry *logrus.Entry
}

// NewBadgerLogger wraps a contextual entry (typically carrying a component
// field) for handing to badger.Options.WithLogger.
func NewBadgerLogger(entry *logrus.Entry) *BadgerLogger {
	return &BadgerLogger{entry: entry}
}

func (l *BadgerLogger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *BadgerLogger) Warningf(format string, args ...any) { l.entry.Warningf(format, args...) }

func (l *BadgerLogger) Infof(format string, args ...any) { l.entry.Infof(format, args...) }

func (l *BadgerLogger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
