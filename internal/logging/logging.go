// Package logging builds the diagnostic logger that writes to the append-only log file.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level returns the logger level for the --log toggle: everything when
// verbose, warnings and errors otherwise.
func Level(verbose bool) logrus.Level {
	if verbose {
		return logrus.DebugLevel
	}
	return logrus.WarnLevel
}

// New returns a logger appending to path. The returned closer releases the
// file. When the file cannot be opened the logger writes to stderr instead
// and records why, so a read-only working directory never stops a reading.
func New(path string, verbose bool) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: true,
	})
	logger.SetLevel(Level(verbose))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.WithError(err).WithField("path", path).Warn("cannot open log file, logging to stderr")
		return logger, nopCloser{}
	}

	logger.SetOutput(f)
	return logger, f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// StackField renders err with its recorded stack, for errors built with
// github.com/pkg/errors.
func StackField(err error) string {
	return fmt.Sprintf("%+v", err)
}
