package util

import (
	"context"
	"io"
	"regexp"
	"sync/atomic"

	"github.com/0xERR0R/rpzindex/log"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals
var (
	// LogPrivacy is kept as a global here so this package doesn't need
	// to depend on config. Config loading does not set it; it stays
	// false unless a caller stores true.
	LogPrivacy atomic.Bool

	alphanumeric = regexp.MustCompile("[a-zA-Z0-9]")
)

// Obfuscate replaces all alphanumeric characters with * to hide
// sensitive data (owner names, addresses) from logs when LogPrivacy is
// enabled.
func Obfuscate(in string) string {
	if LogPrivacy.Load() {
		return alphanumeric.ReplaceAllString(in, "*")
	}

	return in
}

// LogOnError logs the message only if error is not nil.
func LogOnError(ctx context.Context, message string, err error) {
	if err != nil {
		log.FromCtx(ctx).Error(message, err)
	}
}

// LogOnErrorWithEntry logs the message only if error is not nil.
func LogOnErrorWithEntry(logEntry *logrus.Entry, message string, err error) {
	if err != nil {
		logEntry.Error(message, err)
	}
}

// FatalOnError logs the message only if error is not nil and exits the
// program.
func FatalOnError(message string, err error) {
	if err == nil {
		return
	}

	logger := log.Log()

	if logger.Out == io.Discard {
		log.ConfigureLogger(log.Config{
			Level:     log.LevelInfo,
			Format:    log.FormatTypeText,
			Timestamp: true,
		})
	}

	logger.Fatal(message, err)
}
