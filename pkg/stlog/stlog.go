// Package stlog provides the leveled logging used throughout stacko,
// backed by github.com/apex/log.
package stlog

import (
	"os"

	"github.com/apex/log"
	alog "github.com/apex/log/handlers/cli"
)

func init() {
	log.SetHandler(alog.Default)
	log.SetLevel(log.InfoLevel)
}

// SetVerbosity maps the CLI's -d/--debug, -v/--verbose and -q/--quiet
// flags onto apex/log's level, mirroring the teacher's
// setSylogMessageLevel.
func SetVerbosity(debug, verbose, quiet bool) {
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
	case verbose:
		log.SetLevel(log.InfoLevel)
	case quiet:
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// WithField returns a logging context carrying one structured field,
// used by stacksession to attach a per-session correlation id.
func WithField(key string, value any) *log.Entry {
	return log.WithField(key, value)
}

func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

func Fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	os.Exit(1)
}
