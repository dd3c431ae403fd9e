// Package obslog is a small leveled wrapper around the standard log
// package: bare log.Printf with short human-readable messages rather
// than a structured logging library, plus DEBUG/INFO/WARN/ERROR level
// prefixes.
package obslog

import (
	"log"
	"os"
)

type Logger struct {
	l *log.Logger
}

func New(prefix string) *Logger {
	return &Logger{l: log.New(os.Stdout, prefix, log.LstdFlags)}
}

func (lg *Logger) Debugf(format string, args ...any) {
	lg.l.Printf("DEBUG "+format, args...)
}

func (lg *Logger) Infof(format string, args ...any) {
	lg.l.Printf("INFO "+format, args...)
}

func (lg *Logger) Warnf(format string, args ...any) {
	lg.l.Printf("WARN "+format, args...)
}

func (lg *Logger) Errorf(format string, args ...any) {
	lg.l.Printf("ERROR "+format, args...)
}
