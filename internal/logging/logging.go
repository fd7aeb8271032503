// Package logging builds the process loggers.
//
// Every component logs through a stdlib log.Logger with a bracketed
// prefix, e.g. "[sync:suppliers] ". When a log file is configured, all
// loggers write to a rotating file via lumberjack as well as stderr.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the shared log sink.
type Options struct {
	// File enables the rotating file sink when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Quiet drops the stderr sink, leaving only the file (if any).
	Quiet bool
}

// Factory hands out prefixed loggers sharing one sink.
type Factory struct {
	sink   io.Writer
	closer io.Closer
}

// NewFactory builds the shared sink from opts. Close releases the file
// sink if one was opened.
func NewFactory(opts Options) *Factory {
	var writers []io.Writer
	var closer io.Closer

	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		writers = append(writers, lj)
		closer = lj
	}

	var sink io.Writer
	switch len(writers) {
	case 0:
		sink = io.Discard
	case 1:
		sink = writers[0]
	default:
		sink = io.MultiWriter(writers...)
	}

	return &Factory{sink: sink, closer: closer}
}

// Logger returns a logger writing to the shared sink with the given
// bracketed prefix.
func (f *Factory) Logger(prefix string) *log.Logger {
	return log.New(f.sink, "["+prefix+"] ", log.LstdFlags)
}

// Close flushes and closes the file sink, if any.
func (f *Factory) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
