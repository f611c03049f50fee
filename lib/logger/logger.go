// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger provides leveled logging that can be carried through a
// context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	goLog "log"
	"os"

	"github.com/clrtrace/clrtrace/lib/color"
)

type globalLoggerKeyType struct{}

// WithLogger returns the context with its logger set as the provided Logger.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, globalLoggerKeyType{}, logger)
}

// LoggerFromContext returns the context logger if configured, otherwise nil.
func LoggerFromContext(ctx context.Context) *Logger {
	if v, ok := ctx.Value(globalLoggerKeyType{}).(*Logger); ok && v != nil {
		return v
	}
	return nil
}

// Logger writes leveled log lines, colorizing the level prefix when the
// supplied color.Color is enabled.
type Logger struct {
	LoggerLevel   LogLevel
	goLogger      *goLog.Logger
	goErrorLogger *goLog.Logger
	color         color.Color
	prefix        interface{}
}

// LogLevel controls the amount of detail emitted by a Logger.
type LogLevel int

const (
	NoLogLevel LogLevel = iota
	FatalLevel
	ErrorLevel
	WarningLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

var levelNames = map[LogLevel]string{
	NoLogLevel:   "no",
	FatalLevel:   "fatal",
	ErrorLevel:   "error",
	WarningLevel: "warning",
	InfoLevel:    "info",
	DebugLevel:   "debug",
	TraceLevel:   "trace",
}

// String returns the name of the LogLevel, or an empty string for levels with
// no name.
func (l *LogLevel) String() string {
	return levelNames[*l]
}

// Set sets the LogLevel from its string name. It implements flag.Value.
func (l *LogLevel) Set(s string) error {
	for level, name := range levelNames {
		if name == s {
			*l = level
			return nil
		}
	}
	return fmt.Errorf("%s is not a valid level", s)
}

// Mirrored from the standard log package so callers don't need a second
// import to set flags.
const (
	Ldate = 1 << iota
	Ltime
	Lmicroseconds
	Llongfile
	Lshortfile
	LUTC
	Lmsgprefix
	LstdFlags = Ldate | Lmicroseconds
)

// startDepth is the call depth at which the exported logging functions enter
// the logger.
const startDepth = 2

// NewLogger creates a new logger instance. loggerLevel sets the level below
// which log calls are dropped. outWriter and errWriter receive non-error and
// error output respectively, defaulting to os.Stdout and os.Stderr when nil.
// prefix appears directly before every log line; formatting it must be
// thread-safe.
func NewLogger(loggerLevel LogLevel, color color.Color, outWriter, errWriter io.Writer, prefix interface{}) *Logger {
	if outWriter == nil {
		outWriter = os.Stdout
	}
	if errWriter == nil {
		errWriter = os.Stderr
	}
	return &Logger{
		LoggerLevel:   loggerLevel,
		goLogger:      goLog.New(outWriter, "", LstdFlags),
		goErrorLogger: goLog.New(errWriter, "", LstdFlags),
		color:         color,
		prefix:        prefix,
	}
}

// SetFlags sets the output flags, in standard log package format, on both
// underlying loggers.
func (l *Logger) SetFlags(flags int) {
	l.goLogger.SetFlags(flags)
	l.goErrorLogger.SetFlags(flags)
}

func (l *Logger) levelPrefix(level LogLevel) string {
	switch level {
	case FatalLevel:
		return l.color.Red("FATAL: ")
	case ErrorLevel:
		return l.color.Red("ERROR: ")
	case WarningLevel:
		return l.color.Yellow("WARN: ")
	case InfoLevel:
		return ""
	case DebugLevel:
		return l.color.Cyan("DEBUG: ")
	case TraceLevel:
		return l.color.Blue("TRACE: ")
	}
	panic(fmt.Sprintf("undefined log level: %v", level))
}

func (l *Logger) logf(callDepth int, level LogLevel, format string, a ...interface{}) {
	prefix := l.levelPrefix(level)
	if l.LoggerLevel < level {
		return
	}
	out := l.goLogger
	if level <= ErrorLevel {
		out = l.goErrorLogger
	}
	out.Output(callDepth+1, fmt.Sprintf("%s%s%s", l.prefix, prefix, fmt.Sprintf(format, a...)))
	if level == FatalLevel {
		os.Exit(1)
	}
}

// Logf logs the message at the given level.
func (l *Logger) Logf(level LogLevel, format string, a ...interface{}) {
	l.logf(startDepth, level, format, a...)
}

// Infof logs the message if the logger is at least InfoLevel.
func (l *Logger) Infof(format string, a ...interface{}) {
	l.logf(startDepth, InfoLevel, format, a...)
}

// Debugf logs the message if the logger is at least DebugLevel.
func (l *Logger) Debugf(format string, a ...interface{}) {
	l.logf(startDepth, DebugLevel, format, a...)
}

// Tracef logs the message if the logger is at least TraceLevel.
func (l *Logger) Tracef(format string, a ...interface{}) {
	l.logf(startDepth, TraceLevel, format, a...)
}

// Warningf logs the message if the logger is at least WarningLevel.
func (l *Logger) Warningf(format string, a ...interface{}) {
	l.logf(startDepth, WarningLevel, format, a...)
}

// Errorf logs the message if the logger is at least ErrorLevel.
func (l *Logger) Errorf(format string, a ...interface{}) {
	l.logf(startDepth, ErrorLevel, format, a...)
}

// Fatalf logs the message if the logger is at least FatalLevel, then exits
// with a non-zero status.
func (l *Logger) Fatalf(format string, a ...interface{}) {
	l.logf(startDepth, FatalLevel, format, a...)
}

func logf(callDepth int, ctx context.Context, level LogLevel, format string, a ...interface{}) {
	if l := LoggerFromContext(ctx); l != nil {
		l.logf(callDepth+1, level, format, a...)
		return
	}
	goLog.Output(callDepth+1, fmt.Sprintf(format, a...))
	if level == FatalLevel {
		os.Exit(1)
	}
}

// Logf logs the message at the given level using the context logger, falling
// back to the standard logger when the context carries none.
func Logf(ctx context.Context, level LogLevel, format string, a ...interface{}) {
	logf(startDepth, ctx, level, format, a...)
}

// Infof logs the message at InfoLevel using the context logger.
func Infof(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, InfoLevel, format, a...)
}

// Debugf logs the message at DebugLevel using the context logger.
func Debugf(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, DebugLevel, format, a...)
}

// Tracef logs the message at TraceLevel using the context logger.
func Tracef(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, TraceLevel, format, a...)
}

// Warningf logs the message at WarningLevel using the context logger.
func Warningf(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, WarningLevel, format, a...)
}

// Errorf logs the message at ErrorLevel using the context logger.
func Errorf(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, ErrorLevel, format, a...)
}

// Fatalf logs the message at FatalLevel using the context logger, then exits
// with a non-zero status.
func Fatalf(ctx context.Context, format string, a ...interface{}) {
	logf(startDepth, ctx, FatalLevel, format, a...)
}
