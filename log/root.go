// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var root atomic.Value

func init() {
	root.Store(&logger{slog.New(DiscardHandler())})
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(l)
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(Logger)
}

// New returns a new logger with the given context.
// New is a convenient alias for Root().New
func New(ctx ...interface{}) Logger {
	return Root().With(ctx...)
}

// WithContext returns a logger carrying the given context, resolving the root
// logger lazily so package-level loggers pick up handlers installed later.
func WithContext(ctx ...interface{}) Logger {
	return &lazyLogger{ctx: ctx}
}

type lazyLogger struct {
	ctx []interface{}
}

func (l *lazyLogger) delegate() Logger {
	return Root().With(l.ctx...)
}

func (l *lazyLogger) With(ctx ...interface{}) Logger { return l.delegate().With(ctx...) }
func (l *lazyLogger) New(ctx ...interface{}) Logger  { return l.delegate().New(ctx...) }

func (l *lazyLogger) Log(level slog.Level, msg string, ctx ...interface{}) {
	l.delegate().Log(level, msg, ctx...)
}
func (l *lazyLogger) Trace(msg string, ctx ...interface{}) { l.delegate().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...interface{}) { l.delegate().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...interface{})  { l.delegate().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...interface{})  { l.delegate().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...interface{}) { l.delegate().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...interface{})  { l.delegate().Crit(msg, ctx...) }

func (l *lazyLogger) Write(level slog.Level, msg string, attrs ...any) {
	l.delegate().Write(level, msg, attrs...)
}

func (l *lazyLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.delegate().Enabled(ctx, level)
}

func (l *lazyLogger) Handler() slog.Handler { return l.delegate().Handler() }

// Trace log a message at the trace level with context key/value pairs
func Trace(msg string, ctx ...interface{}) {
	Root().Write(LevelTrace, msg, ctx...)
}

// Debug logs a message at the debug level with context key/value pairs
func Debug(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelDebug, msg, ctx...)
}

// Info logs a message at the info level with context key/value pairs
func Info(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelInfo, msg, ctx...)
}

// Warn logs a message at the warn level with context key/value pairs
func Warn(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelWarn, msg, ctx...)
}

// Error logs a message at the error level with context key/value pairs
func Error(msg string, ctx ...interface{}) {
	Root().Write(slog.LevelError, msg, ctx...)
}

// Crit logs a message at the crit level with context key/value pairs, and exits
func Crit(msg string, ctx ...interface{}) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}
