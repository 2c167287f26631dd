// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides contextual loggers resolved lazily against the go-ethereum root logger,
// so package level loggers pick up the handler installed at startup.
package log

import (
	"context"
	"io"
	"log/slog"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes leveled, structured log records.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

type lazyLogger struct {
	ctx []any
}

// WithContext returns a logger that prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx: ctx}
}

func (l *lazyLogger) with(ctx []any) []any {
	return append(append(make([]any, 0, len(l.ctx)+len(ctx)), l.ctx...), ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { gethlog.Root().Trace(msg, l.with(ctx)...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { gethlog.Root().Debug(msg, l.with(ctx)...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { gethlog.Root().Info(msg, l.with(ctx)...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { gethlog.Root().Warn(msg, l.with(ctx)...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { gethlog.Root().Error(msg, l.with(ctx)...) }

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) { gethlog.Root().Debug(msg, ctx...) }

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { gethlog.Root().Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { gethlog.Root().Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { gethlog.Root().Error(msg, ctx...) }

const (
	LevelTrace = gethlog.LevelTrace
	LevelDebug = gethlog.LevelDebug
	LevelInfo  = gethlog.LevelInfo
	LevelWarn  = gethlog.LevelWarn
	LevelError = gethlog.LevelError
	LevelCrit  = gethlog.LevelCrit
)

// leveled drops records below a level that can change at runtime.
type leveled struct {
	level *slog.LevelVar
	slog.Handler
}

func (h *leveled) Enabled(ctx context.Context, lvl slog.Level) bool {
	return lvl >= h.level.Level() && h.Handler.Enabled(ctx, lvl)
}

func (h *leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveled{h.level, h.Handler.WithAttrs(attrs)}
}

func (h *leveled) WithGroup(name string) slog.Handler {
	return &leveled{h.level, h.Handler.WithGroup(name)}
}

// Setup installs the root handler. verbosity follows the legacy 0 (crit) to 5 (trace) scale.
// The returned LevelVar adjusts the threshold afterwards.
func Setup(w io.Writer, verbosity int, jsonFormat, useColor bool) *slog.LevelVar {
	var handler slog.Handler
	if jsonFormat {
		handler = gethlog.JSONHandlerWithLevel(w, LevelTrace)
	} else {
		handler = gethlog.NewTerminalHandlerWithLevel(w, LevelTrace, useColor)
	}
	level := new(slog.LevelVar)
	level.Set(gethlog.FromLegacyLevel(verbosity))
	gethlog.SetDefault(gethlog.NewLogger(&leveled{level, handler}))
	return level
}
