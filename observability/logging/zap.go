// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger is a Logger implementation backed by go.uber.org/zap.
// It is the production logger; the JSON StructuredLogger remains the
// zero-dependency default.
type ZapLogger struct {
	mu           sync.RWMutex
	zl           *zap.Logger
	level        zap.AtomicLevel
	samplingRate float64
}

// NewZapLogger creates a zap-backed logger at the given level.
func NewZapLogger(level Level) *ZapLogger {
	atomic := zap.NewAtomicLevelAt(zapLevel(level))

	cfg := zap.NewProductionConfig()
	cfg.Level = atomic
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Config above is static; Build only fails on invalid paths.
		zl = zap.NewNop()
	}

	return &ZapLogger{
		zl:           zl,
		level:        atomic,
		samplingRate: 1.0,
	}
}

// Debug logs a debug message.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.zl.Debug(msg, l.zapFields(ctx, fields)...)
}

// Info logs an informational message.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.zl.Info(msg, l.zapFields(ctx, fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.zl.Warn(msg, l.zapFields(ctx, fields)...)
}

// Error logs an error message.
func (l *ZapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.zl.Error(msg, l.zapFields(ctx, fields)...)
}

// Fatal logs a fatal message and exits.
func (l *ZapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.zl.Fatal(msg, l.zapFields(ctx, fields)...)
}

// With creates a child logger with persistent fields.
func (l *ZapLogger) With(fields ...Field) Logger {
	zfs := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zfs = append(zfs, zap.Any(f.Key, f.Value))
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	return &ZapLogger{
		zl:           l.zl.With(zfs...),
		level:        l.level,
		samplingRate: l.samplingRate,
	}
}

// SetLevel sets the minimum log level.
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(zapLevel(level))
}

// SetSamplingRate sets the sampling rate for debug logs. The zap
// implementation delegates sampling to zap's own sampler; the rate is
// recorded for interface compatibility.
func (l *ZapLogger) SetSamplingRate(rate float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}
	l.samplingRate = rate
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.zl.Sync()
}

func (l *ZapLogger) zapFields(ctx context.Context, fields []Field) []zap.Field {
	ctxFields := extractContextFields(ctx)

	zfs := make([]zap.Field, 0, len(ctxFields)+len(fields))
	for _, f := range ctxFields {
		zfs = append(zfs, zap.Any(f.Key, f.Value))
	}
	for _, f := range fields {
		zfs = append(zfs, zap.Any(f.Key, f.Value))
	}
	return zfs
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
