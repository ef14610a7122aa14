package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologLogger backs the Logger interface with a zerolog.Logger so the
// analysis packages can log into an application's structured stream.
type ZerologLogger struct {
	zl     zerolog.Logger
	fields Fields
}

// NewZerologLogger wraps zl. Preset fields are attached on every event.
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl, fields: make(Fields)}
}

func (z *ZerologLogger) event(e *zerolog.Event, err error, msg string, fields ...Fields) {
	if e == nil {
		return
	}
	if err != nil {
		e = e.Err(err)
	}
	e.Fields(map[string]any(mergeFields(z.fields, fields...))).Msg(msg)
}

func (z *ZerologLogger) Debug(msg string, fields ...Fields) {
	z.event(z.zl.Debug(), nil, msg, fields...)
}

func (z *ZerologLogger) Info(msg string, fields ...Fields) {
	z.event(z.zl.Info(), nil, msg, fields...)
}

func (z *ZerologLogger) Warn(msg string, fields ...Fields) {
	z.event(z.zl.Warn(), nil, msg, fields...)
}

func (z *ZerologLogger) Error(err error, msg string, fields ...Fields) {
	z.event(z.zl.Error(), err, msg, fields...)
}

// Fatal logs and exits through zerolog's own Fatal handling.
func (z *ZerologLogger) Fatal(err error, msg string, fields ...Fields) {
	z.event(z.zl.Fatal(), err, msg, fields...)
}

func (z *ZerologLogger) WithFields(fields Fields) Logger {
	return &ZerologLogger{zl: z.zl, fields: mergeFields(z.fields, fields)}
}

func (z *ZerologLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return z.WithFields(fields)
	}
	return z
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.zl = z.zl.Level(toZerologLevel(level))
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
