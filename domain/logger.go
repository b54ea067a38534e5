package domain

import (
	"context"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Standard field keys shared by every component.
const (
	FieldRunID      = "run_id"
	FieldState      = "state"
	FieldStep       = "step"
	FieldExitStatus = "exit_status"
	FieldError      = "error"
)

type Field struct {
	Key   string
	Value interface{}
}

type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)

	WithFields(fields ...Field) Logger
}

func NewField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ErrorField renders err under the standard error key.
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: FieldError, Value: ""}
	}
	return Field{Key: FieldError, Value: err.Error()}
}
