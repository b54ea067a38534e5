package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/saferestart/domain"
	"github.com/ca-srg/saferestart/infrastructure/config"
)

func TestPromtailLogger_WithFields(t *testing.T) {
	logger := NewPromtailLogger(nil, "state-machine")

	base := logger.WithFields(domain.NewField(domain.FieldRunID, "run-1"))
	child := base.WithFields(domain.NewField(domain.FieldState, "Closing"))

	assert.NotSame(t, logger, base)
	childImpl := child.(*PromtailLogger)
	assert.Len(t, childImpl.fields, 2)
	assert.Len(t, base.(*PromtailLogger).fields, 1)
}

func TestPromtailLogger_Labels(t *testing.T) {
	logger := NewPromtailLogger(nil, "lifecycle").
		WithFields(domain.NewField(domain.FieldRunID, "run-1")).(*PromtailLogger)

	labels := logger.labels(domain.LogLevelWarn, []domain.Field{
		domain.NewField(domain.FieldStep, "stop server"),
		domain.NewField(domain.FieldExitStatus, 3),
	})

	assert.Equal(t, map[string]string{
		"component":   "lifecycle",
		"level":       "WARN",
		"run_id":      "run-1",
		"step":        "stop server",
		"exit_status": "3",
	}, labels)
}

func TestPromtailLogger_NilClientIsSilent(t *testing.T) {
	logger := NewPromtailLogger(nil, "test")

	assert.NotPanics(t, func() {
		logger.Error(t.Context(), "dropped")
	})
}

func TestNewPromtailClient_RequiresURL(t *testing.T) {
	_, err := NewPromtailClient(&config.PromtailConfig{})
	require.Error(t, err)

	_, err = NewPromtailClient(nil)
	require.Error(t, err)
}

func TestLevelToString(t *testing.T) {
	tests := []struct {
		level    domain.LogLevel
		expected string
	}{
		{domain.LogLevelDebug, "DEBUG"},
		{domain.LogLevelInfo, "INFO"},
		{domain.LogLevelWarn, "WARN"},
		{domain.LogLevelError, "ERROR"},
		{domain.LogLevel(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, levelToString(tt.level))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, domain.LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, domain.LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, domain.LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, domain.LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, domain.LogLevelInfo, ParseLogLevel("verbose"))
}
