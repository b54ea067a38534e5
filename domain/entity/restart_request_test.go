package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestartRequest_RoundTrip(t *testing.T) {
	at := time.Date(2026, 10, 18, 3, 15, 0, 0, time.UTC)
	req := NewRestartRequest(at, "  certificate-rotated ")

	parsed, err := ParseRestartRequest(req.Marshal())
	require.NoError(t, err)

	assert.True(t, parsed.Pending)
	assert.True(t, at.Equal(parsed.RequestedAt))
	assert.Equal(t, "certificate-rotated", parsed.Reason)
}

func TestParseRestartRequest_EmptyMarker(t *testing.T) {
	parsed, err := ParseRestartRequest(nil)
	require.NoError(t, err)

	assert.True(t, parsed.Pending)
	assert.True(t, parsed.RequestedAt.IsZero())
	assert.Empty(t, parsed.Reason)
}

func TestParseRestartRequest_BadTimestamp(t *testing.T) {
	parsed, err := ParseRestartRequest([]byte("yesterday\n"))

	assert.Error(t, err)
	assert.True(t, parsed.Pending)
}
