package entity

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// RestartRequest records that a restart of the managed server is desired.
type RestartRequest struct {
	RequestedAt time.Time
	Pending     bool
	Reason      string
}

// NewRestartRequest creates a pending restart request
func NewRestartRequest(requestedAt time.Time, reason string) *RestartRequest {
	return &RestartRequest{
		RequestedAt: requestedAt.UTC(),
		Pending:     true,
		Reason:      strings.TrimSpace(reason),
	}
}

// Marshal renders the request as marker file content: an RFC3339 timestamp
// line followed by an optional reason line.
func (r *RestartRequest) Marshal() []byte {
	var b strings.Builder
	b.WriteString(r.RequestedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n")
	if r.Reason != "" {
		b.WriteString(r.Reason)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// ParseRestartRequest reads marker file content. Only existence matters for
// pending state, so an empty or unparsable timestamp leaves RequestedAt zero.
func ParseRestartRequest(data []byte) (*RestartRequest, error) {
	req := &RestartRequest{Pending: true}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	if scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			ts, err := time.Parse(time.RFC3339, line)
			if err != nil {
				return req, fmt.Errorf("invalid restart flag timestamp %q: %w", line, err)
			}
			req.RequestedAt = ts
		}
	}
	if scanner.Scan() {
		req.Reason = strings.TrimSpace(scanner.Text())
	}
	return req, scanner.Err()
}
