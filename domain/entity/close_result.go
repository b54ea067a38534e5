package entity

import "strings"

// CloseLog is the raw multi-line output of a close-all invocation.
type CloseLog struct {
	Lines []string
}

// NewCloseLog splits raw admin output into lines
func NewCloseLog(output string) *CloseLog {
	output = strings.ReplaceAll(output, "\r\n", "\n")
	lines := make([]string, 0)
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return &CloseLog{Lines: lines}
}

// CountMarked counts lines containing marker. Matching is case-insensitive.
func (l *CloseLog) CountMarked(marker string) int {
	if l == nil || marker == "" {
		return 0
	}
	needle := strings.ToLower(marker)
	n := 0
	for _, line := range l.Lines {
		if strings.Contains(strings.ToLower(line), needle) {
			n++
		}
	}
	return n
}

// CloseResult summarizes a close attempt.
type CloseResult struct {
	// ClosedCount is the number of "closed" markers in the close log
	ClosedCount int

	// Failures is the number of resources that were open but not reported closed
	Failures int

	// OpenBefore is the open-resource count observed before closing, -1 when untracked
	OpenBefore int

	// NothingToDo is set when no resource was open and close was skipped
	NothingToDo bool
}

// NewCloseResult derives failures from the pre-close count when it is known
func NewCloseResult(closedCount, openBefore int) *CloseResult {
	failures := 0
	if openBefore >= 0 && openBefore > closedCount {
		failures = openBefore - closedCount
	}
	return &CloseResult{
		ClosedCount: closedCount,
		Failures:    failures,
		OpenBefore:  openBefore,
	}
}
