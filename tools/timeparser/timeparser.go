package timeparser

import (
	"fmt"
	"strings"
	"time"
)

var layouts = []string{
	time.RFC3339Nano,
	// ISO-8601 without an offset is read as UTC
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	// layouts sent by field meter firmware
	"02/01/2006 15:04:05",
	"02 15:04:05/01/2006",
}

// ParseTimestamp parses a telemetry timestamp in any supported layout and normalizes it to UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse timestamp '%s': %w", value, lastErr)
}

// IsWithinTolerance checks if the event timestamp is within tolerance of the received time
func IsWithinTolerance(eventTime, receivedTime time.Time, tolerance time.Duration) bool {
	diff := eventTime.Sub(receivedTime)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
