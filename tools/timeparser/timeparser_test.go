package timeparser_test

import (
	"testing"
	"time"

	"github.com/septivank/charging-telemetry-service/tools/timeparser"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"rfc3339 utc", "2025-12-29T10:30:45Z", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
		{"rfc3339 millis", "2025-12-29T10:30:45.250Z", time.Date(2025, 12, 29, 10, 30, 45, 250e6, time.UTC)},
		{"rfc3339 offset", "2025-12-29T17:30:45+07:00", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
		{"iso without offset", "2025-12-29T10:30:45", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
		{"space separated", "2025-12-29 10:30:45", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
		{"date only", "2025-12-29", time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)},
		{"meter format 1", "29/12/2025 10:30:45", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
		{"meter format 2", "29 10:30:45/12/2025", time.Date(2025, 12, 29, 10, 30, 45, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := timeparser.ParseTimestamp(tt.input)
			if err != nil {
				t.Fatalf("Failed to parse timestamp: %v", err)
			}
			if !result.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
			if result.Location() != time.UTC {
				t.Errorf("Expected UTC location, got %v", result.Location())
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "invalid-date-string", "2025-13-45T99:00:00Z"} {
		if _, err := timeparser.ParseTimestamp(input); err == nil {
			t.Errorf("Expected error for %q", input)
		}
	}
}

func TestIsWithinTolerance_WithinRange(t *testing.T) {
	eventTime := time.Date(2025, 12, 29, 10, 30, 0, 0, time.UTC)
	receivedTime := time.Date(2025, 12, 29, 10, 33, 0, 0, time.UTC)

	if !timeparser.IsWithinTolerance(eventTime, receivedTime, 5*time.Minute) {
		t.Error("Expected timestamp to be within tolerance")
	}
}

func TestIsWithinTolerance_OutsideRange(t *testing.T) {
	eventTime := time.Date(2025, 12, 29, 10, 30, 0, 0, time.UTC)
	receivedTime := time.Date(2025, 12, 29, 10, 40, 0, 0, time.UTC)

	if timeparser.IsWithinTolerance(eventTime, receivedTime, 5*time.Minute) {
		t.Error("Expected timestamp to be outside tolerance")
	}
}

func TestIsWithinTolerance_FutureTimestamp(t *testing.T) {
	eventTime := time.Date(2025, 12, 29, 10, 34, 0, 0, time.UTC)
	receivedTime := time.Date(2025, 12, 29, 10, 30, 0, 0, time.UTC)

	if !timeparser.IsWithinTolerance(eventTime, receivedTime, 5*time.Minute) {
		t.Error("Expected future timestamp within tolerance")
	}
}
