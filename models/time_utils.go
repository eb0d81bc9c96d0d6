package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// epoch values above this are treated as milliseconds
const epochMillisThreshold = 1e11

// ParseTimestamp accepts ISO-8601 text or integer epoch seconds/milliseconds.
// Zoneless layouts are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidInput)
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > epochMillisThreshold || n < -epochMillisThreshold {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidInput, raw)
}

// CandlesForDays estimates how many bars of an interval cover the given number of days
func CandlesForDays(interval string, days int) int {
	candlesPerDay := 0

	switch interval {
	case "1min":
		candlesPerDay = 24 * 60
	case "5min":
		candlesPerDay = 24 * 12
	case "15min":
		candlesPerDay = 24 * 4
	case "30min":
		candlesPerDay = 24 * 2
	case "1h":
		candlesPerDay = 24
	case "4h":
		candlesPerDay = 6
	case "1day":
		candlesPerDay = 1
	case "1week":
		candlesPerDay = 1
		days = days / 7
		if days < 1 {
			days = 1
		}
	}

	// 10% buffer for gaps
	return int(float64(candlesPerDay) * float64(days) * 1.1)
}
