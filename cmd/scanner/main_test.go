package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

type markCall struct {
	at    time.Time
	score *float64
}

type fakeRecorder struct {
	calls map[string]markCall
	fail  map[string]bool
}

func (f *fakeRecorder) MarkScanned(_ context.Context, symbol string, at time.Time, score *float64) error {
	if f.fail[symbol] {
		return errors.New("write failed")
	}
	f.calls[symbol] = markCall{at: at, score: score}
	return nil
}

func TestRecordScan(t *testing.T) {
	started := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	report := models.ScanReport{
		StartedAt: started,
		Results: []models.RankedResult{
			{Symbol: "AAPL", Score: 72.5},
			{Symbol: "MSFT", Score: 41},
		},
		// filtered, below min score, cut by top n, skipped
		Attempted: []string{"AAPL", "AMD", "INTC", "MSFT", "NVDA", "TSLA"},
	}

	rec := &fakeRecorder{calls: map[string]markCall{}, fail: map[string]bool{"TSLA": true}}
	if failed := recordScan(context.Background(), rec, report); failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}

	tests := []struct {
		symbol string
		score  *float64
	}{
		{"AAPL", ptr(72.5)},
		{"MSFT", ptr(41)},
		{"AMD", nil},
		{"INTC", nil},
		{"NVDA", nil},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			call, ok := rec.calls[tt.symbol]
			if !ok {
				t.Fatalf("%s was not recorded", tt.symbol)
			}
			if !call.at.Equal(started) {
				t.Errorf("at = %v, want %v", call.at, started)
			}
			switch {
			case tt.score == nil && call.score != nil:
				t.Errorf("score = %v, want nil", *call.score)
			case tt.score != nil && (call.score == nil || *call.score != *tt.score):
				t.Errorf("score = %v, want %v", call.score, *tt.score)
			}
		})
	}
	if len(rec.calls) != 5 {
		t.Errorf("recorded %d symbols, want 5", len(rec.calls))
	}
}

func ptr(v float64) *float64 { return &v }
