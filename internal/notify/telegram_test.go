package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func sampleReport() models.ScanReport {
	return models.ScanReport{
		ID:        "scan-1",
		StartedAt: time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC),
		Scanned:   5,
		Skipped:   1,
		Filtered:  1,
		Results: []models.RankedResult{
			{
				Symbol:         "XYZ",
				Score:          82,
				Recommendation: models.StrongBuy,
				Confidence:     71,
				Signals:        []string{"RSI 28.0 oversold", "MACD bullish cross", "BULLISH_ENGULFING", "close < lower band"},
				LastPrice:      100,
				Position:       &models.PositionSizingResult{Quantity: 33, StopLoss: 97, TakeProfit: 106},
			},
			{Symbol: "ABC", Score: -45, Recommendation: models.Sell, Confidence: 40, LastPrice: 12.5},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	got := FormatDigest(sampleReport())

	for _, want := range []string{
		"2024-06-03 14:30 UTC",
		"Scanned 5 · ranked 2 · filtered 1 · skipped 1",
		"1. 🟢 <b>XYZ</b> +82.0 STRONG_BUY (confidence 71%)",
		"qty 33 · stop 97.00 · target 106.00",
		"• MACD bullish cross",
		"2. 🟥 <b>ABC</b> -45.0 SELL",
		"price 12.50\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "lower band") {
		t.Errorf("digest should list at most %d signals per symbol:\n%s", maxSignalsPerSymbol, got)
	}
}

func TestFormatDigestEscapesHTML(t *testing.T) {
	report := models.ScanReport{Results: []models.RankedResult{{Symbol: "A&B", Signals: []string{"price < SMA20"}}}}
	got := FormatDigest(report)
	if !strings.Contains(got, "A&amp;B") || !strings.Contains(got, "price &lt; SMA20") {
		t.Errorf("unescaped digest:\n%s", got)
	}
}

func TestFormatDigestEmpty(t *testing.T) {
	got := FormatDigest(models.ScanReport{Scanned: 3, Filtered: 3})
	if !strings.Contains(got, "No symbols passed the filters.") {
		t.Errorf("unexpected digest:\n%s", got)
	}
}

func TestTelegramDigestSend(t *testing.T) {
	sender := &fakeSender{}
	d := NewTelegramDigest(sender, 42, zerolog.Nop())

	if err := d.Send(context.Background(), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.ChatID != 42 || msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("chat/mode = %d/%s", msg.ChatID, msg.ParseMode)
	}

	sender.err = errors.New("forbidden")
	if err := d.Send(context.Background(), sampleReport()); err == nil {
		t.Error("expected send error")
	}
}

func TestTelegramDigestSplitsLongReports(t *testing.T) {
	report := models.ScanReport{}
	for i := 0; i < 200; i++ {
		report.Results = append(report.Results, models.RankedResult{
			Symbol:  fmt.Sprintf("SYM%03d", i),
			Score:   50,
			Signals: []string{"a fairly long signal description to fill up the message body"},
		})
	}
	sender := &fakeSender{}
	d := NewTelegramDigest(sender, 1, zerolog.Nop())

	if err := d.Send(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) < 2 {
		t.Fatalf("expected the digest to be split, got %d message(s)", len(sender.sent))
	}
	var joined strings.Builder
	for _, m := range sender.sent {
		if len(m.Text) > maxMessageLen {
			t.Errorf("message of %d bytes exceeds limit", len(m.Text))
		}
		joined.WriteString(m.Text)
	}
	if joined.String() != FormatDigest(report) {
		t.Error("split messages do not reassemble the digest")
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"fits", "a\nb\n", 10, []string{"a\nb\n"}},
		{"line boundaries", "aaa\nbbb\nccc\n", 8, []string{"aaa\nbbb\n", "ccc\n"}},
		{"long line", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitMessage(tt.text, tt.limit)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("splitMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
