// Package notify delivers scan digests to Telegram.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Alias1177/SignalEngine/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Telegram rejects longer messages
const maxMessageLen = 4096

const maxSignalsPerSymbol = 3

// Sender is the part of tgbotapi.BotAPI used for delivery
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramDigest sends ranked scan results to one chat
type TelegramDigest struct {
	bot    Sender
	chatID int64
	logger zerolog.Logger
}

// NewTelegramDigest creates a digest sender for chatID
func NewTelegramDigest(bot Sender, chatID int64, logger zerolog.Logger) *TelegramDigest {
	return &TelegramDigest{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "telegram_digest").Logger(),
	}
}

// NewBot connects to the Telegram bot API
func NewBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return bot, nil
}

// Send formats the report and delivers it, split into as many messages as
// Telegram's length limit requires
func (d *TelegramDigest) Send(ctx context.Context, report models.ScanReport) error {
	for i, chunk := range splitMessage(FormatDigest(report), maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(d.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := d.bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send digest part %d: %w", i+1, err)
		}
	}
	d.logger.Info().Str("scan_id", report.ID).Int("results", len(report.Results)).Msg("Digest sent")
	return nil
}

// FormatDigest renders a scan report as Telegram HTML
func FormatDigest(report models.ScanReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>Scan digest</b> %s UTC\n", report.StartedAt.UTC().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Scanned %d · ranked %d · filtered %d · skipped %d\n",
		report.Scanned, len(report.Results), report.Filtered, report.Skipped)

	if len(report.Results) == 0 {
		b.WriteString("\nNo symbols passed the filters.\n")
		return b.String()
	}

	for i, r := range report.Results {
		fmt.Fprintf(&b, "\n%d. %s <b>%s</b> %+.1f %s (confidence %.0f%%)\n",
			i+1, recommendationIcon(r.Recommendation), html.EscapeString(r.Symbol), r.Score, r.Recommendation, r.Confidence)
		fmt.Fprintf(&b, "   price %.2f", r.LastPrice)
		if p := r.Position; p != nil && p.Quantity > 0 {
			fmt.Fprintf(&b, " · qty %d · stop %.2f · target %.2f", p.Quantity, p.StopLoss, p.TakeProfit)
		}
		b.WriteString("\n")

		signals := r.Signals
		if len(signals) > maxSignalsPerSymbol {
			signals = signals[:maxSignalsPerSymbol]
		}
		for _, s := range signals {
			fmt.Fprintf(&b, "   • %s\n", html.EscapeString(s))
		}
	}
	return b.String()
}

func recommendationIcon(r models.Recommendation) string {
	switch r {
	case models.StrongBuy:
		return "🟢"
	case models.Buy:
		return "🟩"
	case models.Sell:
		return "🟥"
	case models.StrongSell:
		return "🔴"
	}
	return "⚪"
}

// splitMessage breaks text on line boundaries into chunks of at most limit bytes
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
