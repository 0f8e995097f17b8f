package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/ikoiii/booking-futsal/internal/events"
)

const SinkTelegram = "telegram"

// TelegramSender is the part of *tgbotapi.BotAPI used to send messages.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts booking events to the admin chats.
type TelegramNotifier struct {
	bot     TelegramSender
	chatIDs []int64
	logger  *zerolog.Logger
}

func NewTelegramNotifier(bot TelegramSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs, logger: logger}
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

func (n *TelegramNotifier) Name() string { return SinkTelegram }

// Deliver sends one message per admin chat. Every chat is attempted; errors are joined.
func (n *TelegramNotifier) Deliver(_ context.Context, event *events.Event) error {
	text, err := FormatEvent(event)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	var errs []error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Warn().Err(err).Int64("chat_id", chatID).Str("event_type", event.Type).Msg("telegram send failed")
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}
	return errors.Join(errs...)
}

// FormatEvent renders an admin notification. Unknown event types render empty.
func FormatEvent(event *events.Event) (string, error) {
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingStatusChanged:
		var p events.BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return "", fmt.Errorf("decode booking event: %w", err)
		}
		return formatBooking(event.Type, p), nil
	case events.EventReviewCreated:
		var p events.ReviewEventPayload
		if err := event.Decode(&p); err != nil {
			return "", fmt.Errorf("decode review event: %w", err)
		}
		return fmt.Sprintf("⭐ *Review baru*\nBooking #%d, lapangan #%d\nRating: %d/5\n%s",
			p.BookingID, p.LapanganID, p.Rating, escapeMarkdown(p.Komentar)), nil
	default:
		return "", nil
	}
}

func formatBooking(eventType string, p events.BookingEventPayload) string {
	var b strings.Builder
	if eventType == events.EventBookingCreated {
		b.WriteString("🆕 *Booking baru*\n")
	} else {
		fmt.Fprintf(&b, "🔄 *Status booking berubah*: %s → %s\n", p.PreviousStatus, p.Status)
	}
	fmt.Fprintf(&b, "ID: #%d\n", p.BookingID)
	fmt.Fprintf(&b, "Lapangan: %s\n", escapeMarkdown(p.LapanganNama))
	fmt.Fprintf(&b, "Tanggal: %s %02d:00-%02d:00\n", p.Tanggal, p.JamMulai, p.JamSelesai)
	if p.UserNama != "" {
		fmt.Fprintf(&b, "Pemesan: %s\n", escapeMarkdown(p.UserNama))
	}
	fmt.Fprintf(&b, "Total: Rp %d", p.TotalHarga)
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
