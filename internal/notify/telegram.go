package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// maxMessageLen is the Telegram limit for a text message.
const maxMessageLen = 4096

type messageSender interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
}

// Telegram sends digests directly through the Bot API.
type Telegram struct {
	bot    messageSender
	logger *slog.Logger
}

func NewTelegram(token string, logger *slog.Logger, opts ...tgbot.Option) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	bot, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info("telegram bot created")

	return &Telegram{
		bot:    bot,
		logger: logger,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, d Digest) error {
	if d.Recipient == "" {
		return fmt.Errorf("empty telegram recipient")
	}

	_, err := t.bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: d.Recipient,
		Text:   FormatDigest(d),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	t.logger.Debug("telegram digest sent",
		"subscription_id", d.SubscriptionID,
		"videos", len(d.Videos),
	)

	return nil
}

// FormatDigest renders the digest as plain text, cut to fit one message.
func FormatDigest(d Digest) string {
	var b strings.Builder

	if len(d.Videos) == 0 {
		b.WriteString("Viral Daily: nothing went viral today.")
		return b.String()
	}

	fmt.Fprintf(&b, "Viral Daily: top %d videos\n", len(d.Videos))

	for i, v := range d.Videos {
		entry := fmt.Sprintf("\n%d. %s\n%s | score %.1f\n%s\n", i+1, v.Title, v.Platform, v.ViralScore, v.URL)
		if b.Len()+len(entry) > maxMessageLen {
			break
		}
		b.WriteString(entry)
	}

	return b.String()
}
