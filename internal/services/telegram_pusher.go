package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	tele "gopkg.in/telebot.v3"
)

type telegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type telegramLinkReader interface {
	ChatIDFor(ctx context.Context, userID models.AccountID) (int64, error)
}

// TelegramPusher mirrors notifications to accounts that linked a Telegram chat.
type TelegramPusher struct {
	bot   telegramSender
	links telegramLinkReader
}

func NewTelegramPusher(bot telegramSender, links telegramLinkReader) *TelegramPusher {
	return &TelegramPusher{bot: bot, links: links}
}

func (p *TelegramPusher) Push(ctx context.Context, notification *models.Notification) error {
	chatID, err := p.links.ChatIDFor(ctx, notification.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	msg := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(notification.Title), html.EscapeString(notification.Message))
	if _, err := p.bot.Send(&tele.Chat{ID: chatID}, msg, &tele.SendOptions{ParseMode: tele.ModeHTML}); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
