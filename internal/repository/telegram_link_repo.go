package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type TelegramLinkRepository struct {
	db DBTX
}

func NewTelegramLinkRepository(db DBTX) *TelegramLinkRepository {
	return &TelegramLinkRepository{db: db}
}

// ChatIDFor returns the Telegram chat linked to an account, or pgx.ErrNoRows.
func (r *TelegramLinkRepository) ChatIDFor(ctx context.Context, userID models.AccountID) (int64, error) {
	var chatID int64
	err := r.db.QueryRow(ctx, `SELECT chat_id FROM telegram_links WHERE user_id = $1`, userID).Scan(&chatID)
	return chatID, err
}

// Link points the account at chatID, replacing any earlier chat.
func (r *TelegramLinkRepository) Link(ctx context.Context, userID models.AccountID, chatID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO telegram_links (user_id, chat_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET chat_id = EXCLUDED.chat_id, created_at = NOW()
	`, userID, chatID)
	return err
}

func (r *TelegramLinkRepository) Unlink(ctx context.Context, chatID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM telegram_links WHERE chat_id = $1`, chatID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
