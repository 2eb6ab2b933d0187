package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `
	id, user_id, title, message, category, priority, action_url, action_label, read_at, created_at
`

func scanNotification(row interface{ Scan(dest ...any) error }) (*models.Notification, error) {
	var notification models.Notification
	err := row.Scan(
		&notification.ID,
		&notification.UserID,
		&notification.Title,
		&notification.Message,
		&notification.Category,
		&notification.Priority,
		&notification.ActionURL,
		&notification.ActionLabel,
		&notification.ReadAt,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *NotificationRepository) Create(ctx context.Context, input models.NotificationInput) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, category, priority, action_url, action_label)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING` + notificationColumns
	return scanNotification(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.Title,
		input.Message,
		string(input.Category),
		string(input.Priority),
		input.ActionURL,
		input.ActionLabel,
	))
}

func (r *NotificationRepository) ListForUser(
	ctx context.Context,
	userID models.AccountID,
	unreadOnly bool,
	limit int,
	offset int,
) ([]models.Notification, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read_at IS NULL)
	`
	if err := r.db.QueryRow(ctx, countQuery, userID, unreadOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read_at IS NULL)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *notification)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead only touches the caller's own notification; pgx.ErrNoRows otherwise.
func (r *NotificationRepository) MarkRead(
	ctx context.Context,
	notificationID int64,
	userID models.AccountID,
) (*models.Notification, error) {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND user_id = $2
		RETURNING` + notificationColumns
	return scanNotification(r.db.QueryRow(ctx, query, notificationID, userID))
}
