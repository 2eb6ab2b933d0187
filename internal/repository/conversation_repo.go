package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts the conversation row only; participants are added with
// AddParticipants in the same transaction.
func (r *ConversationRepository) Create(
	ctx context.Context,
	createdBy models.AccountID,
	conversationType models.ConversationType,
	name *string,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (type, name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, type, name, created_by, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, string(conversationType), name, createdBy).Scan(
		&conversation.ID,
		&conversation.Type,
		&conversation.Name,
		&conversation.CreatedBy,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) AddParticipants(
	ctx context.Context,
	conversationID int64,
	participantIDs []models.AccountID,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id)
		SELECT $1, UNNEST($2::bigint[])
		ON CONFLICT DO NOTHING
	`, conversationID, accountIDsToInt64(participantIDs))
	return err
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID models.AccountID,
) ([]models.Conversation, error) {
	query := `
		SELECT
			c.id,
			c.type,
			c.name,
			c.created_by,
			c.created_at,
			c.updated_at,
			ARRAY(
				SELECT cp.user_id
				FROM conversation_participants cp
				WHERE cp.conversation_id = c.id
				ORDER BY cp.user_id
			)
		FROM conversations c
		WHERE EXISTS (
			SELECT 1
			FROM conversation_participants me
			WHERE me.conversation_id = c.id AND me.user_id = $1
		)
		ORDER BY c.updated_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var conversation models.Conversation
		var participants []int64
		if err := rows.Scan(
			&conversation.ID,
			&conversation.Type,
			&conversation.Name,
			&conversation.CreatedBy,
			&conversation.CreatedAt,
			&conversation.UpdatedAt,
			&participants,
		); err != nil {
			return nil, err
		}
		conversation.ParticipantIDs = int64sToAccountIDs(participants)
		conversations = append(conversations, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return conversations, nil
}
