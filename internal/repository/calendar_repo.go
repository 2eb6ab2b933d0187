package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type CalendarEventRepository struct {
	db DBTX
}

func NewCalendarEventRepository(db DBTX) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

const calendarEventColumns = `
	id, owner_id, title, description, start_at, end_at, attendee_ids, visibility, status, created_at, updated_at
`

func scanCalendarEvent(row interface{ Scan(dest ...any) error }) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	var attendees []int64
	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&event.Title,
		&event.Description,
		&event.StartAt,
		&event.EndAt,
		&attendees,
		&event.Visibility,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.AttendeeIDs = int64sToAccountIDs(attendees)
	return &event, nil
}

func (r *CalendarEventRepository) Create(ctx context.Context, event models.CalendarEvent) (*models.CalendarEvent, error) {
	query := `
		INSERT INTO calendar_events (id, owner_id, title, description, start_at, end_at, attendee_ids, visibility, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING` + calendarEventColumns
	return scanCalendarEvent(r.db.QueryRow(
		ctx,
		query,
		event.ID,
		event.OwnerID,
		event.Title,
		event.Description,
		event.StartAt.UTC(),
		event.EndAt.UTC(),
		accountIDsToInt64(event.AttendeeIDs),
		event.Visibility,
		string(event.Status),
	))
}

func (r *CalendarEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CalendarEvent, error) {
	query := `SELECT` + calendarEventColumns + `FROM calendar_events WHERE id = $1`
	return scanCalendarEvent(r.db.QueryRow(ctx, query, id))
}

func (r *CalendarEventRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	patch models.CalendarEventPatch,
) (*models.CalendarEvent, error) {
	var status *string
	if patch.Status != nil {
		value := string(*patch.Status)
		status = &value
	}

	query := `
		UPDATE calendar_events
		SET title = COALESCE($2, title),
			description = COALESCE($3, description),
			start_at = COALESCE($4, start_at),
			end_at = COALESCE($5, end_at),
			status = COALESCE($6, status),
			updated_at = NOW()
		WHERE id = $1
		RETURNING` + calendarEventColumns
	return scanCalendarEvent(r.db.QueryRow(
		ctx,
		query,
		id,
		patch.Title,
		patch.Description,
		patch.StartAt,
		patch.EndAt,
		status,
	))
}
