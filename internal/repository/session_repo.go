package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type CreateSessionInput struct {
	CoachID         models.AccountID
	MemberID        models.MemberProfileID
	CalendarEventID uuid.UUID
	Type            string
	ScheduledAt     time.Time
	DurationMinutes int
	MemberNotes     *string
}

type UpdateSessionInput struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	MemberNotes     *string
}

type SessionListFilter struct {
	CoachID   *models.AccountID
	MemberID  *models.MemberProfileID
	Status    string
	Timeframe string
	Limit     int
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, coach_id, member_id, calendar_event_id, type, duration_min, scheduled_at, status,
	coach_notes, member_notes, outcomes, cancellation_reason, completed_at, cancelled_at,
	rating, rating_feedback, reminded_at, created_at, updated_at
`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.CoachID,
		&session.MemberID,
		&session.CalendarEventID,
		&session.Type,
		&session.DurationMinutes,
		&session.ScheduledAt,
		&session.Status,
		&session.CoachNotes,
		&session.MemberNotes,
		&session.Outcomes,
		&session.CancellationReason,
		&session.CompletedAt,
		&session.CancelledAt,
		&session.Rating,
		&session.RatingFeedback,
		&session.RemindedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	sessionType := strings.TrimSpace(input.Type)
	if sessionType == "" {
		sessionType = models.DefaultSessionType
	}

	query := `
		INSERT INTO sessions (coach_id, member_id, calendar_event_id, type, scheduled_at, duration_min, status, member_notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', $7)
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.CoachID,
		input.MemberID,
		input.CalendarEventID,
		sessionType,
		input.ScheduledAt.UTC(),
		input.DurationMinutes,
		input.MemberNotes,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.Session, error) {
	query := `SELECT` + sessionColumns + `FROM sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.Session, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if filter.CoachID != nil {
		args = append(args, *filter.CoachID)
		whereParts = append(whereParts, fmt.Sprintf("coach_id = $%d", len(args)))
	}
	if filter.MemberID != nil {
		args = append(args, *filter.MemberID)
		whereParts = append(whereParts, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(whereParts, "scheduled_at >= NOW()")
	case "past":
		whereParts = append(whereParts, "scheduled_at < NOW()")
	}

	limitClause := ""
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		limitClause = fmt.Sprintf("LIMIT $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM sessions
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
		%s
	`, sessionColumns, strings.Join(whereParts, " AND "), limitClause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// The transition methods below only touch rows still in the expected state.
// pgx.ErrNoRows means the precondition no longer held (or the row is gone).

func (r *SessionRepository) UpdateScheduled(
	ctx context.Context,
	sessionID int64,
	input UpdateSessionInput,
) (*models.Session, error) {
	var scheduledAt *time.Time
	if input.ScheduledAt != nil {
		utc := input.ScheduledAt.UTC()
		scheduledAt = &utc
	}

	query := `
		UPDATE sessions
		SET scheduled_at = COALESCE($2, scheduled_at),
			duration_min = COALESCE($3, duration_min),
			member_notes = COALESCE($4, member_notes),
			reminded_at = CASE WHEN $2::timestamptz IS NULL THEN reminded_at ELSE NULL END,
			updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, scheduledAt, input.DurationMinutes, input.MemberNotes))
}

func (r *SessionRepository) Complete(
	ctx context.Context,
	sessionID int64,
	coachNotes *string,
	outcomes *string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'completed',
			completed_at = NOW(),
			coach_notes = COALESCE($2, coach_notes),
			outcomes = COALESCE($3, outcomes),
			updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, coachNotes, outcomes))
}

func (r *SessionRepository) Cancel(ctx context.Context, sessionID int64, reason string) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'cancelled',
			cancelled_at = NOW(),
			cancellation_reason = $2,
			updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, reason))
}

func (r *SessionRepository) SetCoachNotes(ctx context.Context, sessionID int64, notes string) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET coach_notes = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, notes))
}

func (r *SessionRepository) SetMemberNotes(ctx context.Context, sessionID int64, notes string) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET member_notes = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, notes))
}

func (r *SessionRepository) Rate(
	ctx context.Context,
	sessionID int64,
	rating int,
	feedback *string,
) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET rating = $2, rating_feedback = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'completed' AND rating IS NULL
		RETURNING` + sessionColumns
	return scanSession(r.db.QueryRow(ctx, query, sessionID, rating, feedback))
}

// ListDueReminders returns scheduled, not yet reminded sessions starting in [from, until).
func (r *SessionRepository) ListDueReminders(
	ctx context.Context,
	from time.Time,
	until time.Time,
	limit int,
) ([]models.Session, error) {
	query := `
		SELECT` + sessionColumns + `
		FROM sessions
		WHERE status = 'scheduled'
		  AND reminded_at IS NULL
		  AND scheduled_at >= $1
		  AND scheduled_at < $2
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, from.UTC(), until.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// MarkReminded claims a session for reminding; false means another run got it first.
func (r *SessionRepository) MarkReminded(ctx context.Context, sessionID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE sessions SET reminded_at = NOW() WHERE id = $1 AND reminded_at IS NULL AND status = 'scheduled'`,
		sessionID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
