package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type CreateBookingInput struct {
	CoachID         models.AccountID
	MemberID        models.MemberProfileID
	RequestedDate   time.Time
	RequestedTime   string
	DurationMinutes int
	Notes           *string
	Status          models.BookingStatus
	SessionID       *int64
}

type BookingListFilter struct {
	CoachID  *models.AccountID
	MemberID *models.MemberProfileID
	Status   string
}

type BookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, coach_id, member_id, requested_date, requested_time, duration_min, notes,
	status, session_id, created_at, updated_at
`

func scanBooking(row interface{ Scan(dest ...any) error }) (*models.Booking, error) {
	var booking models.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CoachID,
		&booking.MemberID,
		&booking.RequestedDate,
		&booking.RequestedTime,
		&booking.DurationMinutes,
		&booking.Notes,
		&booking.Status,
		&booking.SessionID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) Create(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	query := `
		INSERT INTO bookings (coach_id, member_id, requested_date, requested_time, duration_min, notes, status, session_id)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		RETURNING` + bookingColumns
	return scanBooking(r.db.QueryRow(
		ctx,
		query,
		input.CoachID,
		input.MemberID,
		models.DateOnly(input.RequestedDate),
		input.RequestedTime,
		input.DurationMinutes,
		input.Notes,
		string(input.Status),
		input.SessionID,
	))
}

func (r *BookingRepository) GetByID(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `SELECT` + bookingColumns + `FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}

// CountActiveForSlot counts pending and confirmed bookings at the exact slot.
// The date is compared as a DATE, so no day-range arithmetic is involved.
func (r *BookingRepository) CountActiveForSlot(ctx context.Context, key models.SlotKey) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE coach_id = $1
		  AND requested_date = $2::date
		  AND requested_time = $3
		  AND status IN ('pending', 'confirmed')
	`
	var count int
	if err := r.db.QueryRow(ctx, query, key.CoachID, key.Date, key.Time.String()).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *BookingRepository) List(ctx context.Context, filter BookingListFilter) ([]models.Booking, error) {
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

	query := fmt.Sprintf(`
		SELECT %s
		FROM bookings
		WHERE %s
		ORDER BY requested_date ASC, requested_time ASC, id ASC
	`, bookingColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

// Cancel flips an active booking to cancelled. pgx.ErrNoRows means the
// booking was already cancelled or does not exist.
func (r *BookingRepository) Cancel(ctx context.Context, bookingID int64) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, bookingID))
}
