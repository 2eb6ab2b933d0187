package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListActiveForDay returns the coach's active windows on a weekday ordered by
// start time, so the first window containing a time is deterministic.
func (r *AvailabilityRepository) ListActiveForDay(
	ctx context.Context,
	coachID models.AccountID,
	dayOfWeek int,
) ([]models.AvailabilityWindow, error) {
	query := `
		SELECT id, coach_id, day_of_week, start_time, end_time, is_active,
			   max_sessions_per_slot, created_at, updated_at
		FROM availability_windows
		WHERE coach_id = $1 AND day_of_week = $2 AND is_active = TRUE
		ORDER BY start_time ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, coachID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]models.AvailabilityWindow, 0)
	for rows.Next() {
		var window models.AvailabilityWindow
		if err := rows.Scan(
			&window.ID,
			&window.CoachID,
			&window.DayOfWeek,
			&window.StartTime,
			&window.EndTime,
			&window.IsActive,
			&window.MaxSessionsPerSlot,
			&window.CreatedAt,
			&window.UpdatedAt,
		); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return windows, nil
}

// Upsert is used by the seed command; the engine itself never writes windows.
func (r *AvailabilityRepository) Upsert(ctx context.Context, window models.AvailabilityWindow) (int64, error) {
	query := `
		INSERT INTO availability_windows (coach_id, day_of_week, start_time, end_time, is_active, max_sessions_per_slot)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coach_id, day_of_week, start_time)
		DO UPDATE SET end_time = EXCLUDED.end_time,
					  is_active = EXCLUDED.is_active,
					  max_sessions_per_slot = EXCLUDED.max_sessions_per_slot,
					  updated_at = NOW()
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(
		ctx,
		query,
		window.CoachID,
		window.DayOfWeek,
		window.StartTime,
		window.EndTime,
		window.IsActive,
		window.MaxSessionsPerSlot,
	).Scan(&id)
	return id, err
}
