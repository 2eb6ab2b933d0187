package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type CoachProfileRepository struct {
	db DBTX
}

func NewCoachProfileRepository(db DBTX) *CoachProfileRepository {
	return &CoachProfileRepository{db: db}
}

func (r *CoachProfileRepository) Create(ctx context.Context, userID models.AccountID, fullName *string) (*models.CoachProfile, error) {
	query := `
		INSERT INTO coach_profiles (user_id, full_name, onboarding_complete)
		VALUES ($1, $2, TRUE)
		RETURNING id, user_id, full_name, avatar_url, bio, specializations, hourly_rate,
				  rating, is_verified, onboarding_complete, created_at, updated_at
	`
	var profile models.CoachProfile
	err := r.db.QueryRow(ctx, query, userID, fullName).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.IsVerified,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *CoachProfileRepository) GetByUserID(ctx context.Context, userID models.AccountID) (*models.CoachProfile, error) {
	query := `
		SELECT id, user_id, full_name, avatar_url, bio, specializations, hourly_rate,
			   rating, is_verified, onboarding_complete, created_at, updated_at
		FROM coach_profiles
		WHERE user_id = $1
	`
	var profile models.CoachProfile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.Specializations,
		&profile.HourlyRate,
		&profile.Rating,
		&profile.IsVerified,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
