package repository

import (
	"context"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type MemberProfileRepository struct {
	db DBTX
}

func NewMemberProfileRepository(db DBTX) *MemberProfileRepository {
	return &MemberProfileRepository{db: db}
}

const memberProfileColumns = `
	id, user_id, full_name, avatar_url, fitness_level, goals, onboarding_complete, created_at, updated_at
`

func scanMemberProfile(row interface{ Scan(dest ...any) error }) (*models.MemberProfile, error) {
	var profile models.MemberProfile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.FitnessLevel,
		&profile.Goals,
		&profile.OnboardingComplete,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MemberProfileRepository) Create(ctx context.Context, userID models.AccountID, fullName *string) (*models.MemberProfile, error) {
	query := `
		INSERT INTO member_profiles (user_id, full_name, onboarding_complete)
		VALUES ($1, $2, TRUE)
		RETURNING` + memberProfileColumns
	return scanMemberProfile(r.db.QueryRow(ctx, query, userID, fullName))
}

// GetByUserID looks a member up by account id.
func (r *MemberProfileRepository) GetByUserID(ctx context.Context, userID models.AccountID) (*models.MemberProfile, error) {
	query := `SELECT` + memberProfileColumns + `FROM member_profiles WHERE user_id = $1`
	return scanMemberProfile(r.db.QueryRow(ctx, query, userID))
}

// GetByID looks a member up by profile id.
func (r *MemberProfileRepository) GetByID(ctx context.Context, id models.MemberProfileID) (*models.MemberProfile, error) {
	query := `SELECT` + memberProfileColumns + `FROM member_profiles WHERE id = $1`
	return scanMemberProfile(r.db.QueryRow(ctx, query, id))
}
