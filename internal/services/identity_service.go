package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type coachProfileReader interface {
	GetByUserID(ctx context.Context, userID models.AccountID) (*models.CoachProfile, error)
}

type memberProfileReader interface {
	GetByUserID(ctx context.Context, userID models.AccountID) (*models.MemberProfile, error)
	GetByID(ctx context.Context, id models.MemberProfileID) (*models.MemberProfile, error)
}

type IdentityService struct {
	coaches coachProfileReader
	members memberProfileReader
}

func NewIdentityService(coaches coachProfileReader, members memberProfileReader) *IdentityService {
	return &IdentityService{coaches: coaches, members: members}
}

// ResolveMemberProfile is the only conversion from a member's account id to
// the profile id that bookings and sessions reference.
func (s *IdentityService) ResolveMemberProfile(ctx context.Context, accountID models.AccountID) (models.MemberProfileID, error) {
	profile, err := s.members.GetByUserID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrMemberNotFound
		}
		return 0, err
	}
	return profile.ID, nil
}

// ResolveCaller builds the per-request caller. A member without a profile is
// still a valid caller; they simply own nothing.
func (s *IdentityService) ResolveCaller(ctx context.Context, accountID models.AccountID, role models.Role) (models.Caller, error) {
	caller := models.Caller{AccountID: accountID, Role: role}
	if accountID <= 0 || role == models.RoleUnknown {
		return caller, ErrForbidden
	}
	if role != models.RoleMember {
		return caller, nil
	}

	profileID, err := s.ResolveMemberProfile(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return caller, nil
		}
		return caller, err
	}
	caller.MemberProfileID = profileID
	return caller, nil
}

func (s *IdentityService) coach(ctx context.Context, coachID models.AccountID) (*models.CoachProfile, error) {
	profile, err := s.coaches.GetByUserID(ctx, coachID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCoachNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *IdentityService) memberByAccount(ctx context.Context, accountID models.AccountID) (*models.MemberProfile, error) {
	profile, err := s.members.GetByUserID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (s *IdentityService) memberByProfile(ctx context.Context, profileID models.MemberProfileID) (*models.MemberProfile, error) {
	profile, err := s.members.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return profile, nil
}
