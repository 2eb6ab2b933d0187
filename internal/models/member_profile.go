package models

import "time"

type MemberProfile struct {
	ID                 MemberProfileID `json:"id"`
	UserID             AccountID       `json:"user_id"`
	FullName           *string         `json:"full_name"`
	AvatarURL          *string         `json:"avatar_url"`
	FitnessLevel       *string         `json:"fitness_level"`
	Goals              *[]string       `json:"goals"`
	OnboardingComplete bool            `json:"onboarding_complete"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Party is the summary of a coach or member attached to booking responses.
type Party struct {
	AccountID AccountID        `json:"account_id"`
	ProfileID *MemberProfileID `json:"profile_id,omitempty"`
	FullName  *string          `json:"full_name,omitempty"`
}

func CoachParty(profile *CoachProfile) Party {
	return Party{AccountID: profile.UserID, FullName: profile.FullName}
}

func MemberParty(profile *MemberProfile) Party {
	id := profile.ID
	return Party{AccountID: profile.UserID, ProfileID: &id, FullName: profile.FullName}
}

// DisplayName falls back to a generic label when onboarding left the name empty.
func (p Party) DisplayName(fallback string) string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return fallback
}
