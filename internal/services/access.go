package services

import "github.com/saeid-a/CoachBooking/internal/models"

// Ownership rules. All of them are pure functions of the resolved caller.

func canViewSession(caller models.Caller, session *models.Session) bool {
	return caller.IsAdmin() || caller.IsCoach(session.CoachID) || caller.IsMember(session.MemberID)
}

// canManageSession covers update, complete and coach notes.
func canManageSession(caller models.Caller, session *models.Session) bool {
	return caller.IsAdmin() || caller.IsCoach(session.CoachID)
}

func canCancelSession(caller models.Caller, session *models.Session) bool {
	return canViewSession(caller, session)
}

// canActAsMember covers member notes and rating.
func canActAsMember(caller models.Caller, session *models.Session) bool {
	return caller.IsAdmin() || caller.IsMember(session.MemberID)
}

func canViewBooking(caller models.Caller, booking *models.Booking) bool {
	return caller.IsAdmin() || caller.IsCoach(booking.CoachID) || caller.IsMember(booking.MemberID)
}

func canCancelBooking(caller models.Caller, booking *models.Booking) bool {
	return canViewBooking(caller, booking)
}

// canBookFor decides who may place a booking for a member with a coach:
// the member themself, the coach into their own calendar, or an admin.
func canBookFor(caller models.Caller, coachID models.AccountID, memberAccountID models.AccountID) bool {
	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCoach:
		return caller.AccountID == coachID
	case models.RoleMember:
		return caller.AccountID == memberAccountID
	default:
		return false
	}
}

// scope narrows a listing to what the caller owns. ok is false for a member
// without a profile, whose listings are always empty.
type scope struct {
	CoachID  *models.AccountID
	MemberID *models.MemberProfileID
}

func ownershipScope(caller models.Caller) (scope, bool) {
	switch caller.Role {
	case models.RoleAdmin:
		return scope{}, true
	case models.RoleCoach:
		coachID := caller.AccountID
		return scope{CoachID: &coachID}, true
	case models.RoleMember:
		if !caller.HasMemberProfile() {
			return scope{}, false
		}
		memberID := caller.MemberProfileID
		return scope{MemberID: &memberID}, true
	default:
		return scope{}, false
	}
}
