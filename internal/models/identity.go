package models

import (
	"errors"
	"strconv"
	"strings"
)

// AccountID identifies a login account. Coaches are referenced by it directly.
type AccountID int64

// MemberProfileID identifies a member profile row. Bookings and sessions
// reference members by profile, never by account.
type MemberProfileID int64

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func (id MemberProfileID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type Role uint8

const (
	RoleUnknown Role = iota
	RoleMember
	RoleCoach
	RoleAdmin
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts the role names carried in access tokens. "user" is the
// legacy name for members.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "member", "user":
		return RoleMember, nil
	case "coach":
		return RoleCoach, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, ErrUnknownRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleCoach:
		return "coach"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Caller is the resolved identity of whoever issued the current request.
// MemberProfileID is zero unless Role is RoleMember and a profile exists.
type Caller struct {
	AccountID       AccountID
	Role            Role
	MemberProfileID MemberProfileID
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

func (c Caller) IsCoach(coachID AccountID) bool {
	return c.Role == RoleCoach && c.AccountID == coachID
}

func (c Caller) HasMemberProfile() bool {
	return c.Role == RoleMember && c.MemberProfileID > 0
}

func (c Caller) IsMember(memberID MemberProfileID) bool {
	return c.HasMemberProfile() && c.MemberProfileID == memberID
}
