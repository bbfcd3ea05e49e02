package models

type UserRole string

const (
	RoleCandidate UserRole = "user"
	RoleRecruiter UserRole = "recruiter"
	RoleAdmin     UserRole = "admin"
)

// ParseRole maps the app_metadata role claim to a UserRole; anything unknown
// is a candidate.
func ParseRole(s string) UserRole {
	switch UserRole(s) {
	case RoleAdmin, RoleRecruiter:
		return UserRole(s)
	default:
		return RoleCandidate
	}
}

// IsStaff reports whether the role may read other candidates' sessions.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleRecruiter
}
