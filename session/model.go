package session

import "time"

// Role is the access-level claim carried by a session.
type Role string

const (
	// RoleGuest is the weakest authenticated role.
	RoleGuest Role = "guest"
	// RoleUser is the default role for authenticated principals.
	RoleUser Role = "user"
	// RoleAdmin grants access to admin route namespaces.
	RoleAdmin Role = "admin"
)

var roleRank = map[Role]int{
	RoleGuest: 0,
	RoleUser:  1,
	RoleAdmin: 2,
}

// ParseRole maps a provider-supplied role string onto a known [Role].
// Unknown values degrade to [RoleGuest] rather than failing open.
func ParseRole(s string) Role {
	r := Role(s)
	if _, ok := roleRank[r]; ok {
		return r
	}
	return RoleGuest
}

// AtLeast reports whether r satisfies the given minimum role.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// Session is the in-memory representation of one principal's current
// credentials. Pure data; lifecycle behavior lives in [Handle] and the
// Manager's refresh coordinator.
type Session struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// AccessExpiresAt is the unix second after which AccessToken is invalid.
	// Set whenever AccessToken is non-empty.
	AccessExpiresAt int64 `json:"access_expires_at"`
	CreatedAt       int64 `json:"created_at"`
}

// ValidAt reports whether the access token is usable at the given instant.
// skew shrinks the validity window so callers refresh slightly before the
// provider would start rejecting the token.
func (s *Session) ValidAt(now time.Time, skew time.Duration) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return now.Add(skew).Unix() < s.AccessExpiresAt
}

// Terminal reports whether the session can no longer self-heal: the access
// token is unusable and there is no refresh credential to mint a new one.
func (s *Session) Terminal(now time.Time) bool {
	if s == nil {
		return true
	}
	return !s.ValidAt(now, 0) && s.RefreshToken == ""
}
