package auth

import "strings"

// Role is the caller's standing in the warehouse. Roles are ordered: a
// clerk can do whatever a viewer can, an admin whatever a clerk can.
type Role string

const (
	RoleUnknown Role = ""
	RoleViewer  Role = "viewer"
	RoleClerk   Role = "clerk"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleClerk:  2,
	RoleAdmin:  3,
}

// NormalizeRole maps a metadata value onto a known Role, or RoleUnknown
func NormalizeRole(role string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	if _, ok := roleRank[r]; ok {
		return r
	}
	return RoleUnknown
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Claims identifies the user on whose behalf an operation runs.
type Claims struct {
	UserID string
	Name   string
	Role   Role
}

// DisplayName is the name recorded on printed reports. It falls back to the user id.
func (c *Claims) DisplayName() string {
	if c == nil {
		return ""
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return c.UserID
}

// AtLeast reports whether the caller's role ranks at or above min
func (c *Claims) AtLeast(min Role) bool {
	if c == nil {
		return false
	}
	return roleRank[c.Role] >= roleRank[min]
}
