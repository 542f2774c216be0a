// Package identity models the caller resolved by the access policy guard.
// Every coordinator operation receives an Identity explicitly.
package identity

import (
	"strings"

	"edusync/domain/shared"

	"github.com/google/uuid"
)

// Role 调用方角色
type Role string

const (
	RoleInstructor Role = "Instructor"
	RoleStudent    Role = "Student"
)

// ParseRole matches role claims case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch {
	case strings.EqualFold(s, string(RoleInstructor)):
		return RoleInstructor, true
	case strings.EqualFold(s, string(RoleStudent)):
		return RoleStudent, true
	default:
		return "", false
	}
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   Role
	Email  string
}

// New validates raw claims and canonicalises the user id. An unparsable
// user id is a bad request, an unknown role is forbidden.
func New(userID, role, email string) (Identity, error) {
	if userID == "" {
		return Identity{}, shared.NewValidationError("identity", "user_id", "user id not found in token")
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return Identity{}, shared.NewValidationError("identity", "user_id", "invalid user id format")
	}
	// 存储中的 id 是小写规范形式，比较前先统一
	userID = parsed.String()
	r, ok := ParseRole(role)
	if !ok {
		return Identity{}, shared.NewForbiddenError("identity", "unknown role", map[string]string{
			"caller_id": userID,
			"role":      role,
		})
	}
	return Identity{UserID: userID, Role: r, Email: email}, nil
}

// Is reports whether the caller holds role.
func (i Identity) Is(role Role) bool { return i.Role == role }

// Require fails with Forbidden unless the caller holds one of roles.
func (i Identity) Require(roles ...Role) error {
	for _, r := range roles {
		if i.Role == r {
			return nil
		}
	}
	allowed := make([]string, len(roles))
	for n, r := range roles {
		allowed[n] = string(r)
	}
	return shared.NewForbiddenError("identity", "role not permitted for this operation", map[string]string{
		"caller_id":     i.UserID,
		"caller_role":   string(i.Role),
		"allowed_roles": strings.Join(allowed, ","),
	})
}
