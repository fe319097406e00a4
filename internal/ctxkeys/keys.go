// Package ctxkeys defines typed context keys shared between middleware and
// handlers. Both import this package, neither imports the other, which keeps
// the context key types free of import cycles.
package ctxkeys

import "context"

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID   Key = "userID"
	UserRole Key = "userRole"
	OrgScope Key = "orgScope"
)

// GetOrgScope returns the organization IDs the current user may touch.
// Returns nil for admin/super_admin (meaning "all organizations").
func GetOrgScope(ctx context.Context) []string {
	v := ctx.Value(OrgScope)
	if v == nil {
		return nil
	}
	ids, _ := v.([]string)
	return ids
}

// IsGlobalScope returns true if the user sees all organizations.
func IsGlobalScope(ctx context.Context) bool {
	return ctx.Value(OrgScope) == nil
}

// ValidRoles lists all valid role strings.
var ValidRoles = map[string]bool{
	"viewer":       true,
	"case_manager": true,
	"admin":        true,
	"super_admin":  true,
}

// RoleLevel maps role names to permission levels.
var RoleLevel = map[string]int{
	"viewer":       1,
	"case_manager": 2,
	"admin":        3,
	"super_admin":  4,
}
