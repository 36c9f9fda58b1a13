package services

import "github.com/kendall-kelly/bakehouse-api/models"

// Principal is the authenticated caller of a service operation
type Principal struct {
	UserID uint
	Role   string
}

// PrincipalFor builds the principal of a loaded user
func PrincipalFor(user *models.User) Principal {
	return Principal{UserID: user.ID, Role: user.Role}
}

// IsAdmin reports whether the caller is an admin
func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// HasRole reports whether the caller has any of roles
func (p Principal) HasRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}
