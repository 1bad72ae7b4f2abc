package domain

import "strings"

// Roles understood by the marketplace.
const (
	RoleFarmer = "Farmer"
	RoleClient = "Client"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	Account string
	Roles   []string
}

// Authenticated reports whether an account name is present.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.Account) != ""
}

// HasRole matches role names case-insensitively.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
