// Package authz is the single place where role requirements are evaluated.
// Every authorization decision in the system routes through Satisfies rather
// than re-implementing the admin-bypass rule inline at call sites.
package authz

import "edureview/pkg/domain"

// Satisfies reports whether the actual role meets the requirement.
// Admin satisfies any requirement. An empty/unknown actual role satisfies
// nothing, including an empty requirement set.
func Satisfies(actual domain.UserRole, required ...domain.UserRole) bool {
	if _, ok := domain.ParseUserRole(string(actual)); !ok {
		return false
	}
	if actual == domain.RoleAdmin {
		return true
	}
	for _, role := range required {
		if actual == role {
			return true
		}
	}
	return false
}
