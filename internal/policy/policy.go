// Package policy holds the pure authorization rules for surveys and user
// accounts. Every function decides from already-resolved values only; none
// of them touches storage, so they are trivially testable and safe to call
// from templates and handlers alike.
package policy

import "github.com/diewo77/topo-leves/internal/models"

// IsAdmin reports whether the role carries unrestricted management rights.
func IsAdmin(role string) bool {
	return models.NormalizeRole(role) == models.RoleAdministrateur
}

// CanEnterLeves reports whether the role may create survey records.
// Plain topographe accounts only consult their own statistics.
func CanEnterLeves(role string) bool {
	switch models.NormalizeRole(role) {
	case models.RoleSuperviseur, models.RoleAdministrateur:
		return true
	}
	return false
}

// CanEditOrDeleteLeve decides whether acting may modify or remove a record
// owned by owner. Administrators may always; a superviseur only their own
// records. An empty owner denies for everyone but administrators: a record
// with no known owner must fail closed, not open.
func CanEditOrDeleteLeve(role, acting, owner string) bool {
	if IsAdmin(role) {
		return true
	}
	if models.NormalizeRole(role) != models.RoleSuperviseur {
		return false
	}
	return owner != "" && acting == owner
}

// CanManageAccounts reports whether the role may list, create and delete
// user accounts.
func CanManageAccounts(role string) bool {
	return IsAdmin(role)
}

// CanDeleteUserAccount protects the seed administrator. Callers are expected
// to have already checked CanManageAccounts.
func CanDeleteUserAccount(targetUsername string) bool {
	return targetUsername != models.SeedAdminUsername
}
