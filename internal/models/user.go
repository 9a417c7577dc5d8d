package models

import "time"

// Role names. "administrateur" is canonical; the legacy alias "admin" still
// appears in old rows and is folded by NormalizeRole before any policy check.
const (
	RoleTopographe     = "topographe"
	RoleSuperviseur    = "superviseur"
	RoleAdministrateur = "administrateur"

	legacyAdminAlias = "admin"
)

// SeedAdminUsername is the built-in administrator account created at first
// startup. It can never be deleted.
const SeedAdminUsername = "admin"

// NormalizeRole folds legacy role spellings into the canonical set. Unknown
// values pass through unchanged so they stay visible in the admin pages.
func NormalizeRole(role string) string {
	if role == legacyAdminAlias {
		return RoleAdministrateur
	}
	return role
}

// User mirrors the users table. Email is optional but unique when present,
// hence the pointer (a NULL never collides with another NULL).
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"` // bcrypt hashé
	Email     *string   `gorm:"size:100;uniqueIndex" json:"email,omitempty"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
