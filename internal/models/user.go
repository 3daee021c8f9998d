package models

import "time"

// UserRole represents the closed set of roles recognised by the platform.
type UserRole string

const (
	RoleCitizen  UserRole = "CITIZEN"
	RoleOfficial UserRole = "OFFICIAL"
)

// Valid reports whether the role belongs to the recognised enumeration.
func (r UserRole) Valid() bool {
	return r == RoleCitizen || r == RoleOfficial
}

// User represents an application user stored in the users table.
// MunicipalityID is set for Officials and identifies their scope; Citizens
// may leave it empty.
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	DOB            *time.Time `db:"dob" json:"dob,omitempty"`
	Contact        *string    `db:"contact" json:"contact,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	Role           UserRole   `db:"role" json:"role"`
	MunicipalityID *string    `db:"municipality_id" json:"municipality_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
