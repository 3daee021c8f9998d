package models

import "time"

// GrievanceStatus enumerates the grievance workflow states.
type GrievanceStatus string

const (
	StatusOpen       GrievanceStatus = "OPEN"
	StatusInProgress GrievanceStatus = "IN_PROGRESS"
	StatusResolved   GrievanceStatus = "RESOLVED"
	StatusClosed     GrievanceStatus = "CLOSED"
)

// Valid reports whether the status belongs to the enumerated set. Any valid
// status may transition to any other; only set membership is enforced.
func (s GrievanceStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Grievance is a citizen complaint against a department. Status is mutated
// only by an Official affiliated with the grievance's municipality.
type Grievance struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	DepartmentID   string          `db:"department_id" json:"department_id"`
	MunicipalityID string          `db:"municipality_id" json:"municipality_id"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description"`
	Status         GrievanceStatus `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// GrievanceResponse is one entry in the append-only response thread.
type GrievanceResponse struct {
	ID          string    `db:"id" json:"id"`
	GrievanceID string    `db:"grievance_id" json:"grievance_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Response    string    `db:"response" json:"response"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GrievanceDetail bundles a grievance with its response thread.
type GrievanceDetail struct {
	Grievance
	Responses []GrievanceResponse `json:"responses"`
}

// GrievanceFilter is the scope applied to grievance list queries before they
// execute. Exactly one of MunicipalityID or UserID is set by the policy
// layer; records outside the filter are never fetched.
type GrievanceFilter struct {
	MunicipalityID string
	UserID         string
	Status         *GrievanceStatus
	Page           int
	PageSize       int
}
