package models

import "time"

// Feedback is a citizen rating for a department within a municipality.
// Municipality and department references always come from the request path,
// never from the client body, and the record is immutable after creation.
type Feedback struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	DepartmentID   string    `db:"department_id" json:"department_id"`
	MunicipalityID string    `db:"municipality_id" json:"municipality_id"`
	Rating         int       `db:"rating" json:"rating"`
	Comment        string    `db:"comment" json:"comment"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
