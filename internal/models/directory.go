package models

import "time"

// State is the root of the geographic directory. Seeded once, read-only
// through the API.
type State struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Municipality belongs to exactly one state.
type Municipality struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StateID   string    `db:"state_id" json:"state_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Department is the subject of feedback and grievances. A department can
// serve several municipalities; reachability is resolved through the
// department_municipalities join table.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
