package database

import "time"

// Candidate represents an interview candidate record
type Candidate struct {
	ID          int64     `db:"id" json:"-"`
	Name        string    `db:"name" json:"name"`
	Designation string    `db:"designation" json:"designation"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}
