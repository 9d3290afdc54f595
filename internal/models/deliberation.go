package models

import (
	"time"
)

// Deliberation represents a published council deliberation
type Deliberation struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	ReferenceCode string    `db:"reference_code" json:"reference_code"`
	SessionDate   time.Time `db:"session_date" json:"session_date"`
	Summary       *string   `db:"summary" json:"summary"`
	Status        string    `db:"status" json:"status"`
	DocumentPath  *string   `db:"document_path" json:"document_path"`
}

// DeliberationListFilter holds search filters and pagination
type DeliberationListFilter struct {
	SearchTerm string
	Year       int
	Status     string
	Limit      int
	Offset     int
}
