package models

import (
	"time"
)

// Commission represents a municipal commission
type Commission struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description"`
	Status       string    `db:"status" json:"status"`
	CreationDate time.Time `db:"creation_date" json:"creation_date"`
}

// CommissionCreateRequest carries the creation payload
type CommissionCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// CommissionUpdateRequest is a sparse patch
type CommissionUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// HasUpdatableField reports whether at least one recognized field is present
func (r *CommissionUpdateRequest) HasUpdatableField() bool {
	return r.Name != nil || r.Description != nil || r.Status != nil
}
