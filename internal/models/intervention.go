package models

import (
	"time"
)

// Intervention lifecycle statuses
const (
	InterventionStatusCreated    = "created"
	InterventionStatusPlanned    = "planned"
	InterventionStatusAssigned   = "assigned"
	InterventionStatusInProgress = "in_progress"
	InterventionStatusCompleted  = "completed"
	InterventionStatusValidated  = "validated"
	InterventionStatusCancelled  = "cancelled"
)

// IsCriticalInterventionStatus reports whether a status change is anchored
// on the ledger. Only the initial "created" status is excluded.
func IsCriticalInterventionStatus(status string) bool {
	switch status {
	case InterventionStatusPlanned, InterventionStatusAssigned, InterventionStatusInProgress,
		InterventionStatusCompleted, InterventionStatusValidated, InterventionStatusCancelled:
		return true
	}
	return false
}

// Intervention represents a technical-service work order
type Intervention struct {
	ID                    int64      `db:"id" json:"id"`
	ReferenceCode         string     `db:"reference_code" json:"reference_code"`
	Title                 string     `db:"title" json:"title"`
	Description           string     `db:"description" json:"description"`
	TypeID                *int64     `db:"intervention_type_id" json:"intervention_type_id"`
	Status                string     `db:"status" json:"status"`
	Priority              string     `db:"priority" json:"priority"`
	Address               *string    `db:"address" json:"address"`
	Latitude              *float64   `db:"latitude" json:"latitude"`
	Longitude             *float64   `db:"longitude" json:"longitude"`
	PlannedStartDate      *time.Time `db:"planned_start_date" json:"planned_start_date"`
	PlannedEndDate        *time.Time `db:"planned_end_date" json:"planned_end_date"`
	ActualStartDate       *time.Time `db:"actual_start_date" json:"actual_start_date"`
	ActualEndDate         *time.Time `db:"actual_end_date" json:"actual_end_date"`
	AssignedAgentID       *int64     `db:"assigned_agent_id" json:"assigned_agent_id"`
	EstimatedCost         *float64   `db:"estimated_cost" json:"estimated_cost"`
	FinalCost             *float64   `db:"final_cost" json:"final_cost"`
	CostValidated         bool       `db:"cost_validated" json:"cost_validated"`
	OriginatingDoleanceID *int64     `db:"originating_doleance_id" json:"originating_doleance_id"`
	BlockchainTxHash      *string    `db:"blockchain_tx_hash" json:"blockchain_tx_hash"`
	CreationDate          time.Time  `db:"creation_date" json:"creation_date"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// InterventionStatusHistory is one append-only status transition row
type InterventionStatusHistory struct {
	ID              int64     `db:"id" json:"id"`
	InterventionID  int64     `db:"intervention_id" json:"intervention_id"`
	Status          string    `db:"status" json:"status"`
	ChangeDate      time.Time `db:"change_date" json:"change_date"`
	Notes           *string   `db:"notes" json:"notes"`
	ChangedByUserID *int64    `db:"changed_by_user_id" json:"changed_by_user_id"`
}

// InterventionCreateRequest carries the creation payload
type InterventionCreateRequest struct {
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	TypeID                *int64     `json:"intervention_type_id"`
	Status                *string    `json:"status"`
	Priority              *string    `json:"priority"`
	Address               *string    `json:"address"`
	Latitude              *float64   `json:"latitude"`
	Longitude             *float64   `json:"longitude"`
	PlannedStartDate      *time.Time `json:"planned_start_date"`
	PlannedEndDate        *time.Time `json:"planned_end_date"`
	AssignedAgentID       *int64     `json:"assigned_agent_id"`
	EstimatedCost         *float64   `json:"estimated_cost"`
	OriginatingDoleanceID *int64     `json:"originating_doleance_id"`
}

// InterventionUpdateRequest is a sparse patch: nil fields are left untouched.
type InterventionUpdateRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	TypeID           *int64     `json:"intervention_type_id"`
	Status           *string    `json:"status"`
	Priority         *string    `json:"priority"`
	Address          *string    `json:"address"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	PlannedStartDate *time.Time `json:"planned_start_date"`
	PlannedEndDate   *time.Time `json:"planned_end_date"`
	ActualStartDate  *time.Time `json:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date"`
	AssignedAgentID  *int64     `json:"assigned_agent_id"`
	EstimatedCost    *float64   `json:"estimated_cost"`
	FinalCost        *float64   `json:"final_cost"`
	CostValidated    *bool      `json:"cost_validated"`
	ChangedByUserID  *int64     `json:"changed_by_user_id"`
}

// HasUpdatableField reports whether at least one recognized field is present
func (r *InterventionUpdateRequest) HasUpdatableField() bool {
	return r.Title != nil ||
		r.Description != nil ||
		r.TypeID != nil ||
		r.Status != nil ||
		r.Priority != nil ||
		r.Address != nil ||
		r.Latitude != nil ||
		r.Longitude != nil ||
		r.PlannedStartDate != nil ||
		r.PlannedEndDate != nil ||
		r.ActualStartDate != nil ||
		r.ActualEndDate != nil ||
		r.AssignedAgentID != nil ||
		r.EstimatedCost != nil ||
		r.FinalCost != nil ||
		r.CostValidated != nil
}

// InterventionDetail combines an intervention with its history
type InterventionDetail struct {
	Intervention
	StatusHistory []InterventionStatusHistory `json:"status_history"`
}

// InterventionListFilter holds listing filters and pagination
type InterventionListFilter struct {
	Status   string
	Priority string
	TypeID   *int64
	Limit    int
	Offset   int
}
