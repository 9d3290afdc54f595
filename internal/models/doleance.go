package models

import (
	"time"
)

// Doleance lifecycle statuses
const (
	DoleanceStatusReceived          = "received"
	DoleanceStatusInReview          = "in_review"
	DoleanceStatusAssigned          = "assigned"
	DoleanceStatusResolutionPlanned = "resolution_planned"
	DoleanceStatusResolved          = "resolved"
	DoleanceStatusClosed            = "closed"
	DoleanceStatusRejected          = "rejected"
)

// IsTerminalDoleanceStatus reports whether a status closes the doleance.
// The closure date is set when entering one of these statuses and cleared
// when leaving them.
func IsTerminalDoleanceStatus(status string) bool {
	return status == DoleanceStatusClosed || status == DoleanceStatusRejected
}

// IsPublicDoleanceStatus reports whether a status change is visible through
// the public tracking lookup and anchored on the ledger.
func IsPublicDoleanceStatus(status string) bool {
	switch status {
	case DoleanceStatusResolved, DoleanceStatusClosed, DoleanceStatusRejected, DoleanceStatusResolutionPlanned:
		return true
	}
	return false
}

// Doleance represents a citizen complaint record
type Doleance struct {
	ID                     int64      `db:"id" json:"id"`
	ReferenceCode          string     `db:"reference_code" json:"reference_code"`
	Description            string     `db:"description" json:"description"`
	CategoryID             *int64     `db:"doleance_category_id" json:"doleance_category_id"`
	Address                *string    `db:"address" json:"address"`
	Latitude               *float64   `db:"latitude" json:"latitude"`
	Longitude              *float64   `db:"longitude" json:"longitude"`
	IsAnonymous            bool       `db:"is_anonymous" json:"is_anonymous"`
	SubmitterName          *string    `db:"submitter_name" json:"submitter_name"`
	SubmitterEmail         *string    `db:"submitter_email" json:"submitter_email"`
	SubmitterPhone         *string    `db:"submitter_phone" json:"submitter_phone"`
	SubmitterIPAddress     *string    `db:"submitter_ip_address" json:"-"`
	Status                 string     `db:"status" json:"status"`
	Priority               string     `db:"priority" json:"priority"`
	AssignedAgentID        *int64     `db:"assigned_agent_id" json:"assigned_agent_id"`
	ResolutionDetails      *string    `db:"resolution_details" json:"resolution_details"`
	LinkedInterventionID   *int64     `db:"linked_intervention_id" json:"linked_intervention_id"`
	SubmissionDate         time.Time  `db:"submission_date" json:"submission_date"`
	ClosureDate            *time.Time `db:"closure_date" json:"closure_date"`
	InitialDescriptionHash string     `db:"initial_description_hash" json:"initial_description_hash"`
	BlockchainTxHash       *string    `db:"blockchain_tx_hash" json:"blockchain_tx_hash"`
	UpdatedAt              time.Time  `db:"updated_at" json:"updated_at"`
}

// DoleanceStatusHistory is one append-only status transition row
type DoleanceStatusHistory struct {
	ID              int64     `db:"id" json:"id"`
	DoleanceID      int64     `db:"doleance_id" json:"doleance_id"`
	Status          string    `db:"status" json:"status"`
	ChangeDate      time.Time `db:"change_date" json:"change_date"`
	Notes           *string   `db:"notes" json:"notes"`
	IsPublic        bool      `db:"is_public" json:"is_public"`
	ChangedByUserID *int64    `db:"changed_by_user_id" json:"changed_by_user_id"`
}

// DoleanceAttachment holds attachment metadata; file contents live in
// external storage, only the path is recorded here.
type DoleanceAttachment struct {
	ID         int64     `db:"id" json:"id"`
	DoleanceID int64     `db:"doleance_id" json:"doleance_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	FilePath   string    `db:"file_path" json:"file_path"`
	FileType   *string   `db:"file_type" json:"file_type"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// DoleanceCreateRequest carries the public submission form fields
type DoleanceCreateRequest struct {
	Description    string
	CategoryID     *int64
	Address        *string
	Latitude       *float64
	Longitude      *float64
	IsAnonymous    bool
	SubmitterName  *string
	SubmitterEmail *string
	SubmitterPhone *string
	SubmitterIP    *string
}

// AttachmentInput carries metadata for one uploaded file
type AttachmentInput struct {
	FileName string
	FilePath string
	FileType string
}

// DoleanceCreateResponse is returned by the public submission endpoint
type DoleanceCreateResponse struct {
	Message          string           `json:"message"`
	ReferenceCode    string           `json:"referenceCode"`
	DoleanceID       int64            `json:"doleanceId"`
	BlockchainTxHash *string          `json:"blockchainTxHash"`
	UploadedFiles    []UploadedFile   `json:"uploadedFiles"`
}

// UploadedFile identifies one stored attachment in the creation response
type UploadedFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DoleanceUpdateRequest is a sparse patch: nil fields are left untouched.
type DoleanceUpdateRequest struct {
	Status               *string  `json:"status"`
	Priority             *string  `json:"priority"`
	AssignedAgentID      *int64   `json:"assigned_agent_id"`
	ResolutionDetails    *string  `json:"resolution_details"`
	LinkedInterventionID *int64   `json:"linked_intervention_id"`
	CategoryID           *int64   `json:"doleance_category_id"`
	ChangedByUserID      *int64   `json:"changed_by_user_id"`
}

// HasUpdatableField reports whether at least one recognized field is present
func (r *DoleanceUpdateRequest) HasUpdatableField() bool {
	return r.Status != nil ||
		r.Priority != nil ||
		r.AssignedAgentID != nil ||
		r.ResolutionDetails != nil ||
		r.LinkedInterventionID != nil ||
		r.CategoryID != nil
}

// DoleanceDetail combines a doleance with its history and attachments
type DoleanceDetail struct {
	Doleance
	StatusHistory []DoleanceStatusHistory `json:"status_history"`
	Attachments   []DoleanceAttachment    `json:"attachments"`
}

// DoleanceListItem is the truncated row returned by internal listings
type DoleanceListItem struct {
	ID             int64     `db:"id" json:"id"`
	ReferenceCode  string    `db:"reference_code" json:"reference_code"`
	Description    string    `db:"description" json:"description"`
	Status         string    `db:"status" json:"status"`
	Priority       string    `db:"priority" json:"priority"`
	SubmissionDate time.Time `db:"submission_date" json:"submission_date"`
	Address        *string   `db:"address" json:"address"`
}

// DoleanceListFilter holds listing filters and pagination
type DoleanceListFilter struct {
	Status          string
	Priority        string
	CategoryID      *int64
	AssignedAgentID *int64
	Limit           int
	Offset          int
}

// DoleancePublicStatus is the payload of the public tracking-code lookup
type DoleancePublicStatus struct {
	ReferenceCode  string    `db:"reference_code" json:"reference_code"`
	Status         string    `db:"status" json:"status"`
	SubmissionDate time.Time `db:"submission_date" json:"submission_date"`
	LastUpdateDate time.Time `db:"last_update_date" json:"last_update_date"`
	PublicNotes    *string   `db:"public_notes" json:"public_notes"`
}
