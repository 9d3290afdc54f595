package models

import (
	"time"
)

// Subject types for ledger anchors
const (
	AnchorSubjectDoleance     = "doleance"
	AnchorSubjectIntervention = "intervention"
)

// LedgerAnchor is one successful ledger write recorded in the local journal.
// The journal survives later overwrites of the scalar blockchain_tx_hash on
// the subject row, so per-fact anchors stay auditable.
type LedgerAnchor struct {
	AnchorID    string    `db:"anchor_id" json:"anchor_id"`
	SubjectType string    `db:"subject_type" json:"subject_type"`
	SubjectID   int64     `db:"subject_id" json:"subject_id"`
	FactKind    string    `db:"fact_kind" json:"fact_kind"`
	RecordID    string    `db:"record_id" json:"record_id"`
	TxHash      string    `db:"tx_hash" json:"tx_hash"`
	AnchoredAt  time.Time `db:"anchored_at" json:"anchored_at"`
}
