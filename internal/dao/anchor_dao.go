package dao

import (
	"context"
	"fmt"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// AnchorDAO handles database operations for the ledger anchor journal
type AnchorDAO struct {
	db *database.DB
}

// NewAnchorDAO creates a new AnchorDAO instance
func NewAnchorDAO(db *database.DB) *AnchorDAO {
	return &AnchorDAO{db: db}
}

// Create records a successful ledger write. Runs outside the business
// transaction; the anchored fact is already committed by the time this row
// is written.
func (dao *AnchorDAO) Create(ctx context.Context, a *models.LedgerAnchor) error {
	query := `
		INSERT INTO ledger_anchors (
			anchor_id, subject_type, subject_id, fact_kind, record_id, tx_hash, anchored_at
		) VALUES (?, ?, ?, ?, ?, ?, NOW())
	`

	_, err := dao.db.ExecContext(
		ctx,
		query,
		a.AnchorID,
		a.SubjectType,
		a.SubjectID,
		a.FactKind,
		a.RecordID,
		a.TxHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger anchor: %w", err)
	}

	return nil
}

// ListBySubject retrieves the anchor trail for one record, newest first
func (dao *AnchorDAO) ListBySubject(ctx context.Context, subjectType string, subjectID int64) ([]models.LedgerAnchor, error) {
	query := `
		SELECT anchor_id, subject_type, subject_id, fact_kind, record_id, tx_hash, anchored_at
		FROM ledger_anchors
		WHERE subject_type = ? AND subject_id = ?
		ORDER BY anchored_at DESC, anchor_id DESC
	`

	var anchors []models.LedgerAnchor
	if err := dao.db.SelectContext(ctx, &anchors, query, subjectType, subjectID); err != nil {
		return nil, fmt.Errorf("failed to list ledger anchors: %w", err)
	}

	return anchors, nil
}
