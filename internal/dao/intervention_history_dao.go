package dao

import (
	"context"
	"fmt"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// InterventionHistoryDAO handles database operations for the intervention
// status history ledger. Rows are append-only.
type InterventionHistoryDAO struct {
	db *database.DB
}

// NewInterventionHistoryDAO creates a new InterventionHistoryDAO instance
func NewInterventionHistoryDAO(db *database.DB) *InterventionHistoryDAO {
	return &InterventionHistoryDAO{db: db}
}

// CreateWithTx appends a status history row using a transaction
func (dao *InterventionHistoryDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, h *models.InterventionStatusHistory) error {
	query := `
		INSERT INTO intervention_status_history (
			intervention_id, status, change_date, notes, changed_by_user_id
		) VALUES (?, ?, NOW(), ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		h.InterventionID,
		h.Status,
		h.Notes,
		h.ChangedByUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create intervention status history: %w", err)
	}

	return nil
}

// GetByInterventionID retrieves all history rows for an intervention, newest first
func (dao *InterventionHistoryDAO) GetByInterventionID(ctx context.Context, interventionID int64) ([]models.InterventionStatusHistory, error) {
	query := `
		SELECT id, intervention_id, status, change_date, notes, changed_by_user_id
		FROM intervention_status_history
		WHERE intervention_id = ?
		ORDER BY change_date DESC, id DESC
	`

	var history []models.InterventionStatusHistory
	if err := dao.db.SelectContext(ctx, &history, query, interventionID); err != nil {
		return nil, fmt.Errorf("failed to get intervention status history: %w", err)
	}

	return history, nil
}
