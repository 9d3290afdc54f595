package dao

import (
	"context"
	"fmt"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// DoleanceHistoryDAO handles database operations for the doleance status
// history ledger. Rows are append-only: there is no update or delete.
type DoleanceHistoryDAO struct {
	db *database.DB
}

// NewDoleanceHistoryDAO creates a new DoleanceHistoryDAO instance
func NewDoleanceHistoryDAO(db *database.DB) *DoleanceHistoryDAO {
	return &DoleanceHistoryDAO{db: db}
}

// CreateWithTx appends a status history row using a transaction
func (dao *DoleanceHistoryDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, h *models.DoleanceStatusHistory) error {
	query := `
		INSERT INTO doleance_status_history (
			doleance_id, status, change_date, notes, is_public, changed_by_user_id
		) VALUES (?, ?, NOW(), ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		h.DoleanceID,
		h.Status,
		h.Notes,
		h.IsPublic,
		h.ChangedByUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to create doleance status history: %w", err)
	}

	return nil
}

// GetByDoleanceID retrieves all history rows for a doleance, newest first
func (dao *DoleanceHistoryDAO) GetByDoleanceID(ctx context.Context, doleanceID int64) ([]models.DoleanceStatusHistory, error) {
	query := `
		SELECT id, doleance_id, status, change_date, notes, is_public, changed_by_user_id
		FROM doleance_status_history
		WHERE doleance_id = ?
		ORDER BY change_date DESC, id DESC
	`

	var history []models.DoleanceStatusHistory
	if err := dao.db.SelectContext(ctx, &history, query, doleanceID); err != nil {
		return nil, fmt.Errorf("failed to get doleance status history: %w", err)
	}

	return history, nil
}
