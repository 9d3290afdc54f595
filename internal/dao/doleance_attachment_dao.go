package dao

import (
	"context"
	"fmt"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// DoleanceAttachmentDAO handles database operations for doleance attachments
type DoleanceAttachmentDAO struct {
	db *database.DB
}

// NewDoleanceAttachmentDAO creates a new DoleanceAttachmentDAO instance
func NewDoleanceAttachmentDAO(db *database.DB) *DoleanceAttachmentDAO {
	return &DoleanceAttachmentDAO{db: db}
}

// CreateWithTx inserts an attachment metadata row using a transaction
func (dao *DoleanceAttachmentDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, a *models.DoleanceAttachment) error {
	query := `
		INSERT INTO doleance_attachments (
			doleance_id, file_name, file_path, file_type, uploaded_at
		) VALUES (?, ?, ?, ?, NOW())
	`

	_, err := tx.ExecContext(ctx, query, a.DoleanceID, a.FileName, a.FilePath, a.FileType)
	if err != nil {
		return fmt.Errorf("failed to create doleance attachment: %w", err)
	}

	return nil
}

// GetByDoleanceID retrieves attachment metadata for a doleance
func (dao *DoleanceAttachmentDAO) GetByDoleanceID(ctx context.Context, doleanceID int64) ([]models.DoleanceAttachment, error) {
	query := `
		SELECT id, doleance_id, file_name, file_path, file_type, uploaded_at
		FROM doleance_attachments
		WHERE doleance_id = ?
		ORDER BY uploaded_at ASC, id ASC
	`

	var attachments []models.DoleanceAttachment
	if err := dao.db.SelectContext(ctx, &attachments, query, doleanceID); err != nil {
		return nil, fmt.Errorf("failed to get doleance attachments: %w", err)
	}

	return attachments, nil
}
