package dao

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// DoleanceDAO handles database operations for doleances
type DoleanceDAO struct {
	db *database.DB
}

// NewDoleanceDAO creates a new DoleanceDAO instance
func NewDoleanceDAO(db *database.DB) *DoleanceDAO {
	return &DoleanceDAO{db: db}
}

const doleanceColumns = `
	id, reference_code, description, doleance_category_id, address, latitude,
	longitude, is_anonymous, submitter_name, submitter_email, submitter_phone,
	submitter_ip_address, status, priority, assigned_agent_id,
	resolution_details, linked_intervention_id, submission_date, closure_date,
	initial_description_hash, blockchain_tx_hash, updated_at
`

// CreateWithTx inserts a new doleance using a transaction and returns its id
func (dao *DoleanceDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, d *models.Doleance) (int64, error) {
	query := `
		INSERT INTO doleances (
			reference_code, description, doleance_category_id, address, latitude,
			longitude, is_anonymous, submitter_name, submitter_email,
			submitter_phone, submitter_ip_address, status, priority,
			initial_description_hash, submission_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		d.ReferenceCode,
		d.Description,
		d.CategoryID,
		d.Address,
		d.Latitude,
		d.Longitude,
		d.IsAnonymous,
		d.SubmitterName,
		d.SubmitterEmail,
		d.SubmitterPhone,
		d.SubmitterIPAddress,
		d.Status,
		d.Priority,
		d.InitialDescriptionHash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create doleance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted doleance id: %w", err)
	}

	return id, nil
}

// GetByID retrieves a doleance by id
func (dao *DoleanceDAO) GetByID(ctx context.Context, id int64) (*models.Doleance, error) {
	query := `SELECT ` + doleanceColumns + ` FROM doleances WHERE id = ?`

	var d models.Doleance
	err := dao.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("doleance %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get doleance: %w", err)
	}

	return &d, nil
}

// GetByIDForUpdate retrieves a doleance by id inside a transaction with a
// row lock, serializing concurrent updates to the same record.
func (dao *DoleanceDAO) GetByIDForUpdate(ctx context.Context, tx *database.Transaction, id int64) (*models.Doleance, error) {
	query := `SELECT ` + doleanceColumns + ` FROM doleances WHERE id = ? FOR UPDATE`

	var d models.Doleance
	err := tx.GetContext(ctx, &d, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("doleance %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get doleance for update: %w", err)
	}

	return &d, nil
}

// UpdateWithTx persists the mutable fields of a doleance using a transaction
func (dao *DoleanceDAO) UpdateWithTx(ctx context.Context, tx *database.Transaction, d *models.Doleance) error {
	query := `
		UPDATE doleances
		SET status = ?, priority = ?, assigned_agent_id = ?,
		    resolution_details = ?, linked_intervention_id = ?,
		    doleance_category_id = ?, closure_date = ?, updated_at = NOW()
		WHERE id = ?
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		d.Status,
		d.Priority,
		d.AssignedAgentID,
		d.ResolutionDetails,
		d.LinkedInterventionID,
		d.CategoryID,
		d.ClosureDate,
		d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doleance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("doleance %d: %w", d.ID, ErrNotFound)
	}

	return nil
}

// UpdateTxHash writes the latest ledger transaction hash back onto the
// record. Runs outside the business transaction; a failure here must not
// undo the committed update.
func (dao *DoleanceDAO) UpdateTxHash(ctx context.Context, id int64, txHash string) error {
	query := `UPDATE doleances SET blockchain_tx_hash = ? WHERE id = ?`

	if _, err := dao.db.ExecContext(ctx, query, txHash, id); err != nil {
		return fmt.Errorf("failed to update doleance tx hash: %w", err)
	}

	return nil
}

// List retrieves doleances matching the filter plus the unfiltered total
func (dao *DoleanceDAO) List(ctx context.Context, filter *models.DoleanceListFilter) ([]models.DoleanceListItem, int, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		whereClauses = append(whereClauses, "priority = ?")
		args = append(args, filter.Priority)
	}
	if filter.CategoryID != nil {
		whereClauses = append(whereClauses, "doleance_category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.AssignedAgentID != nil {
		whereClauses = append(whereClauses, "assigned_agent_id = ?")
		args = append(args, *filter.AssignedAgentID)
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := `
		SELECT id, reference_code, LEFT(description, 100) AS description,
		       status, priority, submission_date, address
		FROM doleances` + where + `
		ORDER BY submission_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	listArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)

	var items []models.DoleanceListItem
	if err := dao.db.SelectContext(ctx, &items, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list doleances: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM doleances` + where
	var total int
	if err := dao.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count doleances: %w", err)
	}

	return items, total, nil
}

// Delete removes a doleance; history and attachments cascade
func (dao *DoleanceDAO) Delete(ctx context.Context, id int64) error {
	result, err := dao.db.ExecContext(ctx, `DELETE FROM doleances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete doleance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("doleance %d: %w", id, ErrNotFound)
	}

	return nil
}

// GetPublicStatus answers the public tracking lookup for a reference code.
// It joins the record with its most recent public history row; when the
// record exists without any public history yet, an implicit "received"
// payload is synthesized from the submission date.
func (dao *DoleanceDAO) GetPublicStatus(ctx context.Context, referenceCode string) (*models.DoleancePublicStatus, error) {
	query := `
		SELECT d.reference_code, d.submission_date, dsh.status,
		       dsh.change_date AS last_update_date, dsh.notes AS public_notes
		FROM doleances d
		JOIN (
			SELECT doleance_id, status, change_date, notes,
			       ROW_NUMBER() OVER (PARTITION BY doleance_id ORDER BY change_date DESC) AS rn
			FROM doleance_status_history
			WHERE is_public = TRUE
		) dsh ON d.id = dsh.doleance_id AND dsh.rn = 1
		WHERE d.reference_code = ?
	`

	var status models.DoleancePublicStatus
	err := dao.db.GetContext(ctx, &status, query, referenceCode)
	if err == nil {
		return &status, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get public status: %w", err)
	}

	// No public history yet; the record may still exist.
	var fallback models.DoleancePublicStatus
	checkQuery := `SELECT reference_code, submission_date FROM doleances WHERE reference_code = ?`
	err = dao.db.GetContext(ctx, &fallback, checkQuery, referenceCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("reference code %s: %w", referenceCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to check reference code: %w", err)
	}

	notes := "Votre signalement a bien été reçu et est en attente de traitement."
	fallback.Status = "Reçu"
	fallback.LastUpdateDate = fallback.SubmissionDate
	fallback.PublicNotes = &notes

	return &fallback, nil
}
