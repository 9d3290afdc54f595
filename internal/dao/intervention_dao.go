package dao

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// InterventionDAO handles database operations for interventions
type InterventionDAO struct {
	db *database.DB
}

// NewInterventionDAO creates a new InterventionDAO instance
func NewInterventionDAO(db *database.DB) *InterventionDAO {
	return &InterventionDAO{db: db}
}

const interventionColumns = `
	id, reference_code, title, description, intervention_type_id, status,
	priority, address, latitude, longitude, planned_start_date,
	planned_end_date, actual_start_date, actual_end_date, assigned_agent_id,
	estimated_cost, final_cost, cost_validated, originating_doleance_id,
	blockchain_tx_hash, creation_date, updated_at
`

// CreateWithTx inserts a new intervention using a transaction and returns its id
func (dao *InterventionDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, i *models.Intervention) (int64, error) {
	query := `
		INSERT INTO interventions (
			reference_code, title, description, intervention_type_id, status,
			priority, address, latitude, longitude, planned_start_date,
			planned_end_date, assigned_agent_id, estimated_cost,
			originating_doleance_id, creation_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		i.ReferenceCode,
		i.Title,
		i.Description,
		i.TypeID,
		i.Status,
		i.Priority,
		i.Address,
		i.Latitude,
		i.Longitude,
		i.PlannedStartDate,
		i.PlannedEndDate,
		i.AssignedAgentID,
		i.EstimatedCost,
		i.OriginatingDoleanceID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create intervention: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted intervention id: %w", err)
	}

	return id, nil
}

// GetByID retrieves an intervention by id
func (dao *InterventionDAO) GetByID(ctx context.Context, id int64) (*models.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE id = ?`

	var i models.Intervention
	err := dao.db.GetContext(ctx, &i, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("intervention %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get intervention: %w", err)
	}

	return &i, nil
}

// GetByIDForUpdate retrieves an intervention by id inside a transaction with
// a row lock, serializing concurrent updates to the same record.
func (dao *InterventionDAO) GetByIDForUpdate(ctx context.Context, tx *database.Transaction, id int64) (*models.Intervention, error) {
	query := `SELECT ` + interventionColumns + ` FROM interventions WHERE id = ? FOR UPDATE`

	var i models.Intervention
	err := tx.GetContext(ctx, &i, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("intervention %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get intervention for update: %w", err)
	}

	return &i, nil
}

// UpdateWithTx persists the mutable fields of an intervention using a transaction
func (dao *InterventionDAO) UpdateWithTx(ctx context.Context, tx *database.Transaction, i *models.Intervention) error {
	query := `
		UPDATE interventions
		SET title = ?, description = ?, intervention_type_id = ?, status = ?,
		    priority = ?, address = ?, latitude = ?, longitude = ?,
		    planned_start_date = ?, planned_end_date = ?,
		    actual_start_date = ?, actual_end_date = ?, assigned_agent_id = ?,
		    estimated_cost = ?, final_cost = ?, cost_validated = ?,
		    updated_at = NOW()
		WHERE id = ?
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		i.Title,
		i.Description,
		i.TypeID,
		i.Status,
		i.Priority,
		i.Address,
		i.Latitude,
		i.Longitude,
		i.PlannedStartDate,
		i.PlannedEndDate,
		i.ActualStartDate,
		i.ActualEndDate,
		i.AssignedAgentID,
		i.EstimatedCost,
		i.FinalCost,
		i.CostValidated,
		i.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update intervention: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("intervention %d: %w", i.ID, ErrNotFound)
	}

	return nil
}

// UpdateTxHash writes the latest ledger transaction hash back onto the
// record. Runs outside the business transaction; a failure here must not
// undo the committed update.
func (dao *InterventionDAO) UpdateTxHash(ctx context.Context, id int64, txHash string) error {
	query := `UPDATE interventions SET blockchain_tx_hash = ? WHERE id = ?`

	if _, err := dao.db.ExecContext(ctx, query, txHash, id); err != nil {
		return fmt.Errorf("failed to update intervention tx hash: %w", err)
	}

	return nil
}

// List retrieves interventions matching the filter plus the unfiltered total
func (dao *InterventionDAO) List(ctx context.Context, filter *models.InterventionListFilter) ([]models.Intervention, int, error) {
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
	if filter.TypeID != nil {
		whereClauses = append(whereClauses, "intervention_type_id = ?")
		args = append(args, *filter.TypeID)
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := `SELECT ` + interventionColumns + ` FROM interventions` + where + `
		ORDER BY creation_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	listArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)

	var items []models.Intervention
	if err := dao.db.SelectContext(ctx, &items, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list interventions: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM interventions` + where
	var total int
	if err := dao.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count interventions: %w", err)
	}

	return items, total, nil
}

// Delete removes an intervention; history cascades
func (dao *InterventionDAO) Delete(ctx context.Context, id int64) error {
	result, err := dao.db.ExecContext(ctx, `DELETE FROM interventions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete intervention: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("intervention %d: %w", id, ErrNotFound)
	}

	return nil
}
