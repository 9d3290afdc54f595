package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// CommissionDAO handles database operations for commissions
type CommissionDAO struct {
	db *database.DB
}

// NewCommissionDAO creates a new CommissionDAO instance
func NewCommissionDAO(db *database.DB) *CommissionDAO {
	return &CommissionDAO{db: db}
}

// Create inserts a new commission and returns its id
func (dao *CommissionDAO) Create(ctx context.Context, c *models.Commission) (int64, error) {
	query := `
		INSERT INTO commissions (name, description, status, creation_date)
		VALUES (?, ?, ?, NOW())
	`

	result, err := dao.db.ExecContext(ctx, query, c.Name, c.Description, c.Status)
	if err != nil {
		return 0, fmt.Errorf("failed to create commission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted commission id: %w", err)
	}

	return id, nil
}

// GetByID retrieves a commission by id
func (dao *CommissionDAO) GetByID(ctx context.Context, id int64) (*models.Commission, error) {
	query := `SELECT id, name, description, status, creation_date FROM commissions WHERE id = ?`

	var c models.Commission
	err := dao.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("commission %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	return &c, nil
}

// List retrieves all commissions ordered by name
func (dao *CommissionDAO) List(ctx context.Context) ([]models.Commission, error) {
	query := `SELECT id, name, description, status, creation_date FROM commissions ORDER BY name ASC`

	var commissions []models.Commission
	if err := dao.db.SelectContext(ctx, &commissions, query); err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", err)
	}

	return commissions, nil
}

// Update persists the mutable fields of a commission
func (dao *CommissionDAO) Update(ctx context.Context, c *models.Commission) error {
	query := `UPDATE commissions SET name = ?, description = ?, status = ? WHERE id = ?`

	result, err := dao.db.ExecContext(ctx, query, c.Name, c.Description, c.Status, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update commission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("commission %d: %w", c.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a commission
func (dao *CommissionDAO) Delete(ctx context.Context, id int64) error {
	result, err := dao.db.ExecContext(ctx, `DELETE FROM commissions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete commission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("commission %d: %w", id, ErrNotFound)
	}

	return nil
}
