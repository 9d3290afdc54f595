package dao

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

// DeliberationDAO handles database operations for published deliberations
type DeliberationDAO struct {
	db *database.DB
}

// NewDeliberationDAO creates a new DeliberationDAO instance
func NewDeliberationDAO(db *database.DB) *DeliberationDAO {
	return &DeliberationDAO{db: db}
}

const deliberationColumns = `
	id, title, reference_code, session_date, summary, status, document_path
`

// GetByID retrieves a deliberation by id
func (dao *DeliberationDAO) GetByID(ctx context.Context, id int64) (*models.Deliberation, error) {
	query := `SELECT ` + deliberationColumns + ` FROM deliberations WHERE id = ?`

	var d models.Deliberation
	err := dao.db.GetContext(ctx, &d, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("deliberation %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get deliberation: %w", err)
	}

	return &d, nil
}

// Search retrieves deliberations matching the filter plus the unfiltered
// total. The search term matches title, summary and reference code.
func (dao *DeliberationDAO) Search(ctx context.Context, filter *models.DeliberationListFilter) ([]models.Deliberation, int, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.SearchTerm != "" {
		whereClauses = append(whereClauses, "(title LIKE ? OR summary LIKE ? OR reference_code LIKE ?)")
		like := "%" + filter.SearchTerm + "%"
		args = append(args, like, like, like)
	}
	if filter.Year > 0 {
		whereClauses = append(whereClauses, "YEAR(session_date) = ?")
		args = append(args, filter.Year)
	}
	if filter.Status != "" {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(whereClauses) > 0 {
		where = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query := `SELECT ` + deliberationColumns + ` FROM deliberations` + where + `
		ORDER BY session_date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	listArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)

	var items []models.Deliberation
	if err := dao.db.SelectContext(ctx, &items, query, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to search deliberations: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM deliberations` + where
	var total int
	if err := dao.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count deliberations: %w", err)
	}

	return items, total, nil
}

// Create inserts a new deliberation and returns its id
func (dao *DeliberationDAO) Create(ctx context.Context, d *models.Deliberation) (int64, error) {
	query := `
		INSERT INTO deliberations (title, reference_code, session_date, summary, status, document_path)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := dao.db.ExecContext(
		ctx,
		query,
		d.Title,
		d.ReferenceCode,
		d.SessionDate,
		d.Summary,
		d.Status,
		d.DocumentPath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create deliberation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted deliberation id: %w", err)
	}

	return id, nil
}
