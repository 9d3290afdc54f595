package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/models"
)

func newMockDB(t *testing.T) (*database.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return database.NewFromSqlx(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}

func TestDoleanceDAO_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewDoleanceDAO(db)

	mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = ").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := dao.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoleanceDAO_UpdateWithTx_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewDoleanceDAO(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tx, err := db.BeginTx(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()

	err = dao.UpdateWithTx(context.Background(), tx, &models.Doleance{ID: 42})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDoleanceDAO_List_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewDoleanceDAO(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, reference_code, LEFT\\(description, 100\\)").
		WithArgs("received", "high", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "reference_code", "description", "status", "priority",
			"submission_date", "address",
		}).AddRow(1, "DOL-2026-ABCDEF1234", "Nid de poule", "received", "high", now, nil))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM doleances").
		WithArgs("received", "high").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	items, total, err := dao.List(context.Background(), &models.DoleanceListFilter{
		Status:   "received",
		Priority: "high",
		Limit:    10,
		Offset:   0,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "DOL-2026-ABCDEF1234", items[0].ReferenceCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoleanceDAO_GetPublicStatus_UsesLatestPublicRow(t *testing.T) {
	db, mock := newMockDB(t)
	dao := NewDoleanceDAO(db)

	now := time.Now()
	notes := "Statut changé de assigned à resolved"
	mock.ExpectQuery("SELECT d.reference_code").
		WithArgs("DOL-2026-ABCDEF1234").
		WillReturnRows(sqlmock.NewRows([]string{
			"reference_code", "submission_date", "status", "last_update_date", "public_notes",
		}).AddRow("DOL-2026-ABCDEF1234", now.Add(-48*time.Hour), "resolved", now, notes))

	status, err := dao.GetPublicStatus(context.Background(), "DOL-2026-ABCDEF1234")

	require.NoError(t, err)
	assert.Equal(t, "resolved", status.Status)
	require.NotNil(t, status.PublicNotes)
	assert.Equal(t, notes, *status.PublicNotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateEntry(t *testing.T) {
	assert.False(t, IsDuplicateEntry(nil))
	assert.False(t, IsDuplicateEntry(ErrNotFound))

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.True(t, IsDuplicateEntry(dup))
	assert.True(t, IsDuplicateEntry(fmt.Errorf("failed to create doleance: %w", dup)))
	assert.False(t, IsDuplicateEntry(&mysql.MySQLError{Number: 1452}))
}
