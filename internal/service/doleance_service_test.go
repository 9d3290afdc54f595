package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/models"
)

var doleanceTestColumns = []string{
	"id", "reference_code", "description", "doleance_category_id", "address",
	"latitude", "longitude", "is_anonymous", "submitter_name",
	"submitter_email", "submitter_phone", "submitter_ip_address", "status",
	"priority", "assigned_agent_id", "resolution_details",
	"linked_intervention_id", "submission_date", "closure_date",
	"initial_description_hash", "blockchain_tx_hash", "updated_at",
}

func doleanceRow(id int64, status string, closureDate interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(doleanceTestColumns).AddRow(
		id, "DOL-2026-ABCDEF1234", "Nid de poule Rue X", nil, nil,
		nil, nil, false, nil,
		nil, nil, nil, status,
		models.PriorityMedium, nil, nil,
		nil, now, closureDate,
		"0xhash", nil, now,
	)
}

func TestDoleanceUpdate_PublicStatusChangeAnchored(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusAssigned, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WithArgs(int64(1), models.DoleanceStatusResolved,
			"Statut changé de assigned à resolved", true, nil).
		WillReturnResult(sqlmock.NewResult(10, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordDoleanceStatus", mock.Anything, "DOL-2026-ABCDEF1234", models.DoleanceStatusResolved).
		Return("0xtx42", nil)

	ts.Mock.ExpectExec("UPDATE doleances SET blockchain_tx_hash").
		WithArgs("0xtx42", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.DoleanceStatusResolved
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.DoleanceStatusResolved, updated.Status)
	require.NotNil(t, updated.BlockchainTxHash)
	assert.Equal(t, "0xtx42", *updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
	ts.MockLedger.AssertExpectations(t)
}

func TestDoleanceUpdate_LedgerFailureKeepsCommittedUpdate(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusInReview, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WillReturnResult(sqlmock.NewResult(10, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordDoleanceStatus", mock.Anything, "DOL-2026-ABCDEF1234", models.DoleanceStatusResolved).
		Return("", errors.New("gateway unreachable"))

	status := models.DoleanceStatusResolved
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.DoleanceStatusResolved, updated.Status)
	assert.Nil(t, updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_InternalStatusNotAnchored(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusReceived, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WithArgs(int64(1), models.DoleanceStatusInReview,
			"Statut changé de received à in_review", false, nil).
		WillReturnResult(sqlmock.NewResult(10, 1))
	ts.Mock.ExpectCommit()

	status := models.DoleanceStatusInReview
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.DoleanceStatusInReview, updated.Status)
	ts.MockLedger.AssertNotCalled(t, "RecordDoleanceStatus")
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_TerminalStatusSetsClosureDate(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusResolved, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WillReturnResult(sqlmock.NewResult(10, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordDoleanceStatus", mock.Anything, "DOL-2026-ABCDEF1234", models.DoleanceStatusClosed).
		Return("", nil)

	status := models.DoleanceStatusClosed
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	require.NotNil(t, updated.ClosureDate)
	assert.WithinDuration(t, time.Now(), *updated.ClosureDate, 5*time.Second)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_RepeatedTerminalStatusBackfillsClosureDate(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	// Already closed but closure_date was never set: re-sending the same
	// terminal status derives it from the patched value.
	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusClosed, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectCommit()

	status := models.DoleanceStatusClosed
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	require.NotNil(t, updated.ClosureDate)
	assert.WithinDuration(t, time.Now(), *updated.ClosureDate, 5*time.Second)
	ts.MockLedger.AssertNotCalled(t, "RecordDoleanceStatus")
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_ReopeningClearsClosureDate(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	closed := time.Now().Add(-24 * time.Hour)
	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusClosed, closed))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WillReturnResult(sqlmock.NewResult(10, 1))
	ts.Mock.ExpectCommit()

	status := models.DoleanceStatusInReview
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &status})

	require.NoError(t, err)
	assert.Nil(t, updated.ClosureDate)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_SameStatusSkipsHistory(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(1)).
		WillReturnRows(doleanceRow(1, models.DoleanceStatusResolved, nil))
	ts.Mock.ExpectExec("UPDATE doleances SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectCommit()

	status := models.DoleanceStatusResolved
	priority := models.PriorityHigh
	updated, err := svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{
		Status:   &status,
		Priority: &priority,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	ts.MockLedger.AssertNotCalled(t, "RecordDoleanceStatus")
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceUpdate_NotFound(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM doleances WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(doleanceTestColumns))
	ts.Mock.ExpectRollback()

	status := models.DoleanceStatusClosed
	_, err = svc.Update(context.Background(), 99, &models.DoleanceUpdateRequest{Status: &status})

	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestDoleanceUpdate_RejectsEmptyPatch(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	_, err = svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	badStatus := "paused"
	_, err = svc.Update(context.Background(), 1, &models.DoleanceUpdateRequest{Status: &badStatus})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDoleanceCreate_AnchorsDescriptionHash(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectExec("INSERT INTO doleances").
		WillReturnResult(sqlmock.NewResult(7, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WithArgs(int64(7), models.DoleanceStatusReceived, "Signalement reçu.", true, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordDoleanceCreation", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return("0xcreate", nil)

	ts.Mock.ExpectExec("UPDATE doleances SET blockchain_tx_hash").
		WithArgs("0xcreate", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	response, err := svc.Create(context.Background(), &models.DoleanceCreateRequest{
		Description: "Nid de poule Rue X",
		IsAnonymous: true,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(7), response.DoleanceID)
	assert.Regexp(t, regexp.MustCompile(`^DOL-\d{4}-[0-9A-F]{6}\d{4}$`), response.ReferenceCode)
	require.NotNil(t, response.BlockchainTxHash)
	assert.Equal(t, "0xcreate", *response.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceCreate_RetriesOnReferenceCollision(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectExec("INSERT INTO doleances").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	ts.Mock.ExpectRollback()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectExec("INSERT INTO doleances").
		WillReturnResult(sqlmock.NewResult(8, 1))
	ts.Mock.ExpectExec("INSERT INTO doleance_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordDoleanceCreation", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return("", nil)

	response, err := svc.Create(context.Background(), &models.DoleanceCreateRequest{
		Description: "Lampadaire cassé",
		IsAnonymous: true,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(8), response.DoleanceID)
	assert.Nil(t, response.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestDoleanceCreate_RejectsEmptyDescription(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	_, err = svc.Create(context.Background(), &models.DoleanceCreateRequest{}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDoleanceGetPublicStatus_FallsBackToReceived(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	submitted := time.Now().Add(-time.Hour)
	ts.Mock.ExpectQuery("SELECT d.reference_code").
		WithArgs("DOL-2026-ABCDEF1234").
		WillReturnRows(sqlmock.NewRows([]string{"reference_code", "submission_date", "status", "last_update_date", "public_notes"}))
	ts.Mock.ExpectQuery("SELECT reference_code, submission_date FROM doleances").
		WithArgs("DOL-2026-ABCDEF1234").
		WillReturnRows(sqlmock.NewRows([]string{"reference_code", "submission_date"}).
			AddRow("DOL-2026-ABCDEF1234", submitted))

	status, err := svc.GetPublicStatus(context.Background(), "DOL-2026-ABCDEF1234")

	require.NoError(t, err)
	assert.Equal(t, "Reçu", status.Status)
	assert.Equal(t, status.SubmissionDate, status.LastUpdateDate)
	require.NotNil(t, status.PublicNotes)
	assert.Equal(t, "Votre signalement a bien été reçu et est en attente de traitement.", *status.PublicNotes)
}

func TestDoleanceGetPublicStatus_UnknownCode(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewDoleanceService()

	ts.Mock.ExpectQuery("SELECT d.reference_code").
		WithArgs("DOL-2026-000000FFFF").
		WillReturnRows(sqlmock.NewRows([]string{"reference_code", "submission_date", "status", "last_update_date", "public_notes"}))
	ts.Mock.ExpectQuery("SELECT reference_code, submission_date FROM doleances").
		WithArgs("DOL-2026-000000FFFF").
		WillReturnRows(sqlmock.NewRows([]string{"reference_code", "submission_date"}))

	_, err = svc.GetPublicStatus(context.Background(), "DOL-2026-000000FFFF")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
