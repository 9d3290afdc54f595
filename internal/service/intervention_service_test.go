package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opencommune/mairie-api/internal/models"
)

var interventionTestColumns = []string{
	"id", "reference_code", "title", "description", "intervention_type_id",
	"status", "priority", "address", "latitude", "longitude",
	"planned_start_date", "planned_end_date", "actual_start_date",
	"actual_end_date", "assigned_agent_id", "estimated_cost", "final_cost",
	"cost_validated", "originating_doleance_id", "blockchain_tx_hash",
	"creation_date", "updated_at",
}

func interventionRow(id int64, status string, finalCost interface{}, costValidated bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(interventionTestColumns).AddRow(
		id, "INT-2026-123456", "Rebouchage chaussée", "Nid de poule Rue X", nil,
		status, models.PriorityMedium, nil, nil, nil,
		nil, nil, nil,
		nil, nil, nil, finalCost,
		costValidated, nil, nil,
		now, now,
	)
}

func TestInterventionCreate_SeedsHistory(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectExec("INSERT INTO interventions").
		WillReturnResult(sqlmock.NewResult(3, 1))
	ts.Mock.ExpectExec("INSERT INTO intervention_status_history").
		WithArgs(int64(3), models.InterventionStatusCreated, "Intervention créée", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	intervention, err := svc.Create(context.Background(), &models.InterventionCreateRequest{
		Title:       "Rebouchage chaussée",
		Description: "Nid de poule Rue X",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(3), intervention.ID)
	assert.Equal(t, models.InterventionStatusCreated, intervention.Status)
	assert.Equal(t, models.PriorityMedium, intervention.Priority)
	assert.Regexp(t, regexp.MustCompile(`^INT-\d{4}-\d{6}$`), intervention.ReferenceCode)
	ts.MockLedger.AssertNotCalled(t, "RecordInterventionStatus")
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestInterventionUpdate_CriticalStatusAnchored(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM interventions WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(interventionRow(3, models.InterventionStatusAssigned, nil, false))
	ts.Mock.ExpectExec("UPDATE interventions SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO intervention_status_history").
		WithArgs(int64(3), models.InterventionStatusCompleted,
			"Statut changé de assigned à completed", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordInterventionStatus", mock.Anything, "INT-2026-123456", models.InterventionStatusCompleted).
		Return("0xstatus", nil)

	ts.Mock.ExpectExec("UPDATE interventions SET blockchain_tx_hash").
		WithArgs("0xstatus", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.InterventionStatusCompleted
	updated, err := svc.Update(context.Background(), 3, &models.InterventionUpdateRequest{Status: &status})

	require.NoError(t, err)
	require.NotNil(t, updated.BlockchainTxHash)
	assert.Equal(t, "0xstatus", *updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
	ts.MockLedger.AssertExpectations(t)
}

func TestInterventionUpdate_CostValidationAnchorsMinorUnits(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM interventions WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(interventionRow(3, models.InterventionStatusCompleted, nil, false))
	ts.Mock.ExpectExec("UPDATE interventions SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordInterventionCost", mock.Anything, "INT-2026-123456", int64(125050)).
		Return("0xcost", nil)

	ts.Mock.ExpectExec("UPDATE interventions SET blockchain_tx_hash").
		WithArgs("0xcost", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := svc.Update(context.Background(), 3, &models.InterventionUpdateRequest{
		FinalCost:     float64Ptr(1250.50),
		CostValidated: boolPtr(true),
	})

	require.NoError(t, err)
	require.NotNil(t, updated.BlockchainTxHash)
	assert.Equal(t, "0xcost", *updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
	ts.MockLedger.AssertExpectations(t)
}

func TestInterventionUpdate_AlreadyValidatedCostNotReanchored(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM interventions WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(interventionRow(3, models.InterventionStatusValidated, 1250.50, true))
	ts.Mock.ExpectExec("UPDATE interventions SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectCommit()

	updated, err := svc.Update(context.Background(), 3, &models.InterventionUpdateRequest{
		CostValidated: boolPtr(true),
	})

	require.NoError(t, err)
	assert.True(t, updated.CostValidated)
	ts.MockLedger.AssertNotCalled(t, "RecordInterventionCost")
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestInterventionUpdate_StatusAndCostLastWriteWins(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM interventions WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(interventionRow(3, models.InterventionStatusCompleted, nil, false))
	ts.Mock.ExpectExec("UPDATE interventions SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO intervention_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordInterventionStatus", mock.Anything, "INT-2026-123456", models.InterventionStatusValidated).
		Return("0xstatus", nil)
	ts.MockLedger.On("RecordInterventionCost", mock.Anything, "INT-2026-123456", int64(99900)).
		Return("0xcost", nil)

	// Status anchor reconciles first, then the cost anchor overwrites the
	// scalar hash. Both land in the anchor journal.
	ts.Mock.ExpectExec("UPDATE interventions SET blockchain_tx_hash").
		WithArgs("0xstatus", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("UPDATE interventions SET blockchain_tx_hash").
		WithArgs("0xcost", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO ledger_anchors").
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := models.InterventionStatusValidated
	updated, err := svc.Update(context.Background(), 3, &models.InterventionUpdateRequest{
		Status:        &status,
		FinalCost:     float64Ptr(999.00),
		CostValidated: boolPtr(true),
	})

	require.NoError(t, err)
	require.NotNil(t, updated.BlockchainTxHash)
	assert.Equal(t, "0xcost", *updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
	ts.MockLedger.AssertExpectations(t)
}

func TestInterventionUpdate_LedgerFailureKeepsCommittedUpdate(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	ts.Mock.ExpectBegin()
	ts.Mock.ExpectQuery("SELECT (.+) FROM interventions WHERE id = (.+) FOR UPDATE").
		WithArgs(int64(3)).
		WillReturnRows(interventionRow(3, models.InterventionStatusInProgress, nil, false))
	ts.Mock.ExpectExec("UPDATE interventions SET title").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ts.Mock.ExpectExec("INSERT INTO intervention_status_history").
		WillReturnResult(sqlmock.NewResult(1, 1))
	ts.Mock.ExpectCommit()

	ts.MockLedger.On("RecordInterventionStatus", mock.Anything, "INT-2026-123456", models.InterventionStatusCompleted).
		Return("", errors.New("gateway timeout"))

	status := models.InterventionStatusCompleted
	updated, err := svc.Update(context.Background(), 3, &models.InterventionUpdateRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.InterventionStatusCompleted, updated.Status)
	assert.Nil(t, updated.BlockchainTxHash)
	assert.NoError(t, ts.Mock.ExpectationsWereMet())
}

func TestInterventionCreate_RejectsMissingFields(t *testing.T) {
	ts, err := NewTestSetup()
	require.NoError(t, err)
	svc := ts.NewInterventionService()

	_, err = svc.Create(context.Background(), &models.InterventionCreateRequest{Description: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), &models.InterventionCreateRequest{Title: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}
