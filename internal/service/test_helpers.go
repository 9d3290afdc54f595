package service

import (
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/cache"
	"github.com/opencommune/mairie-api/internal/dao"
	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/service/mocks"
)

// TestSetup contains common test dependencies backed by a sqlmock connection
type TestSetup struct {
	Mock       sqlmock.Sqlmock
	DB         *database.DB
	MockLedger *mocks.MockLedgerClient
	Logger     *logrus.Logger
}

// NewTestSetup creates a new test setup with a mocked database and ledger
func NewTestSetup() (*TestSetup, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return &TestSetup{
		Mock:       mock,
		DB:         database.NewFromSqlx(sqlx.NewDb(mockDB, "sqlmock"), logger),
		MockLedger: &mocks.MockLedgerClient{},
		Logger:     logger,
	}, nil
}

// NewDoleanceService wires a doleance service around the mocked dependencies.
// The cache runs with a nil Redis client, so every lookup is a miss.
func (ts *TestSetup) NewDoleanceService() *DoleanceService {
	return NewDoleanceService(
		dao.NewDoleanceDAO(ts.DB),
		dao.NewDoleanceHistoryDAO(ts.DB),
		dao.NewDoleanceAttachmentDAO(ts.DB),
		dao.NewAnchorDAO(ts.DB),
		ts.DB,
		ts.MockLedger,
		cache.NewPublicStatusCache(nil, time.Minute, ts.Logger),
		ts.Logger,
	)
}

// NewInterventionService wires an intervention service around the mocked
// dependencies
func (ts *TestSetup) NewInterventionService() *InterventionService {
	return NewInterventionService(
		dao.NewInterventionDAO(ts.DB),
		dao.NewInterventionHistoryDAO(ts.DB),
		dao.NewAnchorDAO(ts.DB),
		ts.DB,
		ts.MockLedger,
		ts.Logger,
	)
}

// Helper to create a pointer to a string
func strPtr(s string) *string {
	return &s
}

// Helper to create a pointer to an int64
func int64Ptr(i int64) *int64 {
	return &i
}

// Helper to create a pointer to a float64
func float64Ptr(f float64) *float64 {
	return &f
}

// Helper to create a pointer to a bool
func boolPtr(b bool) *bool {
	return &b
}
