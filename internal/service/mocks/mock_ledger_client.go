package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLedgerClient is a mock implementation of ledger.Client
type MockLedgerClient struct {
	mock.Mock
}

func (m *MockLedgerClient) RecordDoleanceCreation(ctx context.Context, referenceCode, descriptionHash string) (string, error) {
	args := m.Called(ctx, referenceCode, descriptionHash)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) RecordDoleanceStatus(ctx context.Context, referenceCode, status string) (string, error) {
	args := m.Called(ctx, referenceCode, status)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) RecordInterventionStatus(ctx context.Context, referenceCode, status string) (string, error) {
	args := m.Called(ctx, referenceCode, status)
	return args.String(0), args.Error(1)
}

func (m *MockLedgerClient) RecordInterventionCost(ctx context.Context, referenceCode string, costCents int64) (string, error) {
	args := m.Called(ctx, referenceCode, costCents)
	return args.String(0), args.Error(1)
}
