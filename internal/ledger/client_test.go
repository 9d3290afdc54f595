package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencommune/mairie-api/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestRecordID_Deterministic(t *testing.T) {
	a := RecordID(FactDoleanceStatus, "DOL-2026-ABCDEF1234", StatusPayload("resolved"))
	b := RecordID(FactDoleanceStatus, "DOL-2026-ABCDEF1234", StatusPayload("resolved"))

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "0x"))
	assert.Len(t, a, 66)
}

func TestRecordID_DistinguishesFacts(t *testing.T) {
	statusID := RecordID(FactDoleanceStatus, "DOL-2026-ABCDEF1234", StatusPayload("closed"))
	createID := RecordID(FactDoleanceCreate, "DOL-2026-ABCDEF1234", StatusPayload("closed"))
	otherSubject := RecordID(FactDoleanceStatus, "DOL-2026-FEDCBA4321", StatusPayload("closed"))

	assert.NotEqual(t, statusID, createID)
	assert.NotEqual(t, statusID, otherSubject)
}

func TestNoopClient_ReturnsEmptyHash(t *testing.T) {
	client := NewNoopClient(testLogger())

	hash, err := client.RecordDoleanceCreation(context.Background(), "DOL-2026-ABCDEF1234", "0xdeadbeef")
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = client.RecordInterventionCost(context.Background(), "INT-2026-123456", 125050)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestNewClient_SelectsVariant(t *testing.T) {
	disabled := NewClient(&config.LedgerConfig{}, testLogger())
	_, ok := disabled.(*NoopClient)
	assert.True(t, ok)

	enabled := NewClient(&config.LedgerConfig{
		Endpoint:   "http://localhost:8085",
		SigningKey: "test-key",
	}, testLogger())
	_, ok = enabled.(*GatewayClient)
	assert.True(t, ok)
}

func TestGatewayClient_SimulateThenSubmit(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)

		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req transactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, FactDoleanceStatus, req.FactKind)
		assert.Equal(t, "DOL-2026-ABCDEF1234", req.Subject)

		if r.URL.Path == "/v1/transactions" {
			json.NewEncoder(w).Encode(transactionResponse{TxHash: "0xabc123"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewGatewayClient(&config.LedgerConfig{
		Endpoint:   server.URL,
		SigningKey: "test-key",
		ChainID:    1337,
		Timeout:    2 * time.Second,
	}, testLogger())

	hash, err := client.RecordDoleanceStatus(context.Background(), "DOL-2026-ABCDEF1234", "resolved")
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", hash)
	assert.Equal(t, []string{"/v1/transactions/simulate", "/v1/transactions"}, paths)
}

func TestGatewayClient_SimulationFailureAbortsSubmit(t *testing.T) {
	var simulations int
	var submitted bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/transactions/simulate" {
			simulations++
			http.Error(w, `{"errorCode":"REVERT"}`, http.StatusUnprocessableEntity)
			return
		}
		submitted = true
	}))
	defer server.Close()

	client := NewGatewayClient(&config.LedgerConfig{
		Endpoint:      server.URL,
		SigningKey:    "test-key",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
	}, testLogger())

	hash, err := client.RecordInterventionStatus(context.Background(), "INT-2026-123456", "completed")
	assert.Error(t, err)
	assert.Empty(t, hash)
	assert.False(t, submitted)
	// A gateway rejection is final: no second simulate despite the budget.
	assert.Equal(t, 1, simulations)
}

func TestGatewayClient_RetriesOnTransportError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/transactions/simulate" {
			attempts++
			if attempts == 1 {
				http.Error(w, "busy", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(transactionResponse{TxHash: "0xretry"})
	}))
	defer server.Close()

	client := NewGatewayClient(&config.LedgerConfig{
		Endpoint:      server.URL,
		SigningKey:    "test-key",
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
	}, testLogger())

	hash, err := client.RecordInterventionCost(context.Background(), "INT-2026-123456", 99900)
	require.NoError(t, err)
	assert.Equal(t, "0xretry", hash)
	assert.Equal(t, 2, attempts)
}
