package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Fact kinds anchored on the ledger
const (
	FactDoleanceCreate     = "doleance_create"
	FactDoleanceStatus     = "doleance_status"
	FactInterventionStatus = "intervention_status"
	FactInterventionCost   = "intervention_cost"
)

// Client writes immutable facts to the municipal ledger. Implementations
// return the ledger transaction hash for a successful write. Callers treat
// any error as non-fatal: the relational commit is already durable by the
// time an anchor is attempted.
type Client interface {
	// RecordDoleanceCreation anchors the initial description hash of a
	// new doleance, keyed by its reference code.
	RecordDoleanceCreation(ctx context.Context, referenceCode, descriptionHash string) (string, error)

	// RecordDoleanceStatus anchors a public status change of a doleance.
	RecordDoleanceStatus(ctx context.Context, referenceCode, status string) (string, error)

	// RecordInterventionStatus anchors a critical status change of an
	// intervention.
	RecordInterventionStatus(ctx context.Context, referenceCode, status string) (string, error)

	// RecordInterventionCost anchors a validated final cost, expressed in
	// minor currency units.
	RecordInterventionCost(ctx context.Context, referenceCode string, costCents int64) (string, error)
}

// RecordID derives the deterministic ledger record identifier for a fact.
// The same fact always maps to the same id, so a retried write lands on the
// same ledger record instead of creating a duplicate.
func RecordID(factKind, subjectRef, payload string) string {
	sum := sha256.Sum256([]byte(factKind + "|" + subjectRef + "|" + payload))
	return "0x" + hex.EncodeToString(sum[:])
}

// StatusPayload builds the anchored payload for a status fact
func StatusPayload(status string) string {
	return "status:" + status
}

// CostPayload builds the anchored payload for a cost fact
func CostPayload(costCents int64) string {
	return fmt.Sprintf("cost_cents:%d", costCents)
}

// NoopClient is the explicit disabled variant used when no ledger signing
// key is configured. Every write succeeds with an empty transaction hash.
type NoopClient struct {
	logger *logrus.Logger
}

// NewNoopClient creates a disabled ledger client
func NewNoopClient(logger *logrus.Logger) *NoopClient {
	return &NoopClient{logger: logger}
}

func (c *NoopClient) RecordDoleanceCreation(ctx context.Context, referenceCode, descriptionHash string) (string, error) {
	c.logger.WithField("referenceCode", referenceCode).Debug("Ledger disabled, skipping doleance creation anchor")
	return "", nil
}

func (c *NoopClient) RecordDoleanceStatus(ctx context.Context, referenceCode, status string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"referenceCode": referenceCode,
		"status":        status,
	}).Debug("Ledger disabled, skipping doleance status anchor")
	return "", nil
}

func (c *NoopClient) RecordInterventionStatus(ctx context.Context, referenceCode, status string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"referenceCode": referenceCode,
		"status":        status,
	}).Debug("Ledger disabled, skipping intervention status anchor")
	return "", nil
}

func (c *NoopClient) RecordInterventionCost(ctx context.Context, referenceCode string, costCents int64) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"referenceCode": referenceCode,
		"costCents":     costCents,
	}).Debug("Ledger disabled, skipping intervention cost anchor")
	return "", nil
}
