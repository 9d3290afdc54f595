package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/config"
)

// GatewayClient talks to the ledger gateway over HTTP. Each anchor is a
// simulate call followed by a submit call; the gateway handles signing,
// nonce management and gas on its side.
type GatewayClient struct {
	httpClient *http.Client
	config     *config.LedgerConfig
	logger     *logrus.Logger
}

// transactionRequest is the payload for both the simulate and submit endpoints
type transactionRequest struct {
	ChainID  int    `json:"chainId"`
	RecordID string `json:"recordId"`
	FactKind string `json:"factKind"`
	Subject  string `json:"subject"`
	Payload  string `json:"payload"`
}

// transactionResponse is returned by the submit endpoint
type transactionResponse struct {
	TxHash       string `json:"txHash"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// retriableError marks failures worth another simulate+submit attempt:
// transport errors and 5xx availability responses. Gateway-level rejections
// (4xx, including simulation reverts) are final.
type retriableError struct {
	err error
}

func (e *retriableError) Error() string { return e.err.Error() }
func (e *retriableError) Unwrap() error { return e.err }

// NewGatewayClient creates a ledger gateway client instance
func NewGatewayClient(cfg *config.LedgerConfig, logger *logrus.Logger) *GatewayClient {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &GatewayClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		config: cfg,
		logger: logger,
	}
}

// NewClient returns the gateway client when signing is configured and the
// no-op variant otherwise. Callers never branch on configuration themselves.
func NewClient(cfg *config.LedgerConfig, logger *logrus.Logger) Client {
	if cfg.IsSigningConfigured() {
		return NewGatewayClient(cfg, logger)
	}
	logger.Info("Ledger signing not configured, anchoring disabled")
	return NewNoopClient(logger)
}

func (c *GatewayClient) RecordDoleanceCreation(ctx context.Context, referenceCode, descriptionHash string) (string, error) {
	return c.anchor(ctx, FactDoleanceCreate, referenceCode, descriptionHash)
}

func (c *GatewayClient) RecordDoleanceStatus(ctx context.Context, referenceCode, status string) (string, error) {
	return c.anchor(ctx, FactDoleanceStatus, referenceCode, StatusPayload(status))
}

func (c *GatewayClient) RecordInterventionStatus(ctx context.Context, referenceCode, status string) (string, error) {
	return c.anchor(ctx, FactInterventionStatus, referenceCode, StatusPayload(status))
}

func (c *GatewayClient) RecordInterventionCost(ctx context.Context, referenceCode string, costCents int64) (string, error) {
	return c.anchor(ctx, FactInterventionCost, referenceCode, CostPayload(costCents))
}

// anchor simulates and then submits one ledger transaction, retrying the
// whole sequence on transport errors only. A simulate failure aborts the
// attempt before anything is spent on the chain, and a gateway rejection is
// never retried.
func (c *GatewayClient) anchor(ctx context.Context, factKind, subjectRef, payload string) (string, error) {
	request := &transactionRequest{
		ChainID:  c.config.ChainID,
		RecordID: RecordID(factKind, subjectRef, payload),
		FactKind: factKind,
		Subject:  subjectRef,
		Payload:  payload,
	}

	attempts := c.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.post(ctx, "/v1/transactions/simulate", request, nil); err != nil {
			lastErr = fmt.Errorf("simulation failed: %w", err)
		} else {
			var response transactionResponse
			if err := c.post(ctx, "/v1/transactions", request, &response); err != nil {
				lastErr = fmt.Errorf("submission failed: %w", err)
			} else if response.TxHash == "" {
				lastErr = fmt.Errorf("gateway returned no tx hash: %s %s", response.ErrorCode, response.ErrorMessage)
			} else {
				c.logger.WithFields(logrus.Fields{
					"factKind": factKind,
					"subject":  subjectRef,
					"txHash":   response.TxHash,
					"attempt":  attempt,
				}).Info("Ledger anchor submitted")
				return response.TxHash, nil
			}
		}

		c.logger.WithError(lastErr).WithFields(logrus.Fields{
			"factKind": factKind,
			"subject":  subjectRef,
			"attempt":  attempt,
		}).Warn("Ledger anchor attempt failed")

		var retriable *retriableError
		if !errors.As(lastErr, &retriable) {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return "", lastErr
}

func (c *GatewayClient) post(ctx context.Context, path string, request *transactionRequest, out *transactionResponse) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.config.Endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.SigningKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		return &retriableError{err: fmt.Errorf("gateway call failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"url":        url,
		"statusCode": resp.StatusCode,
		"duration":   duration,
	}).Debug("Ledger gateway response received")

	if resp.StatusCode >= 500 {
		return &retriableError{err: fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// Close closes idle gateway connections
func (c *GatewayClient) Close() {
	if c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
	}
}
