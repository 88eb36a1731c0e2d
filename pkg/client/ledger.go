// pkg/client/ledger.go
package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"airtel-ipn-service/config"

	"go.uber.org/zap"
)

// LedgerPoster posts a settled payment downstream. A posting failure marks
// the notification failed.
type LedgerPoster interface {
	PostSettlement(ctx context.Context, posting *SettlementPosting) error
}

type LedgerClient struct {
	config     config.LedgerConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewLedgerClient(cfg config.LedgerConfig, logger *zap.Logger) *LedgerClient {
	return &LedgerClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// SettlementPosting is the payload sent to the ledger service.
type SettlementPosting struct {
	IPNRef        string  `json:"ipn_ref"`
	TransactionID string  `json:"transaction_id"`
	BillRefNumber string  `json:"bill_ref_number"`
	RefType       string  `json:"ref_type"`
	SettledAmount float64 `json:"settled_amount"`
	Currency      string  `json:"currency"`
	MSISDN        string  `json:"msisdn"`
	Timestamp     int64   `json:"timestamp"`
}

func (c *LedgerClient) PostSettlement(ctx context.Context, posting *SettlementPosting) error {
	posting.Timestamp = time.Now().Unix()

	c.logger.Info("posting settlement to ledger",
		zap.String("transaction_id", posting.TransactionID),
		zap.String("ipn_ref", posting.IPNRef),
		zap.Float64("settled_amount", posting.SettledAmount))

	payload, err := json.Marshal(posting)
	if err != nil {
		return fmt.Errorf("failed to marshal settlement posting: %w", err)
	}

	err = c.post(ctx, payload, posting)
	if err != nil && ctx.Err() == nil {
		// One bounded retry on transport failure; the ledger endpoint is
		// idempotent on transaction_id.
		c.logger.Warn("ledger posting failed, retrying once",
			zap.String("transaction_id", posting.TransactionID),
			zap.Error(err))
		err = c.post(ctx, payload, posting)
	}
	if err != nil {
		c.logger.Error("ledger posting failed",
			zap.String("transaction_id", posting.TransactionID),
			zap.Error(err))
		return err
	}

	c.logger.Info("settlement posted to ledger",
		zap.String("transaction_id", posting.TransactionID),
		zap.String("ipn_ref", posting.IPNRef))

	return nil
}

func (c *LedgerClient) post(ctx context.Context, payload []byte, posting *SettlementPosting) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create ledger request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.config.APIKey)
	req.Header.Set("X-Timestamp", fmt.Sprintf("%d", posting.Timestamp))
	req.Header.Set("X-Signature", signPayload(payload, posting.Timestamp, c.config.APISecret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach ledger: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func signPayload(payload []byte, timestamp int64, secret string) string {
	message := fmt.Sprintf("%s.%d", string(payload), timestamp)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
