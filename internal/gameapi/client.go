// Package gameapi уведомляет игровой бэкенд о подтвержденных и возвращенных покупках.
package gameapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client для вызовов игрового API
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
}

// NewClient создает клиент. baseURL должен оканчиваться на "/".
func NewClient(baseURL, botToken string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		botToken:   botToken,
	}
}

type checksumRequest struct {
	Checksum string `json:"checksum"`
}

type validateResponse struct {
	IsValidated bool `json:"is_validated"`
}

type refundResponse struct {
	IsRefunded bool `json:"is_refunded"`
}

// Checksum - HMAC-SHA256 от ID инвойса с токеном бота в качестве ключа, hex.
func (c *Client) Checksum(invoiceID string) string {
	mac := hmac.New(sha256.New, []byte(c.botToken))
	mac.Write([]byte(invoiceID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Validate сообщает бэкенду о подтвержденной покупке.
func (c *Client) Validate(ctx context.Context, invoiceID string) bool {
	var resp validateResponse
	if err := c.post(ctx, invoiceID, "validate", &resp); err != nil {
		slog.Error("gameapi: ошибка подтверждения покупки", "invoiceID", invoiceID, "error", err)
		return false
	}
	return resp.IsValidated
}

// Refund сообщает бэкенду о возврате покупки.
func (c *Client) Refund(ctx context.Context, invoiceID string) bool {
	var resp refundResponse
	if err := c.post(ctx, invoiceID, "refund", &resp); err != nil {
		slog.Error("gameapi: ошибка возврата покупки", "invoiceID", invoiceID, "error", err)
		return false
	}
	return resp.IsRefunded
}

func (c *Client) post(ctx context.Context, invoiceID, action string, out any) error {
	bodyBytes, err := json.Marshal(checksumRequest{Checksum: c.Checksum(invoiceID)})
	if err != nil {
		return fmt.Errorf("gameapi: failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%sinvoices/%s/%s", c.baseURL, url.PathEscape(invoiceID), action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("gameapi: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gameapi: failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gameapi: unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gameapi: failed to decode response: %w", err)
	}
	return nil
}
