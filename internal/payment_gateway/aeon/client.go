package aeon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"anycraft.io/bot/internal/config"
)

const (
	createPaymentPath   = "/open/api/payment"
	queryPaymentPath    = "/open/api/payment/query"
	validatePaymentPath = "/open/api/payment/validate"
	refundPaymentPath   = "/open/api/refund/apply"

	payCurrency     = "USD"
	paymentTokens   = "USDT"
	paymentExchange = "16f021b0-f220-4bbb-aa3b-82d423301957"

	errorCode = "ERROR"
)

var (
	// ErrTransport - запрос не дошел до шлюза или ответ не прочитан
	ErrTransport = errors.New("aeon: transport error")
	// ErrDecode - тело ответа не является ожидаемым JSON
	ErrDecode = errors.New("aeon: malformed response")
)

// Client для взаимодействия с API AEON
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	secretKey  string
	now        func() time.Time
}

type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (например, в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock подменяет источник времени для orderTs.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient создает новый экземпляр клиента
func NewClient(cfg config.AEONConfig, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSeconds * time.Second
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		appID:      cfg.AppID,
		secretKey:  cfg.SecretKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// signed добавляет поле sign к параметрам.
func (c *Client) signed(params Params) Params {
	params[signField] = Sign(params, c.secretKey)
	return params
}

// CreatePayment создает заказ и возвращает ответ шлюза. customParam
// добавляется после подписи и в подпись не входит.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) PaymentResponse {
	params := c.signed(Params{
		"appId":           c.appID,
		"merchantOrderNo": req.OrderID,
		"orderAmount":     strconv.FormatInt(req.Amount, 10),
		"payCurrency":     payCurrency,
		"userId":          strconv.FormatInt(req.UserID, 10),
		"paymentTokens":   paymentTokens,
		"paymentExchange": paymentExchange,
	})

	if len(req.CustomData) > 0 {
		custom := make(map[string]any, len(req.CustomData)+1)
		for k, v := range req.CustomData {
			custom[k] = v
		}
		custom["orderTs"] = strconv.FormatInt(c.now().UnixMilli(), 10)
		raw, err := json.Marshal(custom)
		if err != nil {
			slog.Error("aeon: не удалось сериализовать customParam", "orderID", req.OrderID, "error", err)
			return errorResponse(fmt.Errorf("aeon: failed to marshal customParam: %w", err))
		}
		params["customParam"] = string(raw)
	}

	var resp PaymentResponse
	if err := c.post(ctx, createPaymentPath, params, &resp); err != nil {
		slog.Error("aeon: ошибка создания платежа", "orderID", req.OrderID, "error", err)
		return errorResponse(err)
	}
	return resp
}

// FetchOrder запрашивает статус заказа. nil означает, что статус узнать не удалось.
func (c *Client) FetchOrder(ctx context.Context, merchantOrderNo string) *OrderQueryResponse {
	params := c.signed(Params{
		"appId":           c.appID,
		"merchantOrderNo": merchantOrderNo,
	})

	var resp OrderQueryResponse
	if err := c.post(ctx, queryPaymentPath, params, &resp); err != nil {
		slog.Error("aeon: ошибка запроса статуса заказа", "orderID", merchantOrderNo, "error", err)
		return nil
	}
	return &resp
}

// ValidatePayment подтверждает оплату заказа у шлюза.
func (c *Client) ValidatePayment(ctx context.Context, merchantOrderNo string) bool {
	params := c.signed(Params{
		"appId":           c.appID,
		"merchantOrderNo": merchantOrderNo,
	})

	var resp ValidateResponse
	if err := c.post(ctx, validatePaymentPath, params, &resp); err != nil {
		slog.Error("aeon: ошибка проверки платежа", "orderID", merchantOrderNo, "error", err)
		return false
	}
	return resp.Confirmed()
}

// RefundPayment запрашивает возврат суммы amount по заказу.
func (c *Client) RefundPayment(ctx context.Context, merchantOrderNo string, amount int64) bool {
	params := c.signed(Params{
		"appId":           c.appID,
		"merchantOrderNo": merchantOrderNo,
		"refundAmount":    strconv.FormatInt(amount, 10),
	})

	var resp RefundResponse
	if err := c.post(ctx, refundPaymentPath, params, &resp); err != nil {
		slog.Error("aeon: ошибка возврата платежа", "orderID", merchantOrderNo, "error", err)
		return false
	}
	if !resp.Code.IsSuccess() {
		slog.Warn("aeon: шлюз отклонил возврат", "orderID", merchantOrderNo, "code", resp.Code.String(), "msg", resp.Msg)
		return false
	}
	return true
}

// post отправляет подписанные параметры и декодирует JSON-ответ в out.
// Код HTTP-ответа не проверяется: решение принимается по телу.
func (c *Client) post(ctx context.Context, path string, params Params, out any) error {
	bodyBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("aeon: failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("aeon: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrTransport, path, err)
	}
	slog.Debug("aeon: ответ шлюза", "path", path, "status_code", resp.StatusCode, "body", string(respBody))

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s (status %d): %w", ErrDecode, path, resp.StatusCode, err)
	}
	return nil
}
