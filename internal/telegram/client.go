// Package telegram - тонкий адаптер Bot API: отправка сообщений и разбор вебхука.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client для вызовов Bot API
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// NewClient создает клиент. apiURL - например, https://api.telegram.org.
func NewClient(apiURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		token:      token,
	}
}

// SendMessage отправляет сообщение в чат.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) error {
	return c.call(ctx, "sendMessage", params)
}

// AnswerPreCheckoutQuery подтверждает или отклоняет оплату.
func (c *Client) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	params := answerPreCheckoutQueryParams{PreCheckoutQueryID: queryID, OK: ok}
	if !ok {
		params.ErrorMessage = errorMessage
	}
	return c.call(ctx, "answerPreCheckoutQuery", params)
}

// AnswerCallbackQuery убирает индикатор загрузки с inline-кнопки.
func (c *Client) AnswerCallbackQuery(ctx context.Context, queryID string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryParams{CallbackQueryID: queryID})
}

// SendText отправляет простой текст.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, SendMessageParams{ChatID: chatID, Text: text})
}

// SendPaymentLink отправляет текст с кнопкой, открывающей страницу оплаты.
func (c *Client) SendPaymentLink(ctx context.Context, chatID int64, text, buttonText, paymentURL string) error {
	return c.SendMessage(ctx, SendMessageParams{
		ChatID: chatID,
		Text:   text,
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: buttonText, WebApp: &WebAppInfo{URL: paymentURL}}},
		}},
	})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal %s: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("telegram: failed to create %s request: %w", method, c.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s failed: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: failed to read %s response: %w", method, err)
	}
	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("telegram: failed to decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram: %s rejected: %d %s", method, apiResp.ErrorCode, apiResp.Description)
	}
	return nil
}

// redact убирает токен бота из URL в тексте ошибки.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if c.token != "" && errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = strings.ReplaceAll(urlErr.URL, c.token, "****")
		return &redacted
	}
	return err
}
