package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycraft.io/bot/internal/booster"
	"anycraft.io/bot/internal/config"
	"anycraft.io/bot/internal/models"
	"anycraft.io/bot/internal/purchase"
)

type stubPurchases struct {
	initiated  []models.Buyer
	tierIDs    []string
	prechecked []string
	confirmed  []string
	refunded   []string
	decision   purchase.PrecheckoutDecision
	confirmOK  bool
	refundOK   bool
}

func (s *stubPurchases) InitiatePurchase(_ context.Context, buyer models.Buyer, tierID string) purchase.PurchaseResult {
	s.initiated = append(s.initiated, buyer)
	s.tierIDs = append(s.tierIDs, tierID)
	return purchase.PurchaseResult{Outcome: purchase.OutcomeLinkSent}
}

func (s *stubPurchases) Precheckout(_ context.Context, invoiceID string) purchase.PrecheckoutDecision {
	s.prechecked = append(s.prechecked, invoiceID)
	return s.decision
}

func (s *stubPurchases) ConfirmPayment(_ context.Context, invoiceID string) bool {
	s.confirmed = append(s.confirmed, invoiceID)
	return s.confirmOK
}

func (s *stubPurchases) HandleRefund(_ context.Context, invoiceID string) bool {
	s.refunded = append(s.refunded, invoiceID)
	return s.refundOK
}

func testConfig() *config.Config {
	return &config.Config{
		Production:      true,
		AuthorizedUsers: []int64{327090911},
		Links: config.LinksConfig{
			TMA:       "https://tma.anycraft.io/",
			Community: "https://t.me/anycraft",
			ChatEN:    "https://t.me/anycraft_en",
			ChatRU:    "https://t.me/anycraft_ru",
			Site:      "https://anycraft.io",
		},
	}
}

func newTestDispatcher(t *testing.T, cfg *config.Config) (*Dispatcher, *fakeBotAPI, *stubPurchases) {
	t.Helper()
	api := newFakeBotAPI(t)
	purchases := &stubPurchases{}
	return NewDispatcher(api.client(), purchases, booster.DefaultCatalog(), cfg), api, purchases
}

func postUpdate(t *testing.T, d *Dispatcher, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(body))
	rr := httptest.NewRecorder()
	d.ServeHTTP(rr, req)
	return rr
}

func keyboardOf(t *testing.T, call apiCall) [][]map[string]any {
	t.Helper()
	markup, ok := call.Body["reply_markup"].(map[string]any)
	require.True(t, ok, "нет reply_markup")
	var rows [][]map[string]any
	for _, row := range markup["inline_keyboard"].([]any) {
		var buttons []map[string]any
		for _, b := range row.([]any) {
			buttons = append(buttons, b.(map[string]any))
		}
		rows = append(rows, buttons)
	}
	return rows
}

func TestDispatcher_StartShowsMainMenu(t *testing.T) {
	d, api, _ := newTestDispatcher(t, testConfig())

	rr := postUpdate(t, d, `{"update_id":1,"message":{"message_id":1,"from":{"id":5,"language_code":"ru"},"chat":{"id":5},"text":"/start"}}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].Method)
	assert.Equal(t, parseModeMarkdownV2, calls[0].Body["parse_mode"])
	assert.Contains(t, calls[0].Body["text"], "Welcome to Anycraft")

	rows := keyboardOf(t, calls[0])
	require.Len(t, rows, 6)
	assert.Equal(t, map[string]any{"url": "https://tma.anycraft.io/"}, rows[0][0]["web_app"])
	assert.Equal(t, "buy_aeon", rows[1][0]["callback_data"])
	assert.Len(t, rows[3], 2)
	assert.Equal(t, "faq", rows[5][0]["callback_data"])
}

func TestDispatcher_StartAccessGate(t *testing.T) {
	cfg := testConfig()
	cfg.IsRC = true
	d, api, _ := newTestDispatcher(t, cfg)

	postUpdate(t, d, `{"update_id":1,"message":{"message_id":1,"from":{"id":5},"chat":{"id":5},"text":"/start@anycraft_bot"}}`)
	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, AccessDeniedText, calls[0].Body["text"])

	postUpdate(t, d, `{"update_id":2,"message":{"message_id":2,"from":{"id":327090911},"chat":{"id":327090911},"text":"/start"}}`)
	calls = api.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].Body["text"], "Welcome to Anycraft")
}

func TestDispatcher_BoosterMenu(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "команда", body: `{"update_id":1,"message":{"message_id":1,"from":{"id":5},"chat":{"id":9},"text":"/buy_boosters"}}`},
		{name: "кнопка меню", body: `{"update_id":1,"callback_query":{"id":"cb","from":{"id":5},"message":{"message_id":1,"chat":{"id":9}},"data":"buy_aeon"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, api, _ := newTestDispatcher(t, testConfig())
			postUpdate(t, d, tt.body)

			calls := api.Calls()
			last := calls[len(calls)-1]
			assert.Equal(t, "sendMessage", last.Method)
			assert.Equal(t, float64(9), last.Body["chat_id"])
			assert.Equal(t, BoosterMenuText, last.Body["text"])

			rows := keyboardOf(t, last)
			require.Len(t, rows, 5)
			assert.Equal(t, "5🔋 ($1.00)", rows[0][0]["text"])
			assert.Equal(t, "boost_5", rows[0][0]["callback_data"])
			assert.Equal(t, "100🔋 ($4.50)", rows[4][0]["text"])
		})
	}
}

func TestDispatcher_TierCallbackStartsPurchase(t *testing.T) {
	d, api, purchases := newTestDispatcher(t, testConfig())

	rr := postUpdate(t, d, `{"update_id":1,"callback_query":{"id":"cb-1","from":{"id":327090911},"message":{"message_id":1,"chat":{"id":777}},"data":"boost_20"}}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, purchases.initiated, 1)
	assert.Equal(t, models.Buyer{UserID: 327090911, ChatID: 777}, purchases.initiated[0])
	assert.Equal(t, []string{"20"}, purchases.tierIDs)

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "answerCallbackQuery", calls[0].Method)
	assert.Equal(t, "cb-1", calls[0].Body["callback_query_id"])
}

func TestDispatcher_GameGuide(t *testing.T) {
	d, api, _ := newTestDispatcher(t, testConfig())

	postUpdate(t, d, `{"update_id":1,"callback_query":{"id":"cb","from":{"id":5},"message":{"message_id":1,"chat":{"id":9}},"data":"faq"}}`)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].Body["text"], "Crafting Basics")
	assert.Equal(t, true, calls[1].Body["disable_web_page_preview"])
}

func TestDispatcher_Precheckout(t *testing.T) {
	tests := []struct {
		name     string
		decision purchase.PrecheckoutDecision
	}{
		{name: "заказ ожидает оплаты", decision: purchase.PrecheckoutDecision{OK: true}},
		{name: "заказ не ожидает оплаты", decision: purchase.PrecheckoutDecision{OK: false, Reason: purchase.DeclineReason}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, api, purchases := newTestDispatcher(t, testConfig())
			purchases.decision = tt.decision

			postUpdate(t, d, `{"update_id":1,"pre_checkout_query":{"id":"pq-1","from":{"id":5},"currency":"USD","total_amount":100,"invoice_payload":"BOOST_abc_5"}}`)

			assert.Equal(t, []string{"BOOST_abc_5"}, purchases.prechecked)
			calls := api.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "answerPreCheckoutQuery", calls[0].Method)
			assert.Equal(t, "pq-1", calls[0].Body["pre_checkout_query_id"])
			assert.Equal(t, tt.decision.OK, calls[0].Body["ok"])
			if !tt.decision.OK {
				assert.Equal(t, purchase.DeclineReason, calls[0].Body["error_message"])
			}
		})
	}
}

func TestDispatcher_PaymentMessages(t *testing.T) {
	d, api, purchases := newTestDispatcher(t, testConfig())

	rr := postUpdate(t, d, `{"update_id":1,"message":{"message_id":1,"chat":{"id":5},"successful_payment":{"currency":"USD","total_amount":100,"invoice_payload":"BOOST_a_5"}}}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = postUpdate(t, d, `{"update_id":2,"message":{"message_id":2,"chat":{"id":5},"refunded_payment":{"currency":"USD","total_amount":100,"invoice_payload":"BOOST_b_5"}}}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, []string{"BOOST_a_5"}, purchases.confirmed)
	assert.Equal(t, []string{"BOOST_b_5"}, purchases.refunded)
	assert.Empty(t, api.Calls())
}

func TestDispatcher_BadRequests(t *testing.T) {
	d, api, _ := newTestDispatcher(t, testConfig())

	rr := postUpdate(t, d, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/telegram/webhook", nil)
	rr = httptest.NewRecorder()
	d.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = postUpdate(t, d, `{"update_id":3,"message":{"message_id":1,"chat":{"id":5},"text":"hello"}}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, api.Calls())
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "start", command("/start"))
	assert.Equal(t, "start", command("/start@anycraft_bot payload"))
	assert.Equal(t, "", command("start"))
	assert.Equal(t, "", command(""))
}
