// Package purchase связывает события чата с вызовами платежного шлюза:
// создание заказа, precheckout, подтверждение оплаты и возврат.
package purchase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"anycraft.io/bot/internal/booster"
	"anycraft.io/bot/internal/models"
	"anycraft.io/bot/internal/payment_gateway/aeon"
)

const (
	orderIDPrefix   = "BOOST_"
	orderIDHexLen   = 12
	customDataType  = "booster"
	timestampLayout = "2006-01-02T15:04:05.000000"

	// Telegram ждет ответа на pre_checkout_query не дольше 10 секунд
	precheckoutTimeout = 8 * time.Second
)

// Gateway - операции платежного шлюза. Ошибки уже поглощены клиентом.
type Gateway interface {
	CreatePayment(ctx context.Context, req aeon.PaymentRequest) aeon.PaymentResponse
	FetchOrder(ctx context.Context, merchantOrderNo string) *aeon.OrderQueryResponse
	ValidatePayment(ctx context.Context, merchantOrderNo string) bool
	RefundPayment(ctx context.Context, merchantOrderNo string, amount int64) bool
}

// Notifier отправляет сообщения покупателю.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPaymentLink(ctx context.Context, chatID int64, text, buttonText, paymentURL string) error
}

// Limiter ограничивает частоту покупок одного покупателя.
type Limiter interface {
	Allow(key string) bool
}

// Fulfiller сообщает игре о подтвержденной или возвращенной покупке.
type Fulfiller interface {
	Validate(ctx context.Context, invoiceID string) bool
	Refund(ctx context.Context, invoiceID string) bool
}

// Outcome - итог попытки покупки.
type Outcome int

const (
	OutcomeLinkSent Outcome = iota + 1
	OutcomeRejected
	OutcomeThrottled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLinkSent:
		return "link_sent"
	case OutcomeRejected:
		return "rejected"
	case OutcomeThrottled:
		return "throttled"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// PurchaseResult - итог InitiatePurchase. OrderID пуст, если до шлюза дело не дошло.
type PurchaseResult struct {
	Outcome    Outcome
	OrderID    string
	PaymentURL string
}

// PrecheckoutDecision - ответ на precheckout. Reason заполнен при отказе.
type PrecheckoutDecision struct {
	OK     bool
	Reason string
}

// Coordinator обрабатывает жизненный цикл покупки бустеров.
type Coordinator struct {
	gateway   Gateway
	catalog   *booster.Catalog
	notifier  Notifier
	limiter   Limiter
	fulfiller Fulfiller
	now       func() time.Time
	newID     func() string
}

type Option func(*Coordinator)

// WithLimiter включает ограничение частоты покупок.
func WithLimiter(l Limiter) Option {
	return func(c *Coordinator) { c.limiter = l }
}

// WithFulfiller включает уведомления игрового бэкенда.
func WithFulfiller(f Fulfiller) Option {
	return func(c *Coordinator) { c.fulfiller = f }
}

// WithClock подменяет источник времени для метаданных заказа.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithIDSource подменяет генератор случайной части ID заказа.
func WithIDSource(newID func() string) Option {
	return func(c *Coordinator) { c.newID = newID }
}

// NewCoordinator собирает координатор. Шлюз и каталог создаются один раз при старте.
func NewCoordinator(gw Gateway, catalog *booster.Catalog, notifier Notifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		gateway:  gw,
		catalog:  catalog,
		notifier: notifier,
		now:      time.Now,
		newID:    randomHex,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewOrderID - "BOOST_<12 hex>_<userID>". Случайная часть различает повторные
// покупки одного пользователя, userID - покупки разных пользователей.
func (c *Coordinator) NewOrderID(userID int64) string {
	random := c.newID()
	if len(random) > orderIDHexLen {
		random = random[:orderIDHexLen]
	}
	return orderIDPrefix + random + "_" + strconv.FormatInt(userID, 10)
}

func (c *Coordinator) newOrder(buyer models.Buyer, tier booster.Tier) models.Order {
	now := c.now().UTC()
	return models.Order{
		OrderID: c.NewOrderID(buyer.UserID),
		Amount:  tier.Price,
		UserID:  buyer.UserID,
		CustomData: map[string]any{
			"type":      customDataType,
			"amount":    tier.ID,
			"user_id":   buyer.UserID,
			"timestamp": now.Format(timestampLayout),
		},
		Status:    models.OrderStatusInit,
		CreatedAt: now,
	}
}

// InitiatePurchase создает платеж за выбранный пакет и отправляет покупателю ссылку.
// Неизвестный пакет отклоняется без обращения к шлюзу.
func (c *Coordinator) InitiatePurchase(ctx context.Context, buyer models.Buyer, tierID string) PurchaseResult {
	slog.Info("Обработка покупки бустеров", "userID", buyer.UserID, "tier", tierID)

	tier, ok := c.catalog.Lookup(tierID)
	if !ok {
		slog.Warn("Выбран несуществующий пакет бустеров", "userID", buyer.UserID, "tier", tierID)
		c.sendText(ctx, buyer.ChatID, InvalidTierText)
		return PurchaseResult{Outcome: OutcomeRejected}
	}

	if c.limiter != nil && !c.limiter.Allow(strconv.FormatInt(buyer.UserID, 10)) {
		slog.Warn("Слишком частые покупки", "userID", buyer.UserID)
		c.sendText(ctx, buyer.ChatID, ThrottledText)
		return PurchaseResult{Outcome: OutcomeThrottled}
	}

	order := c.newOrder(buyer, tier)
	resp := c.gateway.CreatePayment(ctx, aeon.PaymentRequestFromOrder(order))
	if resp.Error {
		slog.Error("Шлюз вернул ошибку при создании платежа", "orderID", order.OrderID, "code", resp.Code.String(), "msg", resp.Msg)
		c.sendText(ctx, buyer.ChatID, PaymentErrorText)
		return PurchaseResult{Outcome: OutcomeFailed, OrderID: order.OrderID}
	}

	paymentURL := resp.WebURL()
	if paymentURL == "" {
		slog.Error("Ответ шлюза без ссылки на оплату", "orderID", order.OrderID, "code", resp.Code.String(), "msg", resp.Msg)
		c.sendText(ctx, buyer.ChatID, PaymentLinkErrorText)
		return PurchaseResult{Outcome: OutcomeFailed, OrderID: order.OrderID}
	}

	text := fmt.Sprintf(paymentLinkTextFormat, tier.ID, tier.DisplayPrice())
	if err := c.notifier.SendPaymentLink(ctx, buyer.ChatID, text, PaymentButtonText, paymentURL); err != nil {
		slog.Error("Не удалось отправить ссылку на оплату", "orderID", order.OrderID, "chatID", buyer.ChatID, "error", err)
	}
	slog.Info("Платеж создан", "orderID", order.OrderID, "userID", buyer.UserID, "amount", order.Amount)
	return PurchaseResult{Outcome: OutcomeLinkSent, OrderID: order.OrderID, PaymentURL: paymentURL}
}

// Precheckout разрешает оплату, только если шлюз ответил успехом и считает
// заказ ожидающим оплаты. Запрос к шлюзу ограничен precheckoutTimeout.
func (c *Coordinator) Precheckout(ctx context.Context, invoiceID string) PrecheckoutDecision {
	ctx, cancel := context.WithTimeout(ctx, precheckoutTimeout)
	defer cancel()

	resp := c.gateway.FetchOrder(ctx, invoiceID)
	if resp == nil {
		slog.Warn("Precheckout отклонен: статус заказа недоступен", "invoiceID", invoiceID)
		return PrecheckoutDecision{OK: false, Reason: DeclineReason}
	}
	if resp.Code.Value != "" && !resp.Code.IsSuccess() {
		slog.Warn("Precheckout отклонен: шлюз вернул ошибку", "invoiceID", invoiceID, "code", resp.Code.String(), "msg", resp.Msg)
		return PrecheckoutDecision{OK: false, Reason: DeclineReason}
	}

	status, ok := resp.Status()
	if ok && !status.IsKnown() {
		slog.Warn("Шлюз вернул неизвестный статус заказа", "invoiceID", invoiceID, "status", string(status))
	}
	if !ok || !status.IsPending() {
		slog.Warn("Precheckout отклонен", "invoiceID", invoiceID, "status", string(status), "code", resp.Code.String())
		return PrecheckoutDecision{OK: false, Reason: DeclineReason}
	}

	slog.Info("Precheckout подтвержден", "invoiceID", invoiceID, "status", string(status))
	return PrecheckoutDecision{OK: true}
}

// ConfirmPayment перепроверяет оплату у шлюза. Сигналу транспорта об
// успешной оплате без этой проверки не доверяем.
func (c *Coordinator) ConfirmPayment(ctx context.Context, invoiceID string) bool {
	valid := c.gateway.ValidatePayment(ctx, invoiceID)
	slog.Info("Проверка покупки", "invoiceID", invoiceID, "validated", valid)
	if !valid {
		return false
	}

	if c.fulfiller != nil {
		granted := c.fulfiller.Validate(ctx, invoiceID)
		slog.Info("Игровой бэкенд уведомлен о покупке", "invoiceID", invoiceID, "result", granted)
	}
	return true
}

// HandleRefund запрашивает у шлюза возврат по заказу. Сумма берется из
// данных заказа в шлюзе.
func (c *Coordinator) HandleRefund(ctx context.Context, invoiceID string) bool {
	amount, ok := c.refundAmount(ctx, invoiceID)
	if !ok {
		slog.Error("Возврат невозможен: сумма заказа неизвестна", "invoiceID", invoiceID)
		return false
	}

	refunded := c.gateway.RefundPayment(ctx, invoiceID, amount)
	slog.Info("Возврат покупки", "invoiceID", invoiceID, "amount", amount, "refunded", refunded)
	if !refunded {
		return false
	}

	if c.fulfiller != nil {
		revoked := c.fulfiller.Refund(ctx, invoiceID)
		slog.Info("Игровой бэкенд уведомлен о возврате", "invoiceID", invoiceID, "result", revoked)
	}
	return true
}

// refundAmount берет orderAmount из шлюза, а если его нет - цену пакета
// из customParam, который шлюз возвращает без изменений.
func (c *Coordinator) refundAmount(ctx context.Context, invoiceID string) (int64, bool) {
	resp := c.gateway.FetchOrder(ctx, invoiceID)
	if resp == nil || resp.Model == nil {
		return 0, false
	}
	if amount, ok := resp.Model.Amount(); ok && amount > 0 {
		return amount, true
	}
	if resp.Model.CustomParam == "" {
		return 0, false
	}

	var custom struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal([]byte(resp.Model.CustomParam), &custom); err != nil {
		slog.Warn("Не удалось разобрать customParam заказа", "invoiceID", invoiceID, "error", err)
		return 0, false
	}
	tier, ok := c.catalog.Lookup(custom.Amount)
	if !ok {
		return 0, false
	}
	return tier.Price, true
}

func (c *Coordinator) sendText(ctx context.Context, chatID int64, text string) {
	if err := c.notifier.SendText(ctx, chatID, text); err != nil {
		slog.Error("Не удалось отправить сообщение покупателю", "chatID", chatID, "error", err)
	}
}
