package models

import "time"

// OrderStatus - статус заказа на стороне платежного шлюза AEON.
// Клиент только читает его, изменяет его исключительно шлюз.
type OrderStatus string

const (
	OrderStatusInit         OrderStatus = "INIT"
	OrderStatusProcessing   OrderStatus = "PROCESSING"
	OrderStatusCompleted    OrderStatus = "COMPLETED"
	OrderStatusClose        OrderStatus = "CLOSE"
	OrderStatusTimeout      OrderStatus = "TIMEOUT"
	OrderStatusFailed       OrderStatus = "FAILED"
	OrderStatusDelaySuccess OrderStatus = "DELAY_SUCCESS"
	OrderStatusDelayFailed  OrderStatus = "DELAY_FAILED"
)

// IsPending сообщает, что оплата по заказу еще не завершена.
func (s OrderStatus) IsPending() bool {
	return s == OrderStatusInit || s == OrderStatusProcessing
}

// IsKnown проверяет, что статус входит в перечень статусов шлюза.
func (s OrderStatus) IsKnown() bool {
	switch s {
	case OrderStatusInit, OrderStatusProcessing, OrderStatusCompleted, OrderStatusClose,
		OrderStatusTimeout, OrderStatusFailed, OrderStatusDelaySuccess, OrderStatusDelayFailed:
		return true
	}
	return false
}

// Order - одна попытка покупки. Живет только на время вызова создания платежа,
// дальнейший статус всегда запрашивается у шлюза по OrderID.
type Order struct {
	OrderID    string
	Amount     int64
	UserID     int64
	CustomData map[string]any
	Status     OrderStatus
	CreatedAt  time.Time
}

// Buyer - покупатель и чат, в который отправляются ответы.
type Buyer struct {
	UserID int64
	ChatID int64
}
