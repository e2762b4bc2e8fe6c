package purchase

import (
	"context"
	"sync"

	"anycraft.io/bot/internal/payment_gateway/aeon"
)

// MockGateway implements Gateway for testing
type MockGateway struct {
	mu sync.Mutex

	CreatePaymentFunc   func(ctx context.Context, req aeon.PaymentRequest) aeon.PaymentResponse
	FetchOrderFunc      func(ctx context.Context, orderNo string) *aeon.OrderQueryResponse
	ValidatePaymentFunc func(ctx context.Context, orderNo string) bool
	RefundPaymentFunc   func(ctx context.Context, orderNo string, amount int64) bool

	CreateCalls   []aeon.PaymentRequest
	FetchCalls    []string
	ValidateCalls []string
	RefundCalls   []refundCall
}

type refundCall struct {
	OrderNo string
	Amount  int64
}

func (m *MockGateway) CreatePayment(ctx context.Context, req aeon.PaymentRequest) aeon.PaymentResponse {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, req)
	m.mu.Unlock()
	if m.CreatePaymentFunc != nil {
		return m.CreatePaymentFunc(ctx, req)
	}
	return aeon.PaymentResponse{Model: &aeon.PaymentModel{WebURL: "https://pay.example/default"}}
}

func (m *MockGateway) FetchOrder(ctx context.Context, orderNo string) *aeon.OrderQueryResponse {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, orderNo)
	m.mu.Unlock()
	if m.FetchOrderFunc != nil {
		return m.FetchOrderFunc(ctx, orderNo)
	}
	return nil
}

func (m *MockGateway) ValidatePayment(ctx context.Context, orderNo string) bool {
	m.mu.Lock()
	m.ValidateCalls = append(m.ValidateCalls, orderNo)
	m.mu.Unlock()
	if m.ValidatePaymentFunc != nil {
		return m.ValidatePaymentFunc(ctx, orderNo)
	}
	return false
}

func (m *MockGateway) RefundPayment(ctx context.Context, orderNo string, amount int64) bool {
	m.mu.Lock()
	m.RefundCalls = append(m.RefundCalls, refundCall{OrderNo: orderNo, Amount: amount})
	m.mu.Unlock()
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, orderNo, amount)
	}
	return false
}

type sentMessage struct {
	ChatID     int64
	Text       string
	ButtonText string
	URL        string
}

// MockNotifier records every message sent to the buyer
type MockNotifier struct {
	mu       sync.Mutex
	Messages []sentMessage
	Err      error
}

func (m *MockNotifier) SendText(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, sentMessage{ChatID: chatID, Text: text})
	return m.Err
}

func (m *MockNotifier) SendPaymentLink(_ context.Context, chatID int64, text, buttonText, paymentURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, sentMessage{ChatID: chatID, Text: text, ButtonText: buttonText, URL: paymentURL})
	return m.Err
}

func (m *MockNotifier) Last() sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		return sentMessage{}
	}
	return m.Messages[len(m.Messages)-1]
}

// MockFulfiller records game backend notifications
type MockFulfiller struct {
	Validated []string
	Refunded  []string
	Result    bool
}

func (m *MockFulfiller) Validate(_ context.Context, invoiceID string) bool {
	m.Validated = append(m.Validated, invoiceID)
	return m.Result
}

func (m *MockFulfiller) Refund(_ context.Context, invoiceID string) bool {
	m.Refunded = append(m.Refunded, invoiceID)
	return m.Result
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }
