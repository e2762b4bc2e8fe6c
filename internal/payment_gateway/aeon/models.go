package aeon

// Структуры запросов и ответов API AEON

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"anycraft.io/bot/internal/models"
)

// ResultCode - поле code из ответа шлюза. Шлюз возвращает его строкой,
// числовое значение сохраняется как есть и успехом не считается.
type ResultCode struct {
	Value   string
	Numeric bool
}

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ResultCode{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ResultCode{Value: s}
		return nil
	}
	*c = ResultCode{Value: string(data), Numeric: true}
	return nil
}

func (c ResultCode) MarshalJSON() ([]byte, error) {
	if c.Numeric {
		return []byte(c.Value), nil
	}
	return json.Marshal(c.Value)
}

// IsSuccess - code == "0".
func (c ResultCode) IsSuccess() bool {
	return !c.Numeric && c.Value == "0"
}

func (c ResultCode) String() string {
	return c.Value
}

// PaymentRequest описывает создаваемый заказ
type PaymentRequest struct {
	OrderID    string
	Amount     int64
	UserID     int64
	CustomData map[string]any
}

// PaymentRequestFromOrder собирает запрос из модели заказа.
func PaymentRequestFromOrder(o models.Order) PaymentRequest {
	return PaymentRequest{
		OrderID:    o.OrderID,
		Amount:     o.Amount,
		UserID:     o.UserID,
		CustomData: o.CustomData,
	}
}

// PaymentModel - полезная нагрузка ответа на создание платежа
type PaymentModel struct {
	WebURL  string `json:"webUrl"`
	OrderNo string `json:"orderNo,omitempty"`
}

// PaymentResponse - ответ на создание платежа. Ошибки транспорта тоже
// приводятся к этой форме: Error=true, Code="ERROR".
type PaymentResponse struct {
	Error bool          `json:"error,omitempty"`
	Code  ResultCode    `json:"code"`
	Msg   string        `json:"msg"`
	Model *PaymentModel `json:"model,omitempty"`
}

// WebURL возвращает ссылку на оплату или пустую строку.
func (r PaymentResponse) WebURL() string {
	if r.Model == nil {
		return ""
	}
	return r.Model.WebURL
}

// OK - ответ без флага ошибки и со ссылкой на оплату.
// HTTP-статус ответа намеренно не учитывается.
func (r PaymentResponse) OK() bool {
	return !r.Error && r.WebURL() != ""
}

func errorResponse(err error) PaymentResponse {
	return PaymentResponse{
		Error: true,
		Msg:   err.Error(),
		Code:  ResultCode{Value: "ERROR"},
	}
}

// AmountValue - orderAmount из ответа шлюза, строкой или числом. Значение
// хранится как есть и разбирается в OrderModel.Amount: некорректная сумма
// не должна мешать разбору статуса заказа.
type AmountValue string

func (a *AmountValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	*a = AmountValue(data)
	return nil
}

// OrderModel - данные заказа в ответах query и validate
type OrderModel struct {
	OrderNo         string      `json:"orderNo,omitempty"`
	MerchantOrderNo string      `json:"merchantOrderNo,omitempty"`
	Status          string      `json:"status,omitempty"`
	OrderStatus     string      `json:"orderStatus,omitempty"`
	OrderAmount     AmountValue `json:"orderAmount,omitempty"`
	PayCurrency     string      `json:"payCurrency,omitempty"`
	CustomParam     string      `json:"customParam,omitempty"`
}

// CurrentStatus возвращает статус заказа. Шлюз кладет его в orderStatus,
// часть ответов использует поле status.
func (m OrderModel) CurrentStatus() models.OrderStatus {
	if m.OrderStatus != "" {
		return models.OrderStatus(m.OrderStatus)
	}
	return models.OrderStatus(m.Status)
}

// Amount возвращает сумму заказа в минимальных единицах. Сумма принимается,
// только если это целое число в пределах int64.
func (m OrderModel) Amount() (int64, bool) {
	raw := strings.TrimSpace(string(m.OrderAmount))
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		return 0, false
	}
	n := d.BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// OrderQueryResponse - ответ /open/api/payment/query
type OrderQueryResponse struct {
	Code  ResultCode  `json:"code"`
	Msg   string      `json:"msg"`
	Model *OrderModel `json:"model,omitempty"`
}

// Status возвращает статус заказа, если шлюз его прислал.
func (r *OrderQueryResponse) Status() (models.OrderStatus, bool) {
	if r == nil || r.Model == nil {
		return "", false
	}
	s := r.Model.CurrentStatus()
	return s, s != ""
}

// ValidateResponse - ответ /open/api/payment/validate
type ValidateResponse struct {
	Code  ResultCode `json:"code"`
	Msg   string     `json:"msg"`
	Model *struct {
		Status string `json:"status"`
	} `json:"model,omitempty"`
}

// Confirmed - code == "0" и model.status == "SUCCESS".
func (r ValidateResponse) Confirmed() bool {
	return r.Code.IsSuccess() && r.Model != nil && r.Model.Status == "SUCCESS"
}

// RefundResponse - ответ /open/api/refund/apply
type RefundResponse struct {
	Code ResultCode `json:"code"`
	Msg  string     `json:"msg"`
}
