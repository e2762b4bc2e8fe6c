package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"anycraft.io/bot/internal/booster"
	"anycraft.io/bot/internal/config"
	"anycraft.io/bot/internal/models"
	"anycraft.io/bot/internal/purchase"
)

const maxUpdateBytes = 1 << 20

// Purchases - сценарии покупки, которые вызывает диспетчер.
type Purchases interface {
	InitiatePurchase(ctx context.Context, buyer models.Buyer, tierID string) purchase.PurchaseResult
	Precheckout(ctx context.Context, invoiceID string) purchase.PrecheckoutDecision
	ConfirmPayment(ctx context.Context, invoiceID string) bool
	HandleRefund(ctx context.Context, invoiceID string) bool
}

// Dispatcher разбирает обновления вебхука и направляет их в нужный сценарий.
type Dispatcher struct {
	bot       *Client
	purchases Purchases
	catalog   *booster.Catalog
	cfg       *config.Config
}

func NewDispatcher(bot *Client, purchases Purchases, catalog *booster.Catalog, cfg *config.Config) *Dispatcher {
	return &Dispatcher{bot: bot, purchases: purchases, catalog: catalog, cfg: cfg}
}

// ServeHTTP принимает обновление от Telegram. После успешного разбора всегда
// отвечает 200, иначе Telegram будет повторять доставку.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var update Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		slog.Warn("Некорректное обновление вебхука", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	d.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

// HandleUpdate обрабатывает одно обновление.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update Update) {
	switch {
	case update.PreCheckoutQuery != nil:
		d.handlePrecheckout(ctx, update.PreCheckoutQuery)
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	default:
		slog.Debug("Обновление пропущено", "updateID", update.UpdateID)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *Message) {
	switch {
	case msg.SuccessfulPayment != nil:
		invoiceID := msg.SuccessfulPayment.InvoicePayload
		valid := d.purchases.ConfirmPayment(ctx, invoiceID)
		slog.Info("Покупка проверена", "invoiceID", invoiceID, "validated", valid)
	case msg.RefundedPayment != nil:
		invoiceID := msg.RefundedPayment.InvoicePayload
		refunded := d.purchases.HandleRefund(ctx, invoiceID)
		slog.Info("Покупка возвращена", "invoiceID", invoiceID, "refunded", refunded)
	default:
		switch command(msg.Text) {
		case "start":
			d.handleStart(ctx, msg)
		case "buy_boosters":
			d.sendBoosterMenu(ctx, msg.Chat.ID, userID(msg.From))
		}
	}
}

func (d *Dispatcher) handleStart(ctx context.Context, msg *Message) {
	if !d.cfg.IsAuthorized(userID(msg.From)) {
		slog.Warn("Доступ запрещен", "userID", userID(msg.From))
		d.send(ctx, SendMessageParams{ChatID: msg.Chat.ID, Text: AccessDeniedText})
		return
	}

	t := textsFor(languageCode(msg.From))
	d.send(ctx, SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        t.Welcome,
		ParseMode:   parseModeMarkdownV2,
		ReplyMarkup: d.mainMenu(t),
	})
}

func (d *Dispatcher) mainMenu(t texts) *InlineKeyboardMarkup {
	links := d.cfg.Links
	rows := [][]InlineKeyboardButton{
		{{Text: t.PlayButton, WebApp: &WebAppInfo{URL: links.TMA}}},
		{{Text: BuyBoostersButton, CallbackData: buyBoostersCallback}},
	}
	if links.Community != "" {
		rows = append(rows, []InlineKeyboardButton{{Text: t.CommunityButton, URL: links.Community}})
	}
	var chats []InlineKeyboardButton
	if links.ChatEN != "" {
		chats = append(chats, InlineKeyboardButton{Text: t.ChatENButton, URL: links.ChatEN})
	}
	if links.ChatRU != "" {
		chats = append(chats, InlineKeyboardButton{Text: t.ChatRUButton, URL: links.ChatRU})
	}
	if len(chats) > 0 {
		rows = append(rows, chats)
	}
	if links.Site != "" {
		rows = append(rows, []InlineKeyboardButton{{Text: t.SiteButton, URL: links.Site}})
	}
	rows = append(rows, []InlineKeyboardButton{{Text: t.GuideButton, CallbackData: gameGuideCallback}})
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

func (d *Dispatcher) sendBoosterMenu(ctx context.Context, chatID, userID int64) {
	slog.Info("Запрошено меню бустеров", "userID", userID)

	tiers := d.catalog.Tiers()
	rows := make([][]InlineKeyboardButton, 0, len(tiers))
	for _, tier := range tiers {
		rows = append(rows, []InlineKeyboardButton{{Text: TierButtonText(tier), CallbackData: tier.CallbackData()}})
	}
	d.send(ctx, SendMessageParams{
		ChatID:      chatID,
		Text:        BoosterMenuText,
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

func (d *Dispatcher) handleCallback(ctx context.Context, query *CallbackQuery) {
	if err := d.bot.AnswerCallbackQuery(ctx, query.ID); err != nil {
		slog.Warn("Не удалось ответить на callback", "callbackID", query.ID, "error", err)
	}
	if query.Message == nil {
		slog.Warn("Callback без сообщения", "callbackID", query.ID, "data", query.Data)
		return
	}
	chatID := query.Message.Chat.ID

	switch {
	case query.Data == gameGuideCallback:
		d.send(ctx, SendMessageParams{
			ChatID:                chatID,
			Text:                  textsFor(query.From.LanguageCode).GameGuide,
			ParseMode:             parseModeMarkdownV2,
			DisableWebPagePreview: true,
		})
	case query.Data == buyBoostersCallback:
		d.sendBoosterMenu(ctx, chatID, query.From.ID)
	case booster.IsTierCallback(query.Data):
		tierID, _ := booster.TierIDFromCallback(query.Data)
		result := d.purchases.InitiatePurchase(ctx, models.Buyer{UserID: query.From.ID, ChatID: chatID}, tierID)
		slog.Debug("Покупка обработана", "userID", query.From.ID, "tier", tierID, "outcome", result.Outcome.String())
	default:
		slog.Debug("Неизвестный callback", "data", query.Data)
	}
}

func (d *Dispatcher) handlePrecheckout(ctx context.Context, query *PreCheckoutQuery) {
	decision := d.purchases.Precheckout(ctx, query.InvoicePayload)
	if err := d.bot.AnswerPreCheckoutQuery(ctx, query.ID, decision.OK, decision.Reason); err != nil {
		slog.Error("Не удалось ответить на precheckout", "invoiceID", query.InvoicePayload, "error", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, params SendMessageParams) {
	if err := d.bot.SendMessage(ctx, params); err != nil {
		slog.Error("Не удалось отправить сообщение", "chatID", params.ChatID, "error", err)
	}
}

// command возвращает имя команды без "/" и суффикса "@bot", либо "".
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name := strings.Fields(text)[0][1:]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	return name
}

func userID(u *User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}

func languageCode(u *User) string {
	if u == nil {
		return ""
	}
	return u.LanguageCode
}
