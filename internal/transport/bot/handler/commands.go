package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"nft_market/internal/domain"
	"nft_market/internal/domain/value"
	"nft_market/internal/transport/bot/view"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

// OnSale показывает продажу.
// Использование: /sale <collection> <asset>
func (h *Handler) OnSale(ctx *th.Context, msg telego.Message) error {
	args := strings.Fields(msg.Text)
	if len(args) < 3 {
		return h.sendHTML(ctx, msg.Chat.ID, view.SaleUsage)
	}

	key, err := value.NewListingKey(args[1], args[2])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.SaleUsage)
	}

	sale, err := h.market.Get(ctx, key)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, errorText(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Sale(sale))
}

// OnSettlement показывает расчёт по покупке.
// Использование: /settlement <id>
func (h *Handler) OnSettlement(ctx *th.Context, msg telego.Message) error {
	args := strings.Fields(msg.Text)
	if len(args) < 2 {
		return h.sendHTML(ctx, msg.Chat.ID, view.SettlementUsage)
	}

	settlement, err := h.market.GetSettlement(ctx, args[1])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, errorText(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Settlement(settlement))
}

// OnRecover перезапускает расчёты, застрявшие в reserved.
func (h *Handler) OnRecover(ctx *th.Context, msg telego.Message) error {
	count, err := h.market.RecoverReserved(ctx)
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, errorText(err))
	}

	return h.sendHTML(ctx, msg.Chat.ID, fmt.Sprintf(view.RecoverDone, count))
}

func errorText(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return fmt.Sprintf(view.ErrorTemplate, appErr.Code, appErr.PublicMessage())
	}

	return fmt.Sprintf(view.ErrorTemplate, "InternalServerError", "internal server error")
}

// Вспомогательные методы

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}
