package handler

import (
	th "github.com/mymmrac/telego/telegohandler"

	"nft_market/internal/transport/bot/middleware"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnSale, th.CommandEqual("sale"))
	adminGroup.HandleMessage(h.OnSettlement, th.CommandEqual("settlement"))
	adminGroup.HandleMessage(h.OnRecover, th.CommandEqual("recover"))
}
