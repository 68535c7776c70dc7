package handler

import (
	"nft_auction/internal/transport/bot/middleware"

	th "github.com/mymmrac/telego/telegohandler"
)

func (h *Handler) RegisterRoutes(bh *th.BotHandler, adminID int64) {
	adminGroup := bh.Group(th.AnyMessage())
	adminGroup.Use(middleware.AdminOnly(adminID))

	adminGroup.HandleMessage(h.OnStart, th.CommandEqual("start"))
	adminGroup.HandleMessage(h.OnStatus, th.CommandEqual("status"))
	adminGroup.HandleMessage(h.OnAuctions, th.CommandEqual("auctions"))
	adminGroup.HandleMessage(h.OnAuction, th.CommandEqual("auction"))
	adminGroup.HandleMessage(h.OnEnd, th.CommandEqual("end"))
	adminGroup.HandleMessage(h.OnFees, th.CommandEqual("fees"))
	adminGroup.HandleMessage(h.OnPrice, th.CommandEqual("price"))
	adminGroup.HandleMessage(h.OnSweep, th.CommandEqual("sweep"))
	adminGroup.HandleMessage(h.OnStartSweep, th.CommandEqual("startsweep"))
	adminGroup.HandleMessage(h.OnStopSweep, th.CommandEqual("stopsweep"))

	cbGroup := bh.Group(th.AnyCallbackQuery())
	cbGroup.Use(middleware.AdminOnly(adminID))

	cbGroup.HandleCallbackQuery(h.OnAuctionsCallback, th.CallbackDataPrefix("auctions_page"))
}
