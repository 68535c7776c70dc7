package handler

import (
	"fmt"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"nft_auction/pkg/logx"
)

func (h *Handler) OnAuctionsCallback(ctx *th.Context, query telego.CallbackQuery) error {
	// Формат: "auctions_page:<number>"
	var page int

	_, err := fmt.Sscanf(query.Data, "auctions_page:%d", &page)
	if err != nil || page < 1 {
		page = 1
	}

	text, keyboard, err := h.auctionsPage(ctx, page)
	if err != nil {
		_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID).
			WithText("❌ Ошибка получения данных").WithShowAlert())
		return err
	}

	_, err = ctx.Bot().EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(query.Message.GetChat().ID),
		MessageID:   query.Message.GetMessageID(),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})

	// Telegram отвечает ошибкой, если текст не изменился.
	if err != nil {
		logger(ctx).Debug("EditMessageText", logx.Error(err))
	}

	_ = ctx.Bot().AnswerCallbackQuery(ctx, tu.CallbackQuery(query.ID))

	return nil
}
