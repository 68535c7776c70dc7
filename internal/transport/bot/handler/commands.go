package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"nft_auction/internal/domain/value"
	"nft_auction/internal/transport/bot/view"
	"nft_auction/pkg/logx"
)

func (h *Handler) OnStart(ctx *th.Context, msg telego.Message) error {
	return h.sendHTML(ctx, msg.Chat.ID, view.StartMessage)
}

func (h *Handler) OnStatus(ctx *th.Context, msg telego.Message) error {
	admin, err := h.svc.Admin(ctx)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	nextID, err := h.svc.NextAuctionID(ctx)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	policy, err := h.svc.FeePolicy(ctx)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Status(admin, nextID, policy, h.sweeper.IsRunning()))
}

func (h *Handler) OnAuctions(ctx *th.Context, msg telego.Message) error {
	page := 1

	if args := strings.Fields(msg.Text); len(args) > 1 {
		if p, err := strconv.Atoi(args[1]); err == nil && p > 0 {
			page = p
		}
	}

	text, keyboard, err := h.auctionsPage(ctx, page)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	_, err = ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:      tu.ID(msg.Chat.ID),
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: keyboard,
	})
	return err
}

func (h *Handler) OnAuction(ctx *th.Context, msg telego.Message) error {
	id, ok := parseID(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageAuction)
	}

	a, err := h.svc.GetAuction(ctx, id)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Auction(a, h.now()))
}

// OnEnd завершает истёкший аукцион от имени администратора реестра.
func (h *Handler) OnEnd(ctx *th.Context, msg telego.Message) error {
	id, ok := parseID(msg.Text)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageEnd)
	}

	admin, err := h.svc.Admin(ctx)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	s, err := h.svc.EndAuction(ctx, admin, id)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Settled(id, s.Winner, s.Currency, s.Gross, s.Fee))
}

func (h *Handler) OnFees(ctx *th.Context, msg telego.Message) error {
	args := strings.Fields(msg.Text)
	if len(args) < 2 {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageFees)
	}

	currency, err := parseCurrency(args[1])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsageFees)
	}

	balance, err := h.svc.FeeBalance(ctx, currency)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.FeeBalance(currency, balance))
}

func (h *Handler) OnPrice(ctx *th.Context, msg telego.Message) error {
	args := strings.Fields(msg.Text)
	if len(args) < 3 {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsagePrice)
	}

	readerAddress, err := value.ParseAddress(args[1])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsagePrice)
	}

	currency, err := parseCurrency(args[2])
	if err != nil {
		return h.sendHTML(ctx, msg.Chat.ID, view.UsagePrice)
	}

	reader, ok := h.prices(readerAddress)
	if !ok {
		return h.sendHTML(ctx, msg.Chat.ID, view.Error(fmt.Errorf("oracle reader %s not found", readerAddress.Hex())))
	}

	price, err := reader.GetPrice(ctx, currency)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Price(currency, price))
}

func (h *Handler) OnSweep(ctx *th.Context, msg telego.Message) error {
	ended, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.sendHTML(ctx, msg.Chat.ID, view.Swept(ended))
}

func (h *Handler) OnStartSweep(ctx *th.Context, msg telego.Message) error {
	if h.sweeper.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SweepAlreadyRunning)
	}

	if err := h.sweeper.Start(h.sweepCtx); err != nil {
		return h.sendError(ctx, msg.Chat.ID, err)
	}

	return h.send(ctx, msg.Chat.ID, view.SweepStarted)
}

func (h *Handler) OnStopSweep(ctx *th.Context, msg telego.Message) error {
	if !h.sweeper.IsRunning() {
		return h.send(ctx, msg.Chat.ID, view.SweepNotRunning)
	}

	h.sweeper.Stop()

	return h.send(ctx, msg.Chat.ID, view.SweepStopped)
}

func (h *Handler) auctionsPage(ctx *th.Context, page int) (string, *telego.InlineKeyboardMarkup, error) {
	// Лишний элемент показывает, есть ли следующая страница.
	items, err := h.svc.ListAuctions(ctx, (page-1)*pageSize, pageSize+1)
	if err != nil {
		return "", nil, err
	}

	hasNext := len(items) > pageSize
	if hasNext {
		items = items[:pageSize]
	}

	if len(items) == 0 {
		return view.AuctionsNone, nil, nil
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, view.AuctionsPaginationTemplate, page)

	now := h.now()
	for _, a := range items {
		sb.WriteString(view.AuctionItem(a, now))
	}

	return sb.String(), createPaginationKeyboard(page, hasNext), nil
}

func createPaginationKeyboard(page int, hasNext bool) *telego.InlineKeyboardMarkup {
	var buttons []telego.InlineKeyboardButton

	if page > 1 {
		buttons = append(buttons, tu.InlineKeyboardButton("⬅️").
			WithCallbackData(fmt.Sprintf("auctions_page:%d", page-1)))
	}

	buttons = append(buttons, tu.InlineKeyboardButton(strconv.Itoa(page)).
		WithCallbackData("noop")) // noop = no operation

	if hasNext {
		buttons = append(buttons, tu.InlineKeyboardButton("➡️").
			WithCallbackData(fmt.Sprintf("auctions_page:%d", page+1)))
	}

	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(buttons...),
	)
}

func parseID(text string) (uint64, bool) {
	args := strings.Fields(text)
	if len(args) < 2 {
		return 0, false
	}

	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

func parseCurrency(s string) (value.Currency, error) {
	if strings.EqualFold(s, "native") {
		return value.NativeCurrency, nil
	}

	return value.ParseAddress(s)
}

// Вспомогательные методы

func (h *Handler) sendError(ctx *th.Context, chatID int64, err error) error {
	logger(ctx).Warn("bot command failed", logx.Error(err))
	return h.sendHTML(ctx, chatID, view.Error(err))
}

func (h *Handler) sendHTML(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    tu.ID(chatID),
		Text:      text,
		ParseMode: telego.ModeHTML,
	})
	return err
}

func (h *Handler) send(ctx *th.Context, chatID int64, text string) error {
	_, err := ctx.Bot().SendMessage(ctx, &telego.SendMessageParams{
		ChatID: tu.ID(chatID),
		Text:   text,
	})
	return err
}
