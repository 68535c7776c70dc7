package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// Run пересылает события аукционов в чат, пока канал открыт.
func (b *TelegramBot) Run(ctx context.Context, events <-chan entity.Event) error {
	logger(ctx).Info("notifier started", slog.Int64("chat-id", b.chatID))

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("notifier stopped")
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if err := b.SendEvent(ctx, e); err != nil {
				logger(ctx).Error("failed to send event",
					slog.String(logx.FieldEventType, string(e.Type)),
					logx.Error(err),
				)
			}
		}
	}
}

func (b *TelegramBot) SendEvent(ctx context.Context, e entity.Event) error {
	text, ok := FormatEvent(e)
	if !ok {
		return nil
	}

	msg := tu.Message(
		tu.ID(b.chatID),
		text,
	).WithParseMode(telego.ModeHTML)

	_, err := b.bot.SendMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText отправляет простое текстовое сообщение.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.bot.SendMessage(ctx, msg)
	return err
}

// FormatEvent готовит HTML-текст уведомления. Второе значение false
// означает, что событие в чат не отправляется.
func FormatEvent(e entity.Event) (string, bool) {
	var id uint64
	if e.AuctionID != nil {
		id = *e.AuctionID
	}

	switch e.Type {
	case entity.EventAuctionCreated:
		return fmt.Sprintf(
			"🆕 <b>Аукцион #%d создан</b>\n\n"+
				"👤 <b>Продавец:</b> <code>%s</code>\n"+
				"💵 <b>Старт:</b> $%s",
			id, e.Actor.Hex(), value.FormatUSD(e.Amount),
		), true
	case entity.EventNewHighestBid:
		return fmt.Sprintf(
			"🔥 <b>Новая ставка в аукционе #%d</b>\n\n"+
				"👤 <code>%s</code>\n"+
				"💰 %s %s",
			id, e.Actor.Hex(), value.Clone(e.Amount), value.CurrencyLabel(e.Currency),
		), true
	case entity.EventAuctionEnded:
		if e.Recipient == value.NoBidder {
			return fmt.Sprintf("⚫ <b>Аукцион #%d завершён без ставок</b>", id), true
		}
		return fmt.Sprintf(
			"🏆 <b>Аукцион #%d завершён</b>\n\n"+
				"👤 <b>Победитель:</b> <code>%s</code>\n"+
				"💰 %s %s",
			id, e.Recipient.Hex(), value.Clone(e.Amount), value.CurrencyLabel(e.Currency),
		), true
	case entity.EventFeeWithdrawn:
		return fmt.Sprintf(
			"💸 <b>Вывод комиссий</b>\n\n%s %s → <code>%s</code>",
			value.Clone(e.Amount), value.CurrencyLabel(e.Currency), e.Recipient.Hex(),
		), true
	case entity.EventFeePolicyUpdated:
		return fmt.Sprintf(
			"⚙️ <b>Политика комиссии</b>: %s → %s",
			html.EscapeString(orNone(e.Old)), html.EscapeString(orNone(e.New)),
		), true
	case entity.EventOwnershipTransferred:
		return fmt.Sprintf(
			"🔑 <b>Владелец оракула сменён</b>\n\n<code>%s</code> → <code>%s</code>",
			html.EscapeString(e.Old), html.EscapeString(e.New),
		), true
	default:
		return "", false
	}
}

func orNone(s string) string {
	if s == "" {
		return "нет"
	}
	return s
}
