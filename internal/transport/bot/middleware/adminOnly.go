package middleware

import (
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"

	"nft_auction/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// AdminOnly пропускает только обновления от администратора бота,
// остальные молча отбрасываются.
func AdminOnly(adminID int64) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		var from *telego.User

		switch {
		case update.Message != nil:
			from = update.Message.From
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
		}

		if from == nil {
			return nil
		}

		if from.ID == adminID {
			return ctx.Next(update)
		}

		logger(ctx).Warn("bot update from non-admin dropped", slog.Int64("user-id", from.ID))

		return nil
	}
}
