package view

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
)

const StartMessage = `🔨 <b>Аукцион NFT: администрирование</b>

/status — состояние реестра
/auctions — список аукционов
/auction <code>ID</code> — карточка аукциона
/end <code>ID</code> — завершить истёкший аукцион
/fees <code>native|TOKEN</code> — накопленные комиссии
/price <code>READER</code> <code>native|TOKEN</code> — цена из оракула
/sweep — завершить все истёкшие аукционы
/startsweep, /stopsweep — фоновый обход`

const (
	UsageAuction = "❌ Использование: /auction <code>ID</code>"
	UsageEnd     = "❌ Использование: /end <code>ID</code>"
	UsageFees    = "❌ Использование: /fees <code>native|TOKEN</code>"
	UsagePrice   = "❌ Использование: /price <code>READER</code> <code>native|TOKEN</code>"
	InvalidID    = "❌ Неверный формат ID"
	AuctionsNone = "📭 Аукционов пока нет"

	AuctionsPaginationTemplate = "📚 <b>Аукционы</b> (Стр. %d)\n\n"
	AuctionItemTemplate        = "#%d %s · старт $%s · %s\n"

	SweepAlreadyRunning = "Обход уже запущен!"
	SweepNotRunning     = "Обход не запущен!"
	SweepStarted        = "Обход запущен!"
	SweepStopped        = "Обход остановлен!"
)

func Status(admin value.Address, nextID uint64, feePolicy string, sweeping bool) string {
	if feePolicy == "" {
		feePolicy = "нет"
	}

	sweeper := "🔴 остановлен"
	if sweeping {
		sweeper = "🟢 работает"
	}

	return fmt.Sprintf(`📊 <b>Статус реестра</b>

👤 <b>Администратор:</b> <code>%s</code>
🔢 <b>Следующий ID:</b> %d
💸 <b>Комиссия:</b> %s
🧹 <b>Обход:</b> %s`,
		admin.Hex(), nextID, feePolicy, sweeper)
}

func AuctionItem(a *entity.Auction, now time.Time) string {
	return fmt.Sprintf(AuctionItemTemplate, a.ID, stateIcon(a.State(now)), value.FormatUSD(a.StartPriceUSD), shortAddress(a.HighestBidder))
}

func Auction(a *entity.Auction, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🎁 <b>Аукцион #%d</b> %s\n\n", a.ID, stateIcon(a.State(now)))
	fmt.Fprintf(&sb, "👤 <b>Продавец:</b> <code>%s</code>\n", a.Seller.Hex())
	fmt.Fprintf(&sb, "🖼 <b>NFT:</b> <code>%s</code> #%s\n", a.AssetContract.Hex(), a.AssetID)
	fmt.Fprintf(&sb, "💵 <b>Старт:</b> $%s\n", value.FormatUSD(a.StartPriceUSD))
	fmt.Fprintf(&sb, "⏰ <b>Дедлайн:</b> %s\n", a.Deadline.UTC().Format(time.RFC3339))

	if a.HasBid() {
		fmt.Fprintf(&sb, "🏆 <b>Лидер:</b> <code>%s</code>\n", a.HighestBidder.Hex())
		fmt.Fprintf(&sb, "💰 <b>Ставка:</b> %s %s\n", a.HighestBidAmount, value.CurrencyLabel(a.PaymentAsset))
	} else {
		sb.WriteString("🏆 <b>Ставок нет</b>\n")
	}

	if remaining := a.Remaining(now); remaining > 0 {
		fmt.Fprintf(&sb, "⌛ <b>Осталось:</b> %s\n", remaining.Truncate(time.Second))
	}

	return sb.String()
}

func Settled(id uint64, winner value.Address, currency value.Currency, gross, fee *big.Int) string {
	if winner == value.NoBidder {
		return fmt.Sprintf("✅ Аукцион #%d завершён без ставок, NFT возвращён продавцу", id)
	}

	return fmt.Sprintf("✅ Аукцион #%d завершён\n🏆 <code>%s</code>\n💰 %s %s, комиссия %s",
		id, winner.Hex(), value.Clone(gross), value.CurrencyLabel(currency), value.Clone(fee))
}

func FeeBalance(currency value.Currency, amount *big.Int) string {
	return fmt.Sprintf("💸 Комиссии в %s: <b>%s</b>", value.CurrencyLabel(currency), value.Clone(amount))
}

func Price(currency value.Currency, price *big.Int) string {
	return fmt.Sprintf("📈 %s = <b>$%s</b>", value.CurrencyLabel(currency), value.FormatUSD(price))
}

func Swept(ended int) string {
	return fmt.Sprintf("🧹 Завершено аукционов: %d", ended)
}

func Error(err error) string {
	return "❌ " + err.Error()
}

func stateIcon(s entity.State) string {
	switch s {
	case entity.StateCreated:
		return "🟢"
	case entity.StateExpired:
		return "🟡"
	default:
		return "⚫"
	}
}

func shortAddress(a value.Address) string {
	if a == value.NoBidder {
		return "без ставок"
	}

	hex := a.Hex()

	return hex[:6] + "…" + hex[len(hex)-4:]
}
