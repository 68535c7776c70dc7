package chainlink

import (
	"context"
	"math/big"
	"sync"
	"time"

	"nft_auction/internal/domain/service/oracle"
	"nft_auction/internal/domain/value"
)

// ManualFeed: агрегатор, значения которого выставляются вручную.
// Используется в dev-окружении и тестах вместо сети оракулов.
type ManualFeed struct {
	address  value.Address
	decimals uint8
	now      func() time.Time

	mu      sync.Mutex
	round   oracle.RoundData
	failure error
}

func NewManualFeed(address value.Address, decimals uint8, answer *big.Int) *ManualFeed {
	f := &ManualFeed{
		address:  address,
		decimals: decimals,
		now:      time.Now,
	}
	f.round = oracle.RoundData{RoundID: new(big.Int)}
	f.UpdateAnswer(answer)

	return f
}

func (f *ManualFeed) WithClock(now func() time.Time) *ManualFeed {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = now
	f.round.StartedAt = now()
	f.round.UpdatedAt = f.round.StartedAt

	return f
}

func (f *ManualFeed) Address() value.Address {
	return f.address
}

func (f *ManualFeed) Decimals() uint8 {
	return f.decimals
}

func (f *ManualFeed) LatestRoundData(context.Context) (oracle.RoundData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failure != nil {
		return oracle.RoundData{}, f.failure
	}

	return oracle.RoundData{
		RoundID:         value.Clone(f.round.RoundID),
		Answer:          value.Clone(f.round.Answer),
		StartedAt:       f.round.StartedAt,
		UpdatedAt:       f.round.UpdatedAt,
		AnsweredInRound: value.Clone(f.round.AnsweredInRound),
	}, nil
}

// UpdateAnswer открывает новый завершённый раунд с текущим временем.
func (f *ManualFeed) UpdateAnswer(answer *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := new(big.Int).Add(f.round.RoundID, big.NewInt(1))
	now := f.now()

	f.round = oracle.RoundData{
		RoundID:         id,
		Answer:          value.Clone(answer),
		StartedAt:       now,
		UpdatedAt:       now,
		AnsweredInRound: new(big.Int).Set(id),
	}
}

// UpdateRoundData выставляет раунд целиком, включая несогласованные значения.
func (f *ManualFeed) UpdateRoundData(roundID uint64, answer *big.Int, startedAt, updatedAt time.Time, answeredInRound uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.round = oracle.RoundData{
		RoundID:         new(big.Int).SetUint64(roundID),
		Answer:          value.Clone(answer),
		StartedAt:       startedAt,
		UpdatedAt:       updatedAt,
		AnsweredInRound: new(big.Int).SetUint64(answeredInRound),
	}
}

// Fail заставляет LatestRoundData возвращать err; nil снимает отказ.
func (f *ManualFeed) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failure = err
}

// Heartbeat переподтверждает текущий ответ с интервалом, чтобы ручной фид
// в dev-окружении не устаревал. Блокируется до отмены контекста.
func (f *ManualFeed) Heartbeat(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.mu.Lock()
			answer := value.Clone(f.round.Answer)
			f.mu.Unlock()

			f.UpdateAnswer(answer)
		}
	}
}
