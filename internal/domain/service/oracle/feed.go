package oracle

import (
	"context"
	"math/big"
	"time"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
)

// RoundData: ответ агрегатора в форме latestRoundData.
type RoundData struct {
	RoundID         *big.Int
	Answer          *big.Int
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound *big.Int
}

// Feed: внешний ценовой фид. Ответы считаются недоверенными и проходят
// валидацию в Reader.
type Feed interface {
	Address() value.Address
	LatestRoundData(ctx context.Context) (RoundData, error)
}

type Publisher interface {
	Publish(ctx context.Context, events ...entity.Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...entity.Event) {}
