package config

import (
	"fmt"
	"time"

	"nft_auction/internal/domain/value"
)

type Chain struct {
	// RPCURL пустой: фиды цен ручные, без обращения к сети.
	RPCURL     string        `env:"CHAIN_RPC_URL" json:"-"`
	RPCTimeout time.Duration `env:"CHAIN_RPC_TIMEOUT" envDefault:"10s"`
	Token      string        `env:"CHAIN_RPC_TOKEN" json:"-"`
}

func (c Chain) Enabled() bool {
	return c.RPCURL != ""
}

type Oracle struct {
	ReaderAddress string `env:"ORACLE_READER_ADDRESS" envDefault:"0x0000000000000000000000000000000000002000"`

	// Feeds: адреса агрегаторов Chainlink по валютам: native=0xFeed,0xToken=0xFeed.
	Feeds map[string]string `env:"ORACLE_FEEDS" envSeparator:"," envKeyValSeparator:"="`

	// ManualPrices: цены в USD для ручных фидов: native=2800,0xToken=1.
	ManualPrices map[string]string `env:"ORACLE_MANUAL_PRICES" envSeparator:"," envKeyValSeparator:"=" envDefault:"native=2800"`

	// Tokens: точность токенов локального хранилища: 0xToken=6.
	Tokens map[string]uint8 `env:"ORACLE_TOKENS" envSeparator:"," envKeyValSeparator:"="`

	Heartbeat time.Duration `env:"ORACLE_MANUAL_HEARTBEAT" envDefault:"10m"`
}

func (o Oracle) ReaderAddr() (value.Address, error) {
	return value.ParseAddress(o.ReaderAddress)
}

// FeedAddrs разбирает ORACLE_FEEDS.
func (o Oracle) FeedAddrs() (map[value.Currency]value.Address, error) {
	out := make(map[value.Currency]value.Address, len(o.Feeds))

	for k, v := range o.Feeds {
		currency, err := ParseCurrency(k)
		if err != nil {
			return nil, fmt.Errorf("ORACLE_FEEDS key: %w", err)
		}

		feed, err := value.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("ORACLE_FEEDS %s: %w", k, err)
		}

		out[currency] = feed
	}

	return out, nil
}
