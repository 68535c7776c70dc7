package config

import (
	"fmt"
	"math/big"
	"time"

	"nft_auction/internal/domain/value"
)

type Auction struct {
	RegistryAddress string        `env:"AUCTION_REGISTRY_ADDRESS" envDefault:"0x0000000000000000000000000000000000001000"`
	Admin           string        `env:"AUCTION_ADMIN,required"`
	NativeDecimals  uint8         `env:"AUCTION_NATIVE_DECIMALS" envDefault:"18"`
	MinDuration     time.Duration `env:"AUCTION_MIN_DURATION" envDefault:"600s"`
	RefundTimeout   time.Duration `env:"AUCTION_REFUND_TIMEOUT" envDefault:"2s"`
	SweepInterval   time.Duration `env:"AUCTION_SWEEP_INTERVAL" envDefault:"30s"`
}

func (a Auction) RegistryAddr() (value.Address, error) {
	return value.ParseAddress(a.RegistryAddress)
}

func (a Auction) AdminAddr() (value.Address, error) {
	return value.ParseAddress(a.Admin)
}

type Fee struct {
	// BasisPoints: комиссия в базисных пунктах; 0 отключает её.
	BasisPoints uint32 `env:"FEE_BPS" envDefault:"0"`

	// FlatAmounts: фиксированная комиссия по валютам: native=1000,0xToken=5.
	FlatAmounts map[string]string `env:"FEE_FLAT" envSeparator:"," envKeyValSeparator:"="`

	// Recipient пустой: комиссия зачисляется администратору.
	Recipient string `env:"FEE_RECIPIENT"`
}

func (f Fee) RecipientAddr() (value.Address, error) {
	if f.Recipient == "" {
		return value.Address{}, nil
	}
	return value.ParseAddress(f.Recipient)
}

// Flat разбирает FEE_FLAT в суммы по валютам.
func (f Fee) Flat() (map[value.Currency]*big.Int, error) {
	out := make(map[value.Currency]*big.Int, len(f.FlatAmounts))

	for k, v := range f.FlatAmounts {
		currency, err := ParseCurrency(k)
		if err != nil {
			return nil, err
		}

		amount, err := value.ParseInt(v)
		if err != nil {
			return nil, fmt.Errorf("FEE_FLAT %s: %w", k, err)
		}

		out[currency] = amount
	}

	return out, nil
}

// ParseCurrency принимает "native" или адрес токена.
func ParseCurrency(s string) (value.Currency, error) {
	if s == "native" {
		return value.NativeCurrency, nil
	}
	return value.ParseAddress(s)
}
