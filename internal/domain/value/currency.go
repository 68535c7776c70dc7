package value

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Address идентифицирует участника, контракт или ценовой фид.
type Address = common.Address

// Currency идентифицирует валюту ставки: нулевой адрес означает нативный актив,
// любой другой адрес указывает на контракт токена.
type Currency = common.Address

// NativeCurrency: сентинел нативного актива сети.
var NativeCurrency = Currency{} //nolint:gochecknoglobals

// NoBidder: сентинел «ставок ещё не было».
var NoBidder = Address{} //nolint:gochecknoglobals

func IsNative(c Currency) bool {
	return c == NativeCurrency
}

func IsZero(a Address) bool {
	return a == (Address{})
}

// ParseAddress разбирает hex-адрес в формате 0x....
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("invalid hex address %q", s)
	}
	return common.HexToAddress(s), nil
}

// CurrencyLabel возвращает человекочитаемое обозначение валюты.
func CurrencyLabel(c Currency) string {
	if IsNative(c) {
		return "native"
	}
	return c.Hex()
}
