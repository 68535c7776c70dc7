package value

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// USDDecimals: число знаков после запятой в USD-оценках (соглашение Chainlink).
const USDDecimals = 8

// USD переводит целое число долларов в формат с фиксированной точкой.
func USD(dollars int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(dollars), Pow10(USDDecimals))
}

// Pow10 возвращает 10^n.
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Units переводит человекочитаемое значение в минимальные единицы актива.
func Units(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("decimal.NewFromString: %w", err)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}

	return scaled.BigInt(), nil
}

// MustUnits: Units для констант и тестов.
func MustUnits(amount string, decimals uint8) *big.Int {
	v, err := Units(amount, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatUnits форматирует сырое значение с учётом точности актива.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// FormatUSD форматирует USD-оценку с фиксированной точкой.
func FormatUSD(v *big.Int) string {
	return FormatUnits(v, USDDecimals)
}

// ParseInt разбирает десятичную строку в неотрицательное целое.
func ParseInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative integer %q", s)
	}
	return v, nil
}

// Clone копирует значение; nil превращается в ноль.
func Clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
