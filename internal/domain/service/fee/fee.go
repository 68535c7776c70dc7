package fee

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"nft_auction/internal/domain/value"
)

// MaxBasisPoints: 100% в базисных пунктах.
const MaxBasisPoints = 10_000

// BasisPoints берёт долю выручки в базисных пунктах, округляя вниз.
type BasisPoints struct {
	bps       uint32
	recipient value.Address
}

func NewBasisPoints(bps uint32, recipient value.Address) (*BasisPoints, error) {
	if bps > MaxBasisPoints {
		return nil, fmt.Errorf("fee rate %d bps exceeds %d", bps, MaxBasisPoints)
	}

	return &BasisPoints{bps: bps, recipient: recipient}, nil
}

func (p *BasisPoints) Name() string {
	return fmt.Sprintf("basis-points:%d", p.bps)
}

func (p *BasisPoints) Rate() uint32 {
	return p.bps
}

func (p *BasisPoints) ComputeFee(
	_ context.Context,
	_ uint64,
	_ value.Currency,
	gross *big.Int,
) (*big.Int, value.Address, error) {
	if gross == nil || gross.Sign() <= 0 {
		return new(big.Int), p.recipient, nil
	}

	rate := decimal.New(int64(p.bps), -4)
	fee := decimal.NewFromBigInt(gross, 0).Mul(rate).Truncate(0)

	return fee.BigInt(), p.recipient, nil
}

// Flat берёт фиксированную сумму в каждой валюте независимо от выручки.
// Валюты без суммы не облагаются.
type Flat struct {
	amounts   map[value.Currency]*big.Int
	recipient value.Address
}

func NewFlat(recipient value.Address, amounts map[value.Currency]*big.Int) *Flat {
	copied := make(map[value.Currency]*big.Int, len(amounts))
	for c, a := range amounts {
		copied[c] = value.Clone(a)
	}

	return &Flat{amounts: copied, recipient: recipient}
}

func (p *Flat) Name() string {
	return "flat"
}

func (p *Flat) ComputeFee(
	_ context.Context,
	_ uint64,
	currency value.Currency,
	_ *big.Int,
) (*big.Int, value.Address, error) {
	amount, ok := p.amounts[currency]
	if !ok {
		return new(big.Int), p.recipient, nil
	}

	return new(big.Int).Set(amount), p.recipient, nil
}
