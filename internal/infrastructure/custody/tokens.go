package custody

import (
	"context"
	"math/big"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/value"
)

// RegisterToken объявляет токен с заданной точностью.
func (v *Vault) RegisterToken(address value.Currency, symbol string, decimals uint8) error {
	if value.IsNative(address) {
		return domain.ErrInvalidTokenAddress
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.tokens[address]; ok {
		return nil
	}
	v.tokens[address] = &token{
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[value.Address]*big.Int),
		allowances: make(map[value.Address]map[value.Address]*big.Int),
	}
	return nil
}

func (v *Vault) Symbol(address value.Currency) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return "", false
	}
	return t.symbol, true
}

func (v *Vault) Mint(address value.Currency, to value.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return domain.ErrUnknownToken
	}
	t.balances[to] = new(big.Int).Add(value.Clone(t.balances[to]), amount)
	return nil
}

func (v *Vault) Approve(address value.Currency, owner, spender value.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return domain.ErrUnknownToken
	}
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[value.Address]*big.Int)
	}
	t.allowances[owner][spender] = value.Clone(amount)
	return nil
}

func (v *Vault) BalanceOf(address value.Currency, owner value.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return new(big.Int)
	}
	return value.Clone(t.balances[owner])
}

func (v *Vault) Allowance(address value.Currency, owner, spender value.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return new(big.Int)
	}
	return value.Clone(t.allowances[owner][spender])
}

func (v *Vault) Decimals(_ context.Context, address value.Currency) (uint8, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return 0, domain.ErrUnknownToken
	}
	return t.decimals, nil
}

// TransferFrom списывает токены с from в пользу to в пределах allowance spender.
func (v *Vault) TransferFrom(
	ctx context.Context,
	address value.Currency,
	spender, from, to value.Address,
	amount *big.Int,
) error {
	if err := v.acquire(ctx); err != nil {
		return err
	}
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return domain.ErrUnknownToken
	}

	allowance := value.Clone(t.allowances[from][spender])
	if allowance.Cmp(amount) < 0 {
		return domain.ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowance.Sub(allowance, amount)
	return nil
}

func (v *Vault) Transfer(ctx context.Context, address value.Currency, from, to value.Address, amount *big.Int) error {
	if err := v.acquire(ctx); err != nil {
		return err
	}
	defer v.mu.Unlock()

	t, ok := v.tokens[address]
	if !ok {
		return domain.ErrUnknownToken
	}
	return t.move(from, to, amount)
}

func (t *token) move(from, to value.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrAmountZero
	}
	if value.IsZero(to) {
		return domain.ErrInvalidRecipient
	}
	balance := value.Clone(t.balances[from])
	if balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	t.balances[from] = balance.Sub(balance, amount)
	t.balances[to] = new(big.Int).Add(value.Clone(t.balances[to]), amount)
	return nil
}
