package custody

import (
	"context"
	"math/big"
	"sync"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// ReceiveHook вызывается при поступлении нативного актива через Send.
// Ошибка хука отменяет перевод.
type ReceiveHook func(ctx context.Context, from value.Address, amount *big.Int) error

type token struct {
	symbol     string
	decimals   uint8
	balances   map[value.Address]*big.Int
	allowances map[value.Address]map[value.Address]*big.Int
}

// session: работающий обработчик получателя.
type session struct {
	done chan struct{}
}

type sessionKey struct{}

type nft struct {
	owner    value.Address
	approved value.Address
}

// Vault: учёт балансов нативного актива, токенов и NFT в памяти процесса.
type Vault struct {
	mu        sync.Mutex
	native    map[value.Address]*big.Int
	tokens    map[value.Currency]*token
	nfts      map[value.Address]map[string]*nft
	operators map[value.Address]map[value.Address]map[value.Address]bool
	hooks     map[value.Address]ReceiveHook
	session   *session
}

func NewVault() *Vault {
	return &Vault{
		native:    make(map[value.Address]*big.Int),
		tokens:    make(map[value.Currency]*token),
		nfts:      make(map[value.Address]map[string]*nft),
		operators: make(map[value.Address]map[value.Address]map[value.Address]bool),
		hooks:     make(map[value.Address]ReceiveHook),
	}
}

// OnReceive задаёт обработчик входящих нативных переводов; nil снимает его.
func (v *Vault) OnReceive(address value.Address, hook ReceiveHook) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if hook == nil {
		delete(v.hooks, address)
		return
	}
	v.hooks[address] = hook
}

// Deposit зачисляет нативный актив на адрес.
func (v *Vault) Deposit(to value.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.native[to] = new(big.Int).Add(value.Clone(v.native[to]), amount)
}

func (v *Vault) NativeBalance(address value.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return value.Clone(v.native[address])
}

// Move переносит нативный актив без вызова обработчика получателя.
func (v *Vault) Move(ctx context.Context, from, to value.Address, amount *big.Int) error {
	if err := v.acquire(ctx); err != nil {
		return err
	}
	defer v.mu.Unlock()
	return v.moveNative(from, to, amount)
}

// Send переносит нативный актив и вызывает обработчик получателя. Время
// обработчика ограничено контекстом; при ошибке перевод отменяется.
// Пока обработчик работает, остальные переводы ждут, поэтому отмена
// перевода не может упасть.
func (v *Vault) Send(ctx context.Context, from, to value.Address, amount *big.Int) error {
	if err := v.acquire(ctx); err != nil {
		return err
	}
	if err := v.moveNative(from, to, amount); err != nil {
		v.mu.Unlock()
		return err
	}
	hook := v.hooks[to]
	if hook == nil {
		v.mu.Unlock()
		return nil
	}
	s := &session{done: make(chan struct{})}
	v.session = s
	v.mu.Unlock()

	err := runHook(context.WithValue(ctx, sessionKey{}, s), hook, from, amount)

	v.mu.Lock()
	defer v.mu.Unlock()
	defer close(s.done)
	v.session = nil

	if err != nil {
		logger(ctx).Info("native transfer reverted by recipient",
			"from", from.Hex(),
			"to", to.Hex(),
			logx.Error(err),
		)

		if rbErr := v.moveNative(to, from, amount); rbErr != nil {
			logger(ctx).Error("native transfer revert failed", "to", to.Hex(), logx.Error(rbErr))
		}
		return err
	}

	return nil
}

// acquire захватывает v.mu для перевода. Переводы из обработчика
// получателя запрещены, даже если обработчик уже брошен по таймауту.
func (v *Vault) acquire(ctx context.Context) error {
	if _, ok := ctx.Value(sessionKey{}).(*session); ok {
		return domain.ErrStateChangeInHook
	}

	for {
		v.mu.Lock()
		s := v.session
		if s == nil {
			return nil
		}
		v.mu.Unlock()

		select {
		case <-s.done:
		case <-ctx.Done():
			return domain.WrapError(ctx.Err(), errcodes.TimeoutExceeded, "vault is busy")
		}
	}
}

func runHook(ctx context.Context, hook ReceiveHook, from value.Address, amount *big.Int) error {
	done := make(chan error, 1)
	go func() {
		done <- hook(ctx, from, value.Clone(amount))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Vault) moveNative(from, to value.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domain.ErrAmountZero
	}
	balance := value.Clone(v.native[from])
	if balance.Cmp(amount) < 0 {
		return domain.ErrInsufficientBalance
	}
	v.native[from] = balance.Sub(balance, amount)
	v.native[to] = new(big.Int).Add(value.Clone(v.native[to]), amount)
	return nil
}
