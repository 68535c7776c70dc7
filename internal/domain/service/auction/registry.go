package auction

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/xid"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
)

const (
	DefaultMinDuration    = 600 * time.Second
	DefaultRefundTimeout  = 2 * time.Second
	DefaultNativeDecimals = 18
	maxListLimit          = 100
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Config struct {
	// Address: собственный адрес реестра в хранилище активов.
	Address        value.Address
	NativeDecimals uint8
	MinDuration    time.Duration
	RefundTimeout  time.Duration
}

// Registry: реестр аукционов. Всё состояние хранится в Store, поэтому
// новый Registry поверх того же Store продолжает работу с тем же состоянием.
type Registry struct {
	cfg     Config
	store   Store
	oracles OracleResolver
	nft     NFTCustody
	tokens  TokenBank
	native  NativeBank

	now       func() time.Time
	publisher Publisher

	// sem сериализует изменяющие вызовы.
	sem chan struct{}

	// external: операция, ожидающая обработчик получателя нативного перевода.
	externalMu sync.Mutex
	external   *operation

	policiesMu sync.RWMutex
	policies   map[string]FeePolicy
}

func NewRegistry(
	cfg Config,
	store Store,
	oracles OracleResolver,
	nft NFTCustody,
	tokens TokenBank,
	native NativeBank,
) *Registry {
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultMinDuration
	}
	if cfg.RefundTimeout <= 0 {
		cfg.RefundTimeout = DefaultRefundTimeout
	}
	if cfg.NativeDecimals == 0 {
		cfg.NativeDecimals = DefaultNativeDecimals
	}

	return &Registry{
		cfg:       cfg,
		store:     store,
		oracles:   oracles,
		nft:       nft,
		tokens:    tokens,
		native:    native,
		now:       time.Now,
		publisher: nopPublisher{},
		sem:       make(chan struct{}, 1),
		policies:  make(map[string]FeePolicy),
	}
}

func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) WithPublisher(p Publisher) *Registry {
	r.publisher = p
	return r
}

// WithFeePolicies делает политики доступными по имени: сохранённая ссылка
// на политику восстанавливается после замены логики.
func (r *Registry) WithFeePolicies(policies ...FeePolicy) *Registry {
	for _, p := range policies {
		r.registerPolicy(p)
	}
	return r
}

func (r *Registry) Address() value.Address {
	return r.cfg.Address
}

func (r *Registry) MinDuration() time.Duration {
	return r.cfg.MinDuration
}

// Initialize задаёт администратора при первом запуске. Повторный вызов
// состояние не меняет.
func (r *Registry) Initialize(ctx context.Context, admin value.Address) error {
	if value.IsZero(admin) {
		return domain.NewError(errcodes.InvalidAddress, "admin address is zero")
	}

	return r.mutate(ctx, "initialize", func(ctx context.Context, tx Tx, _ *operation) error {
		meta, ok, err := tx.Meta(ctx)
		if err != nil {
			return err
		}

		if ok {
			if meta.Admin != admin {
				logger(ctx).Warn("registry already initialized",
					"admin", meta.Admin.Hex(),
					"requested", admin.Hex(),
				)
			}
			return nil
		}

		return tx.SetMeta(ctx, Meta{Admin: admin})
	})
}

// Receive отклоняет прямые переводы нативного актива на адрес реестра.
func (r *Registry) Receive(ctx context.Context, from value.Address, amount *big.Int) error {
	logger(ctx).Warn("direct transfer rejected",
		"from", from.Hex(),
		"amount", value.Clone(amount).String(),
	)
	return domain.ErrDirectTransferRejected
}

// mutate выполняет изменяющую операцию: без вложенных вызовов, в одной
// транзакции хранилища, с откатом внешних переводов при ошибке.
// События отправляются подписчикам после фиксации и освобождения реестра.
func (r *Registry) mutate(
	ctx context.Context,
	name string,
	fn func(ctx context.Context, tx Tx, op *operation) error,
) error {
	if id, err := contextx.OperationIDFromContext(ctx); err == nil {
		logger(ctx).Warn("reentrant call rejected", "operation", name, "in_flight", id.String())
		return domain.ErrReentrantCall
	}

	// Вызов, пришедший во время нативного перевода, мог начать обработчик
	// получателя без контекста операции.
	pending := r.pendingExternal()

	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return domain.WrapError(ctx.Err(), errcodes.TimeoutExceeded, "registry is busy")
	}

	if pending != nil && r.reverted(pending) {
		<-r.sem
		logger(ctx).Warn("call issued during reverted transfer rejected", "operation", name, "reverted", pending.name)
		return domain.ErrReentrantCall
	}

	events, err := r.run(ctx, name, fn)
	<-r.sem

	if err != nil {
		return err
	}

	if len(events) > 0 {
		r.publisher.Publish(context.WithoutCancel(ctx), events...)
	}

	return nil
}

// run выполняет операцию под захваченным sem.
func (r *Registry) run(
	ctx context.Context,
	name string,
	fn func(ctx context.Context, tx Tx, op *operation) error,
) ([]entity.Event, error) {
	opID := contextx.OperationID(name + ":" + xid.New().String())
	ctx = contextx.WithOperationID(ctx, opID)

	op := &operation{name: name}

	err := r.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := fn(ctx, tx, op); err != nil {
			return err
		}
		if len(op.events) == 0 {
			return nil
		}
		return tx.AppendEvents(ctx, op.events...)
	})
	if err != nil {
		r.externalMu.Lock()
		op.reverted = true
		r.externalMu.Unlock()

		op.rollback(ctx)
		return nil, err
	}

	return op.events, nil
}

// send переводит нативный актив получателю с вызовом его обработчика.
// Время обработчика ограничено RefundTimeout.
func (r *Registry) send(ctx context.Context, op *operation, to value.Address, amount *big.Int) error {
	sendCtx, cancel := context.WithTimeout(ctx, r.cfg.RefundTimeout)
	defer cancel()

	r.setExternal(op)
	defer r.setExternal(nil)

	return r.native.Send(sendCtx, r.cfg.Address, to, amount)
}

func (r *Registry) setExternal(op *operation) {
	r.externalMu.Lock()
	defer r.externalMu.Unlock()
	r.external = op
}

func (r *Registry) pendingExternal() *operation {
	r.externalMu.Lock()
	defer r.externalMu.Unlock()
	return r.external
}

func (r *Registry) reverted(op *operation) bool {
	r.externalMu.Lock()
	defer r.externalMu.Unlock()
	return op.reverted
}

func (r *Registry) meta(ctx context.Context, s StateReader) (Meta, error) {
	meta, ok, err := s.Meta(ctx)
	if err != nil {
		return Meta{}, err
	}
	if !ok {
		return Meta{}, domain.NewError(errcodes.InternalServerError, "registry is not initialized")
	}
	return meta, nil
}

func (r *Registry) resolveOracle(address value.Address) (PriceOracle, error) {
	o, ok := r.oracles.Resolve(address)
	if !ok || o == nil {
		return nil, domain.ErrInvalidOracleReader
	}
	return o, nil
}

func (r *Registry) decimals(ctx context.Context, currency value.Currency) (uint8, error) {
	if value.IsNative(currency) {
		return r.cfg.NativeDecimals, nil
	}

	d, err := r.tokens.Decimals(ctx, currency)
	if err != nil {
		return 0, fmt.Errorf("token decimals: %w", err)
	}
	return d, nil
}

func (r *Registry) registerPolicy(p FeePolicy) {
	r.policiesMu.Lock()
	defer r.policiesMu.Unlock()
	r.policies[p.Name()] = p
}

func (r *Registry) policy(name string) (FeePolicy, error) {
	if name == "" {
		return nil, nil
	}

	r.policiesMu.RLock()
	defer r.policiesMu.RUnlock()

	p, ok := r.policies[name]
	if !ok {
		return nil, domain.NewError(errcodes.InternalServerError, fmt.Sprintf("fee policy %q is not registered", name))
	}
	return p, nil
}

func (r *Registry) newEvent(t entity.EventType) entity.Event {
	return entity.Event{
		ID:         eventID(),
		Type:       t,
		OccurredAt: r.now(),
	}
}
