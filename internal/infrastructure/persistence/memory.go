package persistence

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/errcodes"
)

// MemoryStore хранит состояние реестра в памяти процесса. Транзакция
// работает над копией состояния и подменяет его при фиксации.
type MemoryStore struct {
	txMu sync.Mutex

	mu    sync.RWMutex
	state *memoryState
}

type memoryState struct {
	meta        auction.Meta
	initialized bool
	auctions    map[uint64]*entity.Auction
	fees        map[value.Currency]*big.Int
	events      []entity.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			auctions: make(map[uint64]*entity.Auction),
			fees:     make(map[value.Currency]*big.Int),
		},
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		meta:        s.meta,
		initialized: s.initialized,
		auctions:    make(map[uint64]*entity.Auction, len(s.auctions)),
		fees:        make(map[value.Currency]*big.Int, len(s.fees)),
		// журнал только дополняется, общий префикс не меняется
		events: s.events[:len(s.events):len(s.events)],
	}
	for id, a := range s.auctions {
		c.auctions[id] = a.Clone()
	}
	for cur, amount := range s.fees {
		c.fees[cur] = value.Clone(amount)
	}
	return c
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx auction.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	work := m.state.clone()
	m.mu.RUnlock()

	if err := fn(ctx, &memoryTx{state: work}); err != nil {
		return err
	}

	m.mu.Lock()
	m.state = work
	m.mu.Unlock()

	return nil
}

// view отдаёт зафиксированное состояние: после фиксации оно не меняется,
// следующая транзакция работает над копией.
func (m *MemoryStore) view() *memoryTx {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &memoryTx{state: m.state}
}

func (m *MemoryStore) Meta(ctx context.Context) (auction.Meta, bool, error) {
	return m.view().Meta(ctx)
}

func (m *MemoryStore) GetAuction(ctx context.Context, id uint64) (*entity.Auction, error) {
	return m.view().GetAuction(ctx, id)
}

func (m *MemoryStore) ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error) {
	return m.view().ListAuctions(ctx, offset, limit)
}

func (m *MemoryStore) FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error) {
	return m.view().FeeBalance(ctx, currency)
}

func (m *MemoryStore) ListEvents(ctx context.Context, auctionID uint64) ([]entity.Event, error) {
	return m.view().ListEvents(ctx, auctionID)
}

// memoryTx не синхронизирован: им владеет одна транзакция либо он
// читает неизменяемое зафиксированное состояние.
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) Meta(context.Context) (auction.Meta, bool, error) {
	return t.state.meta, t.state.initialized, nil
}

func (t *memoryTx) SetMeta(_ context.Context, meta auction.Meta) error {
	t.state.meta = meta
	t.state.initialized = true
	return nil
}

func (t *memoryTx) GetAuction(_ context.Context, id uint64) (*entity.Auction, error) {
	a, ok := t.state.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionDoesNotExist
	}
	return a.Clone(), nil
}

func (t *memoryTx) ListAuctions(_ context.Context, offset, limit int) ([]*entity.Auction, error) {
	ids := make([]uint64, 0, len(t.state.auctions))
	for id := range t.state.auctions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return []*entity.Auction{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	out := make([]*entity.Auction, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.state.auctions[id].Clone())
	}
	return out, nil
}

func (t *memoryTx) InsertAuction(_ context.Context, a *entity.Auction) error {
	if _, ok := t.state.auctions[a.ID]; ok {
		return domain.NewError(errcodes.InternalServerError, "auction id already used")
	}
	t.state.auctions[a.ID] = a.Clone()
	return nil
}

func (t *memoryTx) UpdateAuction(_ context.Context, a *entity.Auction) error {
	if _, ok := t.state.auctions[a.ID]; !ok {
		return domain.ErrAuctionDoesNotExist
	}
	t.state.auctions[a.ID] = a.Clone()
	return nil
}

func (t *memoryTx) FeeBalance(_ context.Context, currency value.Currency) (*big.Int, error) {
	return value.Clone(t.state.fees[currency]), nil
}

func (t *memoryTx) SetFeeBalance(_ context.Context, currency value.Currency, amount *big.Int) error {
	t.state.fees[currency] = value.Clone(amount)
	return nil
}

func (t *memoryTx) AppendEvents(_ context.Context, events ...entity.Event) error {
	t.state.events = append(t.state.events, events...)
	return nil
}

func (t *memoryTx) ListEvents(_ context.Context, auctionID uint64) ([]entity.Event, error) {
	out := make([]entity.Event, 0)
	for _, e := range t.state.events {
		if e.AuctionID != nil && *e.AuctionID == auctionID {
			out = append(out, e)
		}
	}
	return out, nil
}
