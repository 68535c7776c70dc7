package eventbus

import (
	"context"
	"sync"

	"nft_auction/internal/domain/entity"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/metrics"
)

const defaultBuffer = 64

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Filter отбирает события для подписчика; nil принимает все.
type Filter func(e entity.Event) bool

// ForAuction принимает только события указанного аукциона.
func ForAuction(id uint64) Filter {
	return func(e entity.Event) bool {
		return e.AuctionID != nil && *e.AuctionID == id
	}
}

type Subscription struct {
	C      <-chan entity.Event
	ch     chan entity.Event
	filter Filter
	once   sync.Once
	hub    *Hub
}

// Close отписывает подписчика и закрывает канал.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub раздаёт события подписчикам внутри процесса. Медленный подписчик
// теряет события, но не блокирует публикацию.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(filter Filter, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	ch := make(chan entity.Event, buffer)
	s := &Subscription{C: ch, ch: ch, filter: filter, hub: h}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
}

func (h *Hub) Publish(ctx context.Context, events ...entity.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range events {
		metrics.ObserveEvent(string(e.Type))

		for s := range h.subs {
			if s.filter != nil && !s.filter(e) {
				continue
			}

			select {
			case s.ch <- e:
			default:
				logger(ctx).Warn("subscriber is slow, event dropped",
					logx.FieldEventType, string(e.Type),
					"event_id", e.ID,
				)
			}
		}
	}
}

// Len возвращает число активных подписок.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
