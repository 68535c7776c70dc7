package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/infrastructure/eventbus"
	"nft_auction/pkg/logx"
)

const (
	streamBuffer     = 64
	streamWriteWait  = 5 * time.Second
	streamPingPeriod = 30 * time.Second
)

type eventLog interface {
	GetAuction(ctx context.Context, id uint64) (*entity.Auction, error)
	AuctionEvents(ctx context.Context, id uint64) ([]entity.Event, error)
}

type subscriber interface {
	Subscribe(filter eventbus.Filter, buffer int) *eventbus.Subscription
}

// StreamServer отдаёт события аукциона по websocket: сначала журнал,
// затем новые события по мере публикации.
type StreamServer struct {
	events   eventLog
	hub      subscriber
	upgrader websocket.Upgrader
}

func NewStreamServer(events eventLog, hub subscriber) StreamServer {
	return StreamServer{
		events: events,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s StreamServer) getV1AuctionStream(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	if _, err := s.events.GetAuction(ctx, id); err != nil {
		return fmt.Errorf("events.GetAuction: %w", err)
	}

	// Подписка до чтения журнала, чтобы не потерять события между ними.
	sub := s.hub.Subscribe(eventbus.ForAuction(id), streamBuffer)
	defer sub.Close()

	history, err := s.events.AuctionEvents(ctx, id)
	if err != nil {
		return fmt.Errorf("events.AuctionEvents: %w", err)
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		logger(ctx).Warn("websocket upgrade failed", logx.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go readLoop(conn, cancel)

	logger(ctx).Info("stream opened", slog.Uint64(logx.FieldAuctionID, id))

	seen := make(map[string]struct{}, len(history))

	for _, e := range history {
		seen[e.ID] = struct{}{}

		if err := writeEvent(conn, e); err != nil {
			logger(ctx).Warn("stream write failed", logx.Error(err))
			return nil
		}
	}

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("stream closed", slog.Uint64(logx.FieldAuctionID, id))
			return nil
		case <-ticker.C:
			deadline := time.Now().Add(streamWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return nil
			}
		case e, ok := <-sub.C:
			if !ok {
				return nil
			}
			if _, dup := seen[e.ID]; dup {
				continue
			}

			if err := writeEvent(conn, e); err != nil {
				logger(ctx).Warn("stream write failed", logx.Error(err))
				return nil
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, e entity.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return fmt.Errorf("conn.SetWriteDeadline: %w", err)
	}

	if err := conn.WriteJSON(newRESTEvent(e)); err != nil {
		return fmt.Errorf("conn.WriteJSON: %w", err)
	}

	return nil
}

// readLoop обрабатывает control-фреймы и замечает закрытие соединения клиентом.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
