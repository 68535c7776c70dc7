package eventbus

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"nft_auction/internal/domain/entity"
	"nft_auction/pkg/logx"
)

const DefaultChannel = "nft_auction:events"

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

// RedisPublisher публикует события в канал Redis для других экземпляров.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, events ...entity.Event) {
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			logger(ctx).Error("json.Marshal event", logx.Error(err))
			continue
		}

		if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
			logger(ctx).Error("redis publish failed",
				logx.FieldEventType, string(e.Type),
				logx.Error(err),
			)
		}
	}
}

// RedisRelay читает канал Redis и передаёт события в локальный Hub.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{client: client, channel: channel, hub: hub}
}

func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() {
		if err := sub.Close(); err != nil {
			logger(ctx).Error("redis subscription close", logx.Error(err))
		}
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe: %w", err)
	}

	logger(ctx).Info("redis relay started", "channel", r.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			logger(ctx).Info("redis relay stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("redis subscription closed")
			}

			var e entity.Event
			if err := json.UnmarshalFromString(msg.Payload, &e); err != nil {
				logger(ctx).Warn("bad event payload", logx.Error(err))
				continue
			}
			r.hub.Publish(ctx, e)
		}
	}
}
