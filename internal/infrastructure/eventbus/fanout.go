package eventbus

import (
	"context"

	"nft_auction/internal/domain/entity"
)

type Publisher interface {
	Publish(ctx context.Context, events ...entity.Event)
}

// Fanout передаёт события всем издателям по порядку.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, events ...entity.Event) {
	for _, p := range f {
		p.Publish(ctx, events...)
	}
}
