package auction

import (
	"context"

	"github.com/google/uuid"

	"nft_auction/internal/domain/entity"
	"nft_auction/pkg/logx"
)

// operation собирает события и компенсации одного изменяющего вызова.
type operation struct {
	name   string
	events []entity.Event
	undo   []compensation

	// reverted защищён Registry.externalMu.
	reverted bool
}

type compensation struct {
	name string
	fn   func(ctx context.Context) error
}

func (o *operation) emit(events ...entity.Event) {
	o.events = append(o.events, events...)
}

// onRollback регистрирует обратный перевод для уже выполненного внешнего.
func (o *operation) onRollback(name string, fn func(ctx context.Context) error) {
	o.undo = append(o.undo, compensation{name: name, fn: fn})
}

// rollback выполняет компенсации в обратном порядке. Ошибка одной
// компенсации не останавливает остальные.
func (o *operation) rollback(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	for i := len(o.undo) - 1; i >= 0; i-- {
		c := o.undo[i]
		if err := c.fn(ctx); err != nil {
			logger(ctx).Error("compensation failed",
				logx.FieldOperation, o.name,
				"step", c.name,
				logx.Error(err),
			)
		}
	}

	o.undo = nil
	o.events = nil
}

func eventID() string {
	return uuid.NewString()
}
