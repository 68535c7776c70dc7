package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/worker"
)

func TestExpirySweeper_Sweep(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, nil)
	sweeper := worker.NewExpirySweeper(e.registry).
		WithClock(e.clock.Now).
		WithPageSize(1)

	short := e.create(t, 1, 10*time.Minute)
	long := e.create(t, 2, 2*time.Hour)

	ended, err := sweeper.Sweep(e.ctx)
	rq.NoError(err)
	rq.Zero(ended)

	e.advance(time.Hour)

	ended, err = sweeper.Sweep(e.ctx)
	rq.NoError(err)
	rq.Equal(1, ended)

	state, err := e.registry.State(e.ctx, short)
	rq.NoError(err)
	rq.Equal(entity.StateEnded, state)
	rq.Equal(seller, e.owner(t, 1))

	state, err = e.registry.State(e.ctx, long)
	rq.NoError(err)
	rq.Equal(entity.StateCreated, state)

	ended, err = sweeper.Sweep(e.ctx)
	rq.NoError(err)
	rq.Zero(ended)
}

func TestExpirySweeper_StartStop(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, nil)
	e.create(t, 1, 10*time.Minute)
	e.advance(time.Hour)

	sweeper := worker.NewExpirySweeper(e.registry).
		WithClock(e.clock.Now).
		WithInterval(10 * time.Millisecond)

	rq.NoError(sweeper.Start(context.Background()))
	rq.True(sweeper.IsRunning())
	rq.Error(sweeper.Start(context.Background()))

	rq.Eventually(func() bool {
		state, err := e.registry.State(e.ctx, 0)
		return err == nil && state == entity.StateEnded
	}, time.Second, 10*time.Millisecond)

	sweeper.Stop()
	rq.False(sweeper.IsRunning())
}
