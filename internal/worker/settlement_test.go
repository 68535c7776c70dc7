package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/value"
	"nft_auction/internal/worker"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err != nil {
		return nil, q.err
	}

	q.tasks = append(q.tasks, task)

	return &asynq.TaskInfo{Type: task.Type(), Payload: task.Payload()}, nil
}

func (q *fakeQueue) Tasks() []*asynq.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*asynq.Task(nil), q.tasks...)
}

func TestSettlementScheduler_SchedulesCreatedAuctions(t *testing.T) {
	rq := require.New(t)

	queue := &fakeQueue{}
	scheduler := &lateBound{}
	e := newEnv(t, scheduler)
	scheduler.target = worker.NewSettlementScheduler(queue, e.registry)

	id := e.create(t, 1, auctionDuration)

	tasks := queue.Tasks()
	rq.Len(tasks, 1)
	rq.Equal(worker.TaskSettleAuction, tasks[0].Type())

	want, err := worker.NewSettleTask(id)
	rq.NoError(err)
	rq.Equal(want.Payload(), tasks[0].Payload())

	// Ставки не планируют новых задач.
	rq.NoError(e.registry.PlaceBidNative(e.ctx, alice, id, value.MustUnits("0.5", 18)))
	rq.Len(queue.Tasks(), 1)
}

func TestSettlementScheduler_DuplicateIsNotAnError(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, nil)
	id := e.create(t, 1, auctionDuration)

	queue := &fakeQueue{err: asynq.ErrTaskIDConflict}
	scheduler := worker.NewSettlementScheduler(queue, e.registry)

	rq.NoError(scheduler.Schedule(e.ctx, id))

	queue.err = errors.New("redis down")
	rq.Error(scheduler.Schedule(e.ctx, id))

	rq.ErrorIs(scheduler.Schedule(e.ctx, 99), domain.ErrAuctionDoesNotExist)
}

func TestSettlementHandler(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, nil)
	handler := worker.NewSettlementHandler(e.registry)

	id := e.create(t, 1, auctionDuration)
	rq.NoError(e.registry.PlaceBidNative(e.ctx, alice, id, value.MustUnits("0.5", 18)))

	task, err := worker.NewSettleTask(id)
	rq.NoError(err)

	err = handler.Handle(e.ctx, task)
	rq.ErrorIs(err, domain.ErrAuctionNotEndedYet)
	rq.NotErrorIs(err, asynq.SkipRetry)

	e.advance(auctionDuration)

	rq.NoError(handler.Handle(e.ctx, task))
	rq.Equal(alice, e.owner(t, 1))

	// Повторная доставка задачи не ошибка.
	rq.NoError(handler.Handle(e.ctx, task))

	missing, err := worker.NewSettleTask(42)
	rq.NoError(err)
	rq.ErrorIs(handler.Handle(e.ctx, missing), asynq.SkipRetry)

	rq.ErrorIs(handler.Handle(e.ctx, asynq.NewTask(worker.TaskSettleAuction, []byte("{"))), asynq.SkipRetry)
}

func TestRetryDelay(t *testing.T) {
	rq := require.New(t)

	task := asynq.NewTask(worker.TaskSettleAuction, nil)

	rq.Equal(5*time.Second, worker.RetryDelay(3, domain.ErrAuctionNotEndedYet.Wrap(errors.New("clock skew")), task))
	rq.Positive(worker.RetryDelay(0, errors.New("redis down"), task))
}

// lateBound позволяет создать реестр раньше планировщика, которому нужен реестр.
type lateBound struct {
	target *worker.SettlementScheduler
}

func (l *lateBound) Publish(ctx context.Context, events ...entity.Event) {
	if l.target != nil {
		l.target.Publish(ctx, events...)
	}
}
