package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"nft_auction/internal/domain"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/metrics"
)

const (
	defaultSweepInterval = 30 * time.Second
	defaultSweepPageSize = 100
)

// ExpirySweeper периодически обходит аукционы и завершает истёкшие.
// Страхует очередь asynq, когда Redis недоступен или задача потеряна.
type ExpirySweeper struct {
	settler  Settler
	now      func() time.Time
	interval time.Duration
	pageSize int

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  bool
	wg         sync.WaitGroup
}

func NewExpirySweeper(settler Settler) *ExpirySweeper {
	return &ExpirySweeper{
		settler:  settler,
		now:      time.Now,
		interval: defaultSweepInterval,
		pageSize: defaultSweepPageSize,
	}
}

func (w *ExpirySweeper) WithInterval(interval time.Duration) *ExpirySweeper {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// WithPageSize задаёт размер страницы обхода, не больше лимита реестра.
func (w *ExpirySweeper) WithPageSize(size int) *ExpirySweeper {
	if size > 0 && size <= defaultSweepPageSize {
		w.pageSize = size
	}
	return w
}

func (w *ExpirySweeper) WithClock(now func() time.Time) *ExpirySweeper {
	w.now = now
	return w
}

func (w *ExpirySweeper) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return errors.New("sweeper is already running")
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel
	w.isRunning = true

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			w.mu.Lock()
			w.isRunning = false
			w.cancelFunc = nil
			w.mu.Unlock()
		}()

		if err := w.Run(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger(ctx).Error("sweeper stopped", logx.Error(err))
		}
	}()

	return nil
}

func (w *ExpirySweeper) Stop() {
	w.mu.Lock()

	if !w.isRunning {
		w.mu.Unlock()
		return
	}

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.mu.Unlock()

	w.wg.Wait()
}

// IsRunning возвращает текущий статус
func (w *ExpirySweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.isRunning
}

func (w *ExpirySweeper) Run(ctx context.Context) error {
	logger(ctx).Info("expiry sweeper started", slog.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
			logger(ctx).Error("sweep failed", logx.Error(err))
		}

		select {
		case <-ctx.Done():
			logger(ctx).Info("expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep завершает все истёкшие аукционы и возвращает их число.
func (w *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	admin, err := w.settler.Admin(ctx)
	if err != nil {
		return 0, err
	}

	var ended int

	for offset := 0; ; offset += w.pageSize {
		page, err := w.settler.ListAuctions(ctx, offset, w.pageSize)
		if err != nil {
			return ended, err
		}

		now := w.now()

		for _, a := range page {
			if ctx.Err() != nil {
				return ended, ctx.Err()
			}
			if !expired(a, now) {
				continue
			}

			_, err := w.settler.EndAuction(ctx, admin, a.ID)

			switch {
			case err == nil:
				ended++
				metrics.ObserveSettlement(sourceSweeper, resultEnded)
			case errors.Is(err, domain.ErrAuctionAlreadyEnded):
				metrics.ObserveSettlement(sourceSweeper, resultSkipped)
			default:
				metrics.ObserveSettlement(sourceSweeper, resultFailed)
				logger(ctx).Error("sweeper failed to end auction",
					slog.Uint64(logx.FieldAuctionID, a.ID),
					logx.Error(err),
				)
			}
		}

		if len(page) < w.pageSize {
			break
		}
	}

	if ended > 0 {
		logger(ctx).Info("sweep completed", slog.Int("ended", ended))
	}

	return ended, nil
}
