package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/entity"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/metrics"
)

const (
	TaskSettleAuction = "auction:settle"
	DefaultQueue      = "settlement"

	settleMaxRetry = 10
	settleTimeout  = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type settlePayload struct {
	AuctionID uint64 `json:"auctionId"`
}

// NewSettleTask создаёт задачу завершения аукциона.
func NewSettleTask(auctionID uint64) (*asynq.Task, error) {
	payload, err := json.Marshal(settlePayload{AuctionID: auctionID})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TaskSettleAuction, payload), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// SettlementScheduler ставит задачу завершения на дедлайн каждого
// созданного аукциона. Подключается к реестру как публикатор событий.
type SettlementScheduler struct {
	client   enqueuer
	auctions Settler
	queue    string
}

func NewSettlementScheduler(client enqueuer, auctions Settler) *SettlementScheduler {
	return &SettlementScheduler{
		client:   client,
		auctions: auctions,
		queue:    DefaultQueue,
	}
}

func (s *SettlementScheduler) WithQueue(queue string) *SettlementScheduler {
	s.queue = queue
	return s
}

func (s *SettlementScheduler) Publish(ctx context.Context, events ...entity.Event) {
	for _, e := range events {
		if e.Type != entity.EventAuctionCreated || e.AuctionID == nil {
			continue
		}

		if err := s.Schedule(ctx, *e.AuctionID); err != nil {
			logger(ctx).Error("settlement not scheduled",
				slog.Uint64(logx.FieldAuctionID, *e.AuctionID),
				logx.Error(err),
			)
		}
	}
}

// Schedule ставит задачу на дедлайн аукциона. Повторная постановка
// того же аукциона не создаёт дубликат.
func (s *SettlementScheduler) Schedule(ctx context.Context, auctionID uint64) error {
	a, err := s.auctions.GetAuction(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("auctions.GetAuction: %w", err)
	}

	task, err := NewSettleTask(auctionID)
	if err != nil {
		return err
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.Queue(s.queue),
		asynq.ProcessAt(a.Deadline),
		asynq.TaskID(TaskSettleAuction+":"+strconv.FormatUint(auctionID, 10)),
		asynq.MaxRetry(settleMaxRetry),
		asynq.Timeout(settleTimeout),
	)
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	logger(ctx).Info("settlement scheduled",
		slog.Uint64(logx.FieldAuctionID, auctionID),
		slog.Time("process-at", a.Deadline),
	)

	return nil
}

// SettlementHandler завершает аукцион от имени администратора.
type SettlementHandler struct {
	settler Settler
}

func NewSettlementHandler(settler Settler) SettlementHandler {
	return SettlementHandler{settler: settler}
}

func (h SettlementHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload settlePayload

	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %v: %w", err, asynq.SkipRetry)
	}

	ctx = contextx.WithLogger(ctx, logger(ctx).With(slog.Uint64(logx.FieldAuctionID, payload.AuctionID)))

	admin, err := h.settler.Admin(ctx)
	if err != nil {
		return fmt.Errorf("settler.Admin: %w", err)
	}

	settlement, err := h.settler.EndAuction(ctx, admin, payload.AuctionID)

	switch {
	case err == nil:
		metrics.ObserveSettlement(sourceQueue, resultEnded)
		logger(ctx).Info("auction settled",
			slog.String("winner", settlement.Winner.Hex()),
			slog.String(logx.FieldCurrency, settlement.Currency.Hex()),
		)

		return nil
	case errors.Is(err, domain.ErrAuctionAlreadyEnded):
		metrics.ObserveSettlement(sourceQueue, resultSkipped)
		return nil
	case errors.Is(err, domain.ErrAuctionNotEndedYet):
		// Часы воркера отстают от часов реестра, asynq повторит позже.
		metrics.ObserveSettlement(sourceQueue, resultEarly)
		return fmt.Errorf("settler.EndAuction: %w", err)
	case errors.Is(err, domain.ErrAuctionDoesNotExist):
		metrics.ObserveSettlement(sourceQueue, resultFailed)
		return fmt.Errorf("settler.EndAuction: %v: %w", err, asynq.SkipRetry)
	default:
		metrics.ObserveSettlement(sourceQueue, resultFailed)
		return fmt.Errorf("settler.EndAuction: %w", err)
	}
}

// earlyRetryDelay: пауза перед повтором, если задача пришла раньше дедлайна.
const earlyRetryDelay = 5 * time.Second

// RetryDelay повторяет преждевременное завершение через короткую паузу,
// остальные ошибки по стандартной экспоненциальной схеме asynq.
func RetryDelay(n int, err error, task *asynq.Task) time.Duration {
	if errors.Is(err, domain.ErrAuctionNotEndedYet) {
		return earlyRetryDelay
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}
