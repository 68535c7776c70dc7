package server

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"nft_auction/internal/domain/entity"
	"nft_auction/internal/domain/service/auction"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/httpx/req"
	"nft_auction/pkg/rest"
)

const defaultListLimit = 20

type auctionService interface {
	CreateAuction(ctx context.Context, caller value.Address, p auction.CreateParams) (uint64, error)
	GetAuction(ctx context.Context, id uint64) (*entity.Auction, error)
	GetAuctions(ctx context.Context, ids []uint64) ([]*entity.Auction, error)
	ListAuctions(ctx context.Context, offset, limit int) ([]*entity.Auction, error)
	GetRemainingTime(ctx context.Context, id uint64) time.Duration
	PlaceBidNative(ctx context.Context, caller value.Address, id uint64, amount *big.Int) error
	PlaceBidToken(ctx context.Context, caller value.Address, id uint64, token value.Currency, amount *big.Int) error
	EndAuction(ctx context.Context, caller value.Address, id uint64) (auction.Settlement, error)
}

type AuctionServer struct {
	auctionService auctionService
	now            clock
}

func NewAuctionServer(auctionService auctionService) AuctionServer {
	return AuctionServer{
		auctionService: auctionService,
		now:            time.Now,
	}
}

func (s AuctionServer) WithClock(now func() time.Time) AuctionServer {
	s.now = now
	return s
}

func (s AuctionServer) postV1Auction(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.CreateAuctionRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	params, err := newDomainCreateParams(request)
	if err != nil {
		return fmt.Errorf("newDomainCreateParams: %w", err)
	}

	id, err := s.auctionService.CreateAuction(ctx, caller, params)
	if err != nil {
		return fmt.Errorf("auctionService.CreateAuction: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, rest.CreateAuctionResponse{ID: id})

	return nil
}

func (s AuctionServer) getV1Auctions(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	offset, err := parseInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		return err
	}

	limit, err := parseInt(r.URL.Query().Get("limit"), defaultListLimit)
	if err != nil {
		return err
	}

	items, err := s.auctionService.ListAuctions(ctx, offset, limit)
	if err != nil {
		return fmt.Errorf("auctionService.ListAuctions: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTAuctionList(items, s.now()))

	return nil
}

func (s AuctionServer) getV1Auction(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	a, err := s.auctionService.GetAuction(ctx, id)
	if err != nil {
		return fmt.Errorf("auctionService.GetAuction: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTAuction(a, s.now()))

	return nil
}

func (s AuctionServer) postV1AuctionsBatch(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.BatchAuctionsRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	items, err := s.auctionService.GetAuctions(ctx, request.IDs)
	if err != nil {
		return fmt.Errorf("auctionService.GetAuctions: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTAuctionList(items, s.now()))

	return nil
}

// Оставшееся время не бывает ошибкой: несуществующий аукцион даёт ноль.
func (s AuctionServer) getV1AuctionRemaining(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	remaining := s.auctionService.GetRemainingTime(ctx, id)

	reply.JSON(ctx, w, http.StatusOK, rest.RemainingTime{Seconds: int64(remaining.Seconds())})

	return nil
}

func (s AuctionServer) postV1AuctionBidNative(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	var request rest.NativeBidRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	if err := s.auctionService.PlaceBidNative(ctx, caller, id, amount); err != nil {
		return fmt.Errorf("auctionService.PlaceBidNative: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s AuctionServer) postV1AuctionBidToken(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	var request rest.TokenBidRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	token, err := parseAddress(request.Token)
	if err != nil {
		return err
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	if err := s.auctionService.PlaceBidToken(ctx, caller, id, token, amount); err != nil {
		return fmt.Errorf("auctionService.PlaceBidToken: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s AuctionServer) postV1AuctionEnd(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	id, err := parseAuctionID(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	settlement, err := s.auctionService.EndAuction(ctx, caller, id)
	if err != nil {
		return fmt.Errorf("auctionService.EndAuction: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSettlement(settlement))

	return nil
}
