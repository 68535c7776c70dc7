package server

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_auction/internal/domain/value"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/httpx/req"
	"nft_auction/pkg/rest"
)

type feeService interface {
	FeeBalance(ctx context.Context, currency value.Currency) (*big.Int, error)
	WithdrawFees(ctx context.Context, caller value.Address, currency value.Currency, recipient value.Address, amount *big.Int) error
}

type FeeServer struct {
	feeService feeService
}

func NewFeeServer(feeService feeService) FeeServer {
	return FeeServer{
		feeService: feeService,
	}
}

func (s FeeServer) getV1FeeBalance(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	currency, err := parseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		return err
	}

	balance, err := s.feeService.FeeBalance(ctx, currency)
	if err != nil {
		return fmt.Errorf("feeService.FeeBalance: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.FeeBalance{
		Currency: currency.Hex(),
		Amount:   value.Clone(balance).String(),
	})

	return nil
}

func (s FeeServer) postV1FeesWithdraw(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.WithdrawFeesRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	currency, err := parseCurrency(request.Currency)
	if err != nil {
		return err
	}

	recipient, err := parseAddress(request.Recipient)
	if err != nil {
		return err
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	if err := s.feeService.WithdrawFees(ctx, caller, currency, recipient, amount); err != nil {
		return fmt.Errorf("feeService.WithdrawFees: %w", err)
	}

	reply.OK(w)

	return nil
}
