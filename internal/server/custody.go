package server

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_auction/internal/domain/value"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/httpx/req"
	"nft_auction/pkg/rest"
)

type custodyService interface {
	MintNFT(contract, to value.Address, tokenID *big.Int) error
	ApproveNFT(contract, caller, operator value.Address, tokenID *big.Int) error
	Deposit(to value.Address, amount *big.Int)
	Mint(token value.Currency, to value.Address, amount *big.Int) error
	Approve(token value.Currency, owner, spender value.Address, amount *big.Int) error
	NativeBalance(owner value.Address) *big.Int
	BalanceOf(token value.Currency, owner value.Address) *big.Int
}

// CustodyServer управляет локальным хранилищем активов в dev-окружении:
// выпуск NFT и токенов, approve, пополнение нативного баланса.
type CustodyServer struct {
	custodyService custodyService
}

func NewCustodyServer(custodyService custodyService) CustodyServer {
	return CustodyServer{
		custodyService: custodyService,
	}
}

func (s CustodyServer) postV1CustodyNFTMint(w http.ResponseWriter, r *http.Request) error {
	var request rest.MintNFTRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	contract, err := parseAddress(request.Contract)
	if err != nil {
		return err
	}

	to, err := parseAddress(request.To)
	if err != nil {
		return err
	}

	tokenID, err := parseAmount(request.TokenID)
	if err != nil {
		return err
	}

	if err := s.custodyService.MintNFT(contract, to, tokenID); err != nil {
		return fmt.Errorf("custodyService.MintNFT: %w", err)
	}

	reply.Created(w)

	return nil
}

func (s CustodyServer) postV1CustodyNFTApprove(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.ApproveNFTRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	contract, err := parseAddress(request.Contract)
	if err != nil {
		return err
	}

	operator, err := parseAddress(request.Operator)
	if err != nil {
		return err
	}

	tokenID, err := parseAmount(request.TokenID)
	if err != nil {
		return err
	}

	if err := s.custodyService.ApproveNFT(contract, caller, operator, tokenID); err != nil {
		return fmt.Errorf("custodyService.ApproveNFT: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s CustodyServer) postV1CustodyDeposit(w http.ResponseWriter, r *http.Request) error {
	var request rest.DepositRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	token, err := parseCurrency(request.Token)
	if err != nil {
		return err
	}

	to, err := parseAddress(request.To)
	if err != nil {
		return err
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	if value.IsNative(token) {
		s.custodyService.Deposit(to, amount)
	} else if err := s.custodyService.Mint(token, to, amount); err != nil {
		return fmt.Errorf("custodyService.Mint: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s CustodyServer) postV1CustodyTokenApprove(w http.ResponseWriter, r *http.Request) error {
	caller, err := callerFromRequest(r)
	if err != nil {
		return err
	}

	var request rest.ApproveTokenRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	token, err := parseAddress(request.Token)
	if err != nil {
		return err
	}

	spender, err := parseAddress(request.Spender)
	if err != nil {
		return err
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	if err := s.custodyService.Approve(token, caller, spender, amount); err != nil {
		return fmt.Errorf("custodyService.Approve: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s CustodyServer) getV1CustodyBalance(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	owner, err := parseAddress(chi.URLParam(r, "owner"))
	if err != nil {
		return err
	}

	currency, err := parseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		return err
	}

	var balance *big.Int
	if value.IsNative(currency) {
		balance = s.custodyService.NativeBalance(owner)
	} else {
		balance = s.custodyService.BalanceOf(currency, owner)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.Balance{
		Owner:    owner.Hex(),
		Currency: currency.Hex(),
		Amount:   value.Clone(balance).String(),
	})

	return nil
}
