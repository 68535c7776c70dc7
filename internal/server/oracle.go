package server

import (
	"context"
	"fmt"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/rest"
)

type PriceReader interface {
	GetPrice(ctx context.Context, currency value.Currency) (*big.Int, error)
}

// PriceReaders находит читателя цен по его адресу.
type PriceReaders func(address value.Address) (PriceReader, bool)

type OracleServer struct {
	readers PriceReaders
}

func NewOracleServer(readers PriceReaders) OracleServer {
	return OracleServer{
		readers: readers,
	}
}

func (s OracleServer) getV1OraclePrice(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	readerAddress, err := parseAddress(chi.URLParam(r, "reader"))
	if err != nil {
		return err
	}

	currency, err := parseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		return err
	}

	reader, ok := s.readers(readerAddress)
	if !ok {
		return domain.NewError(errcodes.NotFound, "price oracle reader not found")
	}

	price, err := reader.GetPrice(ctx, currency)
	if err != nil {
		return fmt.Errorf("reader.GetPrice: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, rest.Price{
		Reader:   readerAddress.Hex(),
		Currency: currency.Hex(),
		Price:    price.String(),
		PriceUSD: value.FormatUSD(price),
	})

	return nil
}
