package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_auction/internal/domain"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/metrics"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.NotFound(handler(unknownEntryPoint))
	r.MethodNotAllowed(handler(unknownEntryPoint))

	auth := s.authenticator()

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auctions", func(r chi.Router) {
			// unauthorized zone
			r.Get("/", handler(s.getV1Auctions))
			r.Post("/batch", handler(s.postV1AuctionsBatch))
			r.Get("/{id}", handler(s.getV1Auction))
			r.Get("/{id}/remaining", handler(s.getV1AuctionRemaining))
			r.Get("/{id}/stream", handler(s.getV1AuctionStream))

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Post("/", handler(s.postV1Auction))
				r.Post("/{id}/bids/native", handler(s.postV1AuctionBidNative))
				r.Post("/{id}/bids/token", handler(s.postV1AuctionBidToken))
				r.Post("/{id}/end", handler(s.postV1AuctionEnd))
			})
		})

		r.Route("/fees", func(r chi.Router) {
			// unauthorized zone
			r.Get("/{currency}", handler(s.getV1FeeBalance))

			r.With(auth).Post("/withdraw", handler(s.postV1FeesWithdraw))
		})

		r.Get("/oracle/{reader}/price/{currency}", handler(s.getV1OraclePrice))

		if s.custody != nil {
			c := *s.custody

			r.Route("/custody", func(r chi.Router) {
				// unauthorized zone
				r.Get("/balances/{owner}/{currency}", handler(c.getV1CustodyBalance))

				r.Group(func(r chi.Router) {
					r.Use(auth)

					r.Post("/nfts", handler(c.postV1CustodyNFTMint))
					r.Post("/nfts/approve", handler(c.postV1CustodyNFTApprove))
					r.Post("/deposits", handler(c.postV1CustodyDeposit))
					r.Post("/tokens/approve", handler(c.postV1CustodyTokenApprove))
				})
			})
		}
	})
}

func unknownEntryPoint(_ http.ResponseWriter, r *http.Request) error {
	return domain.NewError(errcodes.UnknownEntryPoint, "unknown entry point "+r.Method+" "+r.URL.Path)
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := routePattern(r)

		if err := f(w, r); err != nil {
			metrics.ObserveRequest(route, reply.StatusOf(err))
			reply.Error(r.Context(), w, err)

			return
		}

		metrics.ObserveRequest(route, http.StatusOK)
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return r.Method + " " + pattern
		}
	}

	return "unknown"
}
