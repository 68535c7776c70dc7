package server

import (
	"net/http"
	"time"

	"nft_auction/internal/domain"
	"nft_auction/internal/domain/value"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/middlewarex"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Данный сервер просто объединяет специфичные HTTP сервера, отвечающие за обработку конкретных сущностей.
// CustodyServer подключается только с локальным хранилищем активов.
type Server struct {
	AuctionServer
	FeeServer
	OracleServer
	StreamServer

	custody *CustodyServer

	// authenticate защищает изменяющие маршруты; без него они закрыты.
	authenticate func(http.Handler) http.Handler
}

func NewServer(
	auctionServer AuctionServer,
	feeServer FeeServer,
	oracleServer OracleServer,
	streamServer StreamServer,
) Server {
	return Server{
		AuctionServer: auctionServer,
		FeeServer:     feeServer,
		OracleServer:  oracleServer,
		StreamServer:  streamServer,
	}
}

func (s Server) WithCustody(custodyServer CustodyServer) Server {
	s.custody = &custodyServer
	return s
}

// WithAuthenticator задаёт middleware, кладущий подтверждённого участника
// в контекст запроса.
func (s Server) WithAuthenticator(authenticate func(http.Handler) http.Handler) Server {
	s.authenticate = authenticate
	return s
}

func (s Server) authenticator() func(http.Handler) http.Handler {
	if s.authenticate == nil {
		return middlewarex.Authenticate(nil)
	}
	return s.authenticate
}

// callerFromRequest возвращает участника, подтверждённого middleware
// аутентификации. Заголовки запроса не учитываются.
func callerFromRequest(r *http.Request) (value.Address, error) {
	userID, err := contextx.UserIDFromContext(r.Context())
	if err != nil {
		return value.Address{}, domain.WrapError(err, errcodes.Unauthorized, "caller is not authenticated")
	}

	return parseAddress(userID.String())
}

type clock func() time.Time
