package middlewarex

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"nft_auction/internal/domain"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/httpx/reply"
	"nft_auction/pkg/logx"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

type principal struct {
	digest [sha256.Size]byte
	userID contextx.UserID
}

// Authenticate пропускает запрос только с известным bearer-токеном и кладёт
// в контекст участника, за которым закреплён токен. Пустой набор токенов
// отклоняет все запросы.
func Authenticate(tokens map[string]contextx.UserID) func(http.Handler) http.Handler {
	principals := make([]principal, 0, len(tokens))
	for token, userID := range tokens {
		principals = append(principals, principal{digest: sha256.Sum256([]byte(token)), userID: userID})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := lookup(principals, r.Header.Get(headerAuthorization))
			if !ok {
				reply.Error(ctx, w, domain.NewError(errcodes.Unauthorized, "missing or invalid bearer token"))
				return
			}

			ctx = contextx.WithUserID(ctx, userID)
			logger(ctx).Debug("caller authenticated", logx.FieldCaller, userID.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// lookup сравнивает дайджесты за постоянное время по всем токенам.
func lookup(principals []principal, header string) (contextx.UserID, bool) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", false
	}

	digest := sha256.Sum256([]byte(token))

	var found contextx.UserID
	for _, p := range principals {
		if subtle.ConstantTimeCompare(digest[:], p.digest[:]) == 1 {
			found = p.userID
		}
	}

	return found, found != ""
}
