package middlewarex

import (
	"log/slog"
	"net/http"

	"nft_auction/pkg/contextx"
	"nft_auction/pkg/logx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Logger кладёт в контекст запроса логгер с trace-id и адресом клиента.
// Должен стоять после TraceID.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		l := logger(ctx).With(
			slog.String(logx.FieldHTTPMethod, r.Method),
			slog.String(logx.FieldURL, r.URL.Path),
			slog.String(logx.FieldIP, r.RemoteAddr),
		)

		if traceID, err := contextx.TraceIDFromContext(ctx); err == nil {
			l = l.With(logx.Stringer(logx.FieldTraceID, traceID))
		}

		next.ServeHTTP(w, r.WithContext(contextx.WithLogger(ctx, l)))
	})
}
