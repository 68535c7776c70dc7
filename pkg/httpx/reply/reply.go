package reply

import (
	"context"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"nft_auction/internal/domain"
	"nft_auction/pkg/contextx"
	"nft_auction/pkg/errcodes"
	"nft_auction/pkg/logx"
	"nft_auction/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

func OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func Created(w http.ResponseWriter) {
	w.WriteHeader(http.StatusCreated)
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

func Error(ctx context.Context, w http.ResponseWriter, err error) {
	code, ok := domain.GetCode(err)
	if !ok {
		code = errcodes.InternalServerError
	}

	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger(ctx).Error("error", logx.Error(err))
	} else {
		logger(ctx).Warn("error", logx.Error(err))
	}

	metrics.ObserveError(code.String())

	response := errorResponse{
		Code:      code.String(),
		Message:   message(err),
		SupportID: supportID(ctx),
	}

	JSON(ctx, w, status, response)
}

// StatusOf сопоставляет класс доменной ошибки с HTTP-статусом.
func StatusOf(err error) int {
	switch domain.GetKind(err) {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Внутренние ошибки наружу не раскрываются.
func message(err error) string {
	if !domain.IsAppError(err) || domain.GetKind(err) == domain.KindInternal {
		return "internal server error"
	}

	return err.Error()
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
