package httpx

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/xid"

	"nft_auction/pkg/logx"
)

type sensitiveDataMasker interface {
	Mask([]byte) []byte
}

// LoggingRoundTripper implements http.RoundTripper interface and executes HTTP
// requests with logging. Для JSON-RPC запросов в лог попадает имя метода.
type LoggingRoundTripper struct {
	next                http.RoundTripper
	sensitiveDataMasker sensitiveDataMasker
	logFieldMaxLen      int
}

// NewLoggingRoundTripper returns a new logging RoundTripper instance.
func NewLoggingRoundTripper(
	next http.RoundTripper,
	opts ...Option,
) LoggingRoundTripper {
	rt := LoggingRoundTripper{
		next:                next,
		sensitiveDataMasker: logx.NewNopSensitiveDataMasker(),
		logFieldMaxLen:      0,
	}

	for _, opt := range opts {
		opt(&rt)
	}

	return rt
}

// RoundTrip implements http.RoundTripper interface.
func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attrs := []any{slog.String(logx.FieldRequestID, xid.New().String())}

	reqBytes, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		logger(ctx).Error("httputil.DumpRequestOut", append(attrs, logx.Error(err))...)
	}

	if method := rpcMethod(reqBytes); method != "" {
		attrs = append(attrs, slog.String(logx.FieldRPCMethod, method))
	}

	logger(ctx).Info(
		logx.FieldHTTPRequest,
		append(attrs, slog.String(logx.FieldRequestBody, rt.truncate(rt.sensitiveDataMasker.Mask(reqBytes))))...,
	)

	start := time.Now()

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		logger(ctx).Error("next.RoundTrip", append(attrs, logx.Error(err))...)
		return nil, fmt.Errorf("next.RoundTrip: %w", err)
	}

	respBytes, err := httputil.DumpResponse(resp, true)
	if err != nil {
		logger(ctx).Error("httputil.DumpResponse", append(attrs, logx.Error(err))...)
	}

	logger(ctx).Info(
		logx.FieldHTTPResponse,
		append(attrs,
			slog.String(logx.FieldResponseBody, rt.truncate(rt.sensitiveDataMasker.Mask(respBytes))),
			slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
		)...,
	)

	return resp, nil
}

func (rt LoggingRoundTripper) truncate(dump []byte) string {
	if rt.logFieldMaxLen != 0 && len(dump) > rt.logFieldMaxLen {
		dump = dump[:rt.logFieldMaxLen]
	}
	return string(dump)
}

// rpcMethod достаёт поле method из тела одиночного JSON-RPC запроса.
func rpcMethod(dump []byte) string {
	i := bytes.Index(dump, []byte("\r\n\r\n"))
	if i < 0 {
		return ""
	}

	body := dump[i+4:]
	if len(bytes.TrimSpace(body)) == 0 || bytes.TrimSpace(body)[0] != '{' {
		return ""
	}

	return jsoniter.Get(body, "method").ToString()
}
